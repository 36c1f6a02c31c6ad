// Package tools implements the MCP tool handlers exposed by the bridge.
//
// Each tool is a struct that receives its dependencies via constructor
// and exposes Definition() for registration plus Handle() for requests.
// Handlers return mcp.NewToolResultError for caller-visible failures —
// a broken tool invocation must never take the process down.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"pgbridge/internal/remote"
)

// boolArg extracts a boolean argument, returning defaultVal when the
// key is missing or not a bool.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// preferences is the parsed form of the optional preferences object.
type preferences struct {
	remote.Preferences
	// RemoveProjectName drives local path correction (default true).
	RemoveProjectName bool
}

// parsePreferences reads the preferences argument. Unknown keys are
// ignored; missing keys fall back to documented defaults.
func parsePreferences(req mcp.CallToolRequest) preferences {
	p := preferences{RemoveProjectName: true}

	raw, ok := req.GetArguments()["preferences"].(map[string]any)
	if !ok {
		return p
	}

	if v, ok := raw["useLombok"].(bool); ok {
		p.UseLombok = v
	}
	if v, ok := raw["includeValidation"].(bool); ok {
		p.IncludeValidation = v
	}
	if v, ok := raw["namingStrategy"].(string); ok {
		p.NamingStrategy = v
	}
	if v, ok := raw["mergeStrategy"].(string); ok {
		p.MergeStrategy = v
	}
	if v, ok := raw["removeProjectNameFromPath"].(bool); ok {
		p.RemoveProjectName = v
	}

	p.Preferences.RemoveProjectNameFromPath = &p.RemoveProjectName
	return p
}

// truncate caps s at n runes, appending an ellipsis marker when cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n… (truncated)"
}

// bulletList renders items as a markdown list, or a placeholder when
// empty.
func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s\n", item)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// sortedKeys returns map keys in stable order for deterministic output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkbox(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
