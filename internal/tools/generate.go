package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"pgbridge/internal/apply"
	"pgbridge/internal/history"
	"pgbridge/internal/merge"
	"pgbridge/internal/project"
	"pgbridge/internal/remote"
)

// planService is the slice of the remote client the generate tool
// needs. Narrowed for test doubles.
type planService interface {
	Health(ctx context.Context) error
	CreatePlan(ctx context.Context, req remote.PlanRequest) (*remote.Plan, error)
	ExecutePlan(ctx context.Context, req remote.ExecuteRequest) (*remote.Execution, error)
}

// GenerateTool handles generate_postgresql_integration: it drives the
// two-phase plan conversation with the generation service and applies
// the returned files to the project tree.
type GenerateTool struct {
	svc    planService
	engine *apply.Engine
	hist   *history.Store // nil when history is disabled
	ctxFn  func() project.Context
}

// NewGenerateTool creates a GenerateTool. hist may be nil.
func NewGenerateTool(svc planService, engine *apply.Engine, hist *history.Store) *GenerateTool {
	return &GenerateTool{svc: svc, engine: engine, hist: hist, ctxFn: project.DefaultContext}
}

// Definition returns the MCP tool definition for registration.
func (t *GenerateTool) Definition() mcp.Tool {
	return mcp.NewTool("generate_postgresql_integration",
		mcp.WithDescription(
			"Generate a complete PostgreSQL integration (entities, repositories, "+
				"services, controllers, configuration) for a Java project from a "+
				"natural-language description and an SQL schema, and apply the "+
				"generated files into the project tree with smart merging and backups.",
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What the integration should do, in natural language"),
		),
		mcp.WithString("schema",
			mcp.Required(),
			mcp.Description("SQL schema (CREATE TABLE statements) to generate code for"),
		),
		mcp.WithString("projectPath",
			mcp.Description("Project directory. Absolute, or relative to the workspace; defaults to auto-detection."),
		),
		mcp.WithObject("preferences",
			mcp.Description("Generation options: useLombok, includeValidation, "+
				"namingStrategy (snake_case|camelCase), mergeStrategy (smart|append|replace), "+
				"removeProjectNameFromPath (default true)"),
		),
		mcp.WithBoolean("applyToProject",
			mcp.Description("Write generated files into the project (default true). When false, only the plan summary is returned."),
			mcp.DefaultBool(true),
		),
	)
}

// Handle processes one generate_postgresql_integration call.
func (t *GenerateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := strings.TrimSpace(req.GetString("description", ""))
	schema := strings.TrimSpace(req.GetString("schema", ""))
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}
	if schema == "" {
		return mcp.NewToolResultError("'schema' is required"), nil
	}

	prefs := parsePreferences(req)
	applyToProject := boolArg(req, "applyToProject", true)

	root, err := project.Resolve(req.GetString("projectPath", "."), t.ctxFn())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Preflight so "backend down" is reported before any plan work.
	if err := t.svc.Health(ctx); err != nil {
		return mcp.NewToolResultError(serviceFailure("health check", err)), nil
	}

	plan, err := t.svc.CreatePlan(ctx, remote.PlanRequest{
		ProjectInfo: remote.ProjectInfo{Path: root, Description: description},
		Preferences: prefs.Preferences,
	})
	if err != nil {
		return mcp.NewToolResultError(serviceFailure("plan creation", err)), nil
	}

	exec, err := t.svc.ExecutePlan(ctx, remote.ExecuteRequest{PlanID: plan.PlanID, Schema: schema})
	if err != nil {
		return mcp.NewToolResultError(serviceFailure("plan execution", err)), nil
	}

	if !applyToProject {
		return mcp.NewToolResultText(previewResponse(root, exec)), nil
	}

	opts := apply.Options{
		DefaultStrategy: merge.ParseStrategy(prefs.MergeStrategy),
		CorrectPaths:    prefs.RemoveProjectName,
	}
	result, err := t.engine.Apply(root, exec.GeneratedFiles, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("applying generated files: %v", err)), nil
	}

	t.recordHistory(root, result)

	return mcp.NewToolResultText(applyResponse(root, exec, result)), nil
}

// recordHistory is best-effort: a history failure never fails the tool.
func (t *GenerateTool) recordHistory(root string, result *apply.Result) {
	if t.hist == nil {
		return
	}
	if _, err := t.hist.Add(root, result.AppliedCount, len(result.Errors), result.AppliedPaths); err != nil {
		log.Printf("WARNING: recording apply history: %v", err)
	}
}

// serviceFailure formats a remote failure so the caller can tell a
// backend rejection apart from an unreachable backend.
func serviceFailure(phase string, err error) string {
	var se *remote.ServiceError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s failed: %v", phase, se)
	}
	return fmt.Sprintf("%s failed: %v\n\nCheck that the generation service is running and MCP_SERVER_URL points at it.", phase, err)
}

func previewResponse(root string, exec *remote.Execution) string {
	var sb strings.Builder
	sb.WriteString("# PostgreSQL Integration — Plan Preview\n\n")
	fmt.Fprintf(&sb, "**Project:** `%s`\n**Execution:** %s (%s)\n\n", root, exec.ExecutionID, exec.Status)
	if exec.Summary != "" {
		fmt.Fprintf(&sb, "%s\n\n", exec.Summary)
	}

	sb.WriteString("## Generated files (not applied)\n\n")
	for _, cat := range exec.GeneratedFiles {
		fmt.Fprintf(&sb, "**%s** (%d files)\n", cat.Name, len(cat.Files))
		for _, f := range cat.Files {
			fmt.Fprintf(&sb, "- `%s` (%s)\n", f.Path, f.Action)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Re-run with `applyToProject: true` to write these files.\n")
	writeValidation(&sb, exec.Validation)
	writeNextSteps(&sb, exec.PostExecutionSteps)
	return sb.String()
}

func applyResponse(root string, exec *remote.Execution, result *apply.Result) string {
	var sb strings.Builder
	sb.WriteString("# PostgreSQL Integration Applied\n\n")
	fmt.Fprintf(&sb, "**Project:** `%s`\n**Execution:** %s (%s)\n\n", root, exec.ExecutionID, exec.Status)
	if exec.Summary != "" {
		fmt.Fprintf(&sb, "%s\n\n", exec.Summary)
	}

	fmt.Fprintf(&sb, "## Result\n\n**Applied:** %d file(s)\n\n", result.AppliedCount)
	sb.WriteString(bulletListCode(result.AppliedPaths, "_no files written_"))
	sb.WriteString("\n")

	if len(result.Skipped) > 0 {
		fmt.Fprintf(&sb, "\n## Skipped (empty content)\n\n%s\n", bulletListCode(result.Skipped, ""))
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(&sb, "\n## Errors (%d)\n\n%s\n", len(result.Errors), bulletList(result.Errors, ""))
	}

	if len(result.Diffs) > 0 {
		sb.WriteString("\n## Merge previews\n")
		for _, path := range sortedKeys(result.Diffs) {
			fmt.Fprintf(&sb, "\n**%s**\n\n```diff\n%s\n```\n", path, truncate(result.Diffs[path], 1500))
		}
	}

	writeValidation(&sb, exec.Validation)
	writeNextSteps(&sb, exec.PostExecutionSteps)
	return sb.String()
}

func bulletListCode(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "`" + item + "`"
	}
	return bulletList(quoted, empty)
}

func writeValidation(sb *strings.Builder, v *remote.Validation) {
	if v == nil || (v.Status == "" && len(v.Issues) == 0) {
		return
	}
	fmt.Fprintf(sb, "\n## Validation\n\n**Status:** %s\n", v.Status)
	if len(v.Issues) > 0 {
		fmt.Fprintf(sb, "\n%s\n", bulletList(v.Issues, ""))
	}
}

func writeNextSteps(sb *strings.Builder, steps []string) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## Next steps\n\n%s\n", bulletList(steps, ""))
}
