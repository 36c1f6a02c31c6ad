package tools

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"pgbridge/internal/history"
	"pgbridge/internal/project"
	"pgbridge/internal/status"
)

// StatusTool handles get_postgresql_integration_status: a read-only
// scan of the project for existing integration markers, plus recent
// apply history when the history store is available.
type StatusTool struct {
	hist  *history.Store // nil when history is disabled
	ctxFn func() project.Context
}

// NewStatusTool creates a StatusTool. hist may be nil.
func NewStatusTool(hist *history.Store) *StatusTool {
	return &StatusTool{hist: hist, ctxFn: project.DefaultContext}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("get_postgresql_integration_status",
		mcp.WithDescription(
			"Check whether a Java project already has a PostgreSQL integration: "+
				"driver dependency, datasource configuration, and JPA entities, "+
				"repositories, services, and controllers. Read-only.",
		),
		mcp.WithString("projectPath",
			mcp.Description("Project directory. Absolute, or relative to the workspace; defaults to auto-detection."),
		),
	)
}

// Handle processes one get_postgresql_integration_status call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := project.Resolve(req.GetString("projectPath", "."), t.ctxFn())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st := status.Check(root)

	var sb strings.Builder
	sb.WriteString("# PostgreSQL Integration Status\n\n")
	fmt.Fprintf(&sb, "**Project:** `%s`\n**Configured:** %s\n\n", root, checkbox(st.Configured))

	sb.WriteString("## Components\n\n")
	fmt.Fprintf(&sb, "- %s PostgreSQL driver dependency\n", checkbox(st.Components.Dependencies))
	fmt.Fprintf(&sb, "- %s Datasource configuration\n", checkbox(st.Components.Configuration))
	fmt.Fprintf(&sb, "- %s Entities\n", checkbox(st.Components.Entities))
	fmt.Fprintf(&sb, "- %s Repositories\n", checkbox(st.Components.Repositories))
	fmt.Fprintf(&sb, "- %s Services\n", checkbox(st.Components.Services))
	fmt.Fprintf(&sb, "- %s Controllers\n", checkbox(st.Components.Controllers))

	t.writeHistory(&sb, root)

	if !st.Configured {
		sb.WriteString("\nUse `generate_postgresql_integration` with a description and schema to set up the integration.\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (t *StatusTool) writeHistory(sb *strings.Builder, root string) {
	if t.hist == nil {
		return
	}
	records, err := t.hist.Recent(root, 5)
	if err != nil {
		log.Printf("WARNING: reading apply history: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	sb.WriteString("\n## Recent activity\n\n")
	for _, r := range records {
		fmt.Fprintf(sb, "- %s — applied %d file(s), %d error(s)\n", r.CreatedAt, r.AppliedCount, r.ErrorCount)
	}
}
