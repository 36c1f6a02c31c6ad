// Package resources implements MCP resource handlers for the bridge.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (pgbridge://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pgbridge/internal/project"
	"pgbridge/internal/status"
)

// Handler manages bridge resource endpoints.
type Handler struct {
	ctxFn func() project.Context
}

// NewHandler creates a resource Handler.
func NewHandler() *Handler {
	return &Handler{ctxFn: project.DefaultContext}
}

// StatusResource returns the MCP resource definition for integration status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"pgbridge://integration/status",
		"PostgreSQL Integration Status",
		mcp.WithResourceDescription("Detected PostgreSQL integration components in the current project"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current integration status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	root, err := project.Resolve(".", h.ctxFn())
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	st := status.Check(root)
	payload := struct {
		ProjectRoot string `json:"projectRoot"`
		status.Status
	}{ProjectRoot: root, Status: st}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
