// Package prompts implements the MCP prompts exposed by the bridge.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the pg-integration-status MCP prompt.
// It instructs the AI to probe and present the project's integration state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("pg-integration-status",
		mcp.WithPromptDescription(
			"Check whether this Java project already has a PostgreSQL "+
				"integration and what is missing to complete it.",
		),
	)
}

// Handle processes the pg-integration-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "PostgreSQL Integration Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `get_postgresql_integration_status` on my project.\n\n" +
						"Then:\n" +
						"1. Show the component checklist in a clear, visual format\n" +
						"2. Point out which pieces are missing (driver, datasource config, entities, repositories, services, controllers)\n" +
						"3. If the project is not configured, propose a `generate_postgresql_integration` call with a sensible description and ask me for the SQL schema\n" +
						"4. If there is recent apply activity, summarize it briefly",
				),
			},
		},
	}, nil
}
