// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it loads configuration, creates concrete
// implementations, and injects them into the tools/prompts/resources.
// No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"pgbridge/internal/apply"
	"pgbridge/internal/backup"
	"pgbridge/internal/config"
	"pgbridge/internal/history"
	"pgbridge/internal/merge"
	"pgbridge/internal/prompts"
	"pgbridge/internal/remote"
	"pgbridge/internal/resources"
	"pgbridge/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the history store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if history init failed.
func New() (*server.MCPServer, func(), error) {
	settings := config.Load()
	if err := settings.Validate(); err != nil {
		return nil, noop, err
	}
	settings.Debugf("settings: server=%s timeout=%s autoBackup=%v backupDir=%s",
		settings.ServerURL, settings.Timeout, settings.AutoBackup, settings.BackupDir)

	// --- Create shared dependencies ---

	client := remote.NewClient(settings.ServerURL, settings.Timeout)
	engine := apply.New(merge.New(), backup.NewManager(settings.BackupDir), settings.AutoBackup)

	// History is an independent subsystem: if it fails to initialize,
	// the tools continue working without it. We log a warning and pass
	// a nil store — every consumer is nil-safe.
	cleanup := noop
	hist, histErr := history.New(history.DefaultConfig())
	if histErr != nil {
		log.Printf("WARNING: apply history disabled: %v", histErr)
		hist = nil
	} else {
		cleanup = func() {
			if err := hist.Close(); err != nil {
				log.Printf("WARNING: history store close: %v", err)
			}
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"pgbridge",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	generateTool := tools.NewGenerateTool(client, engine, hist)
	s.AddTool(generateTool.Definition(), generateTool.Handle)

	statusTool := tools.NewStatusTool(hist)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	// --- Register prompts ---

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler()
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when history
// is disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the bridge effectively.
func serverInstructions() string {
	return fmt.Sprintf(`You have access to pgbridge, a PostgreSQL integration MCP server
for Java/Spring projects.

## Tools

- generate_postgresql_integration: generates a complete PostgreSQL
  integration (entities, repositories, services, controllers,
  configuration) from a natural-language description and an SQL schema,
  then applies the files into the project with smart merging. Existing
  files are backed up under %s/ before they are modified.
- get_postgresql_integration_status: read-only check of what integration
  pieces the project already has.

## When to use them

- The user asks to add PostgreSQL, a database layer, or JPA persistence
  to a Java project: call get_postgresql_integration_status first, then
  propose generate_postgresql_integration.
- ALWAYS collect a real SQL schema (CREATE TABLE statements) from the
  user before calling the generate tool — never invent tables.
- Pass applyToProject: false when the user wants to review the plan
  before any files are written.

## Preferences

The generate tool accepts a preferences object:
- useLombok, includeValidation: booleans
- namingStrategy: snake_case | camelCase
- mergeStrategy: smart | append | replace (smart is the default and
  merges generated methods into existing Java classes)
- removeProjectNameFromPath: strips a duplicated project-name segment
  from generated paths (default true)

## Failure modes

- "cannot reach generation service": the backend is down or
  MCP_SERVER_URL is wrong — tell the user to check the service.
- Per-file errors in the result: the remaining files were still
  applied; report the failed ones individually.`, config.DefaultBackupDir)
}
