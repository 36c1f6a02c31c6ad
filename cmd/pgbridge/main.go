// pgbridge: PostgreSQL Integration MCP Server
//
// A local MCP server (stdio transport) that connects AI coding tools to
// a remote generation service and applies the generated PostgreSQL
// integration files into a Java project with smart merging and backups.
//
// Usage:
//
//	pgbridge serve    # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pgserver "pgbridge/internal/server"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("pgbridge v%s\n", pgserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := pgserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `pgbridge v%s — PostgreSQL Integration MCP Server

Usage:
  pgbridge serve    Start the MCP server (stdio transport)

Configuration (environment, .env supported):
  MCP_SERVER_URL   Generation service base URL (default http://localhost:3001)
  MCP_TIMEOUT      Request timeout in seconds (default 30)
  AUTO_BACKUP      Back up files before modifying them (default true)
  BACKUP_DIR       Backup directory name under the project (default .mcp-backups)
  LOG_LEVEL        debug | info | error (default info)

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "pgbridge": {
        "command": "pgbridge",
        "args": ["serve"]
      }
    }
  }
`, pgserver.Version)
}
