// Package config loads runtime settings for the bridge from the
// environment, with an optional .env file for local development.
//
// All settings are read once at startup and passed into the components
// that need them — nothing here is mutable after Load returns.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultServerURL = "http://localhost:3001"
	DefaultTimeout   = 30 * time.Second
	DefaultBackupDir = ".mcp-backups"
)

// LogLevel controls how chatty the bridge is on stderr.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

// Settings holds every knob the bridge recognizes. One instance is built
// at startup and injected into the server, remote client, and apply engine.
type Settings struct {
	// ServerURL is the base URL of the remote generation service.
	ServerURL string
	// Timeout bounds each outbound HTTP request. It does not apply to
	// the local file-application phase.
	Timeout time.Duration
	// AutoBackup enables backup-before-mutate for pre-existing files.
	AutoBackup bool
	// BackupDir is the backup directory name under the project root.
	BackupDir string
	// Level is the log verbosity.
	Level LogLevel
}

// Load builds Settings from the environment. A .env file in the current
// directory is honored when present; a missing .env is not an error.
//
// Recognized variables:
//
//	MCP_SERVER_URL  base URL of the generation service
//	MCP_TIMEOUT     request timeout in seconds
//	AUTO_BACKUP     "true"/"false" (default true)
//	BACKUP_DIR      backup directory name (default .mcp-backups)
//	LOG_LEVEL       debug | info | error (default info)
func Load() Settings {
	_ = godotenv.Load()

	return Settings{
		ServerURL:  envString("MCP_SERVER_URL", DefaultServerURL),
		Timeout:    envSeconds("MCP_TIMEOUT", DefaultTimeout),
		AutoBackup: envBool("AUTO_BACKUP", true),
		BackupDir:  envString("BACKUP_DIR", DefaultBackupDir),
		Level:      parseLevel(envString("LOG_LEVEL", "info")),
	}
}

// Debugf logs a formatted message to stderr when the level is debug.
// All logging goes to stderr — stdout belongs to the stdio transport.
func (s Settings) Debugf(format string, args ...any) {
	if s.Level == LogLevelDebug {
		log.Printf("DEBUG: "+format, args...)
	}
}

// Validate reports obviously broken settings (empty URL, non-positive
// timeout). It is called once by the server at startup.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.ServerURL) == "" {
		return fmt.Errorf("config: server URL is empty")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", s.Timeout)
	}
	if s.BackupDir == "" || strings.ContainsAny(s.BackupDir, "/\\") {
		return fmt.Errorf("config: backup dir must be a bare directory name, got %q", s.BackupDir)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("WARNING: ignoring invalid %s=%q", key, v)
		return fallback
	}
	return time.Duration(n) * time.Second
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return fallback
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		log.Printf("WARNING: ignoring invalid %s=%q", key, v)
		return fallback
	}
}

func parseLevel(v string) LogLevel {
	switch LogLevel(strings.ToLower(v)) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
