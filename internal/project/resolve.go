// Package project locates the project root that file operations are
// scoped to, and applies the package-path correction heuristic to
// generated source files.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// markers identify a Java project root during discovery. The first
// directory (current or ancestor) containing any of them wins.
var markers = []string{
	"pom.xml",
	"build.gradle",
	"build.gradle.kts",
	filepath.Join("src", "main", "java"),
}

// maxParentLevels bounds the upward marker walk.
const maxParentLevels = 5

// Context carries the process-level information Resolve needs: the
// process working directory and, when the IDE exposes it, the workspace
// directory the user actually has open.
type Context struct {
	Cwd          string
	WorkspaceDir string
}

// DefaultContext builds a Context from the running process. The IDE
// workspace directory comes from WORKSPACE_FOLDER_PATHS, which VS Code
// style hosts set when launching MCP servers.
func DefaultContext() Context {
	cwd, _ := os.Getwd()
	ws := strings.TrimSpace(os.Getenv("WORKSPACE_FOLDER_PATHS"))
	// Hosts may pass multiple workspace folders; the first one is the
	// primary workspace.
	if i := strings.IndexAny(ws, ",;"); i >= 0 {
		ws = strings.TrimSpace(ws[:i])
	}
	return Context{Cwd: cwd, WorkspaceDir: ws}
}

// InvalidPathError reports a nominal project path that resolved to
// something unusable. It is a per-call failure, surfaced to the tool
// caller as a structured error.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid project path %q: %s", e.Path, e.Reason)
}

// Resolve normalizes a nominal project path into an absolute, verified
// project root.
//
// Resolution order:
//  1. An absolute nominal path is used directly.
//  2. When the IDE workspace directory is known and differs from the
//     process cwd, it wins (joined with the nominal path unless that is
//     "." or empty). MCP hosts frequently spawn servers with a cwd far
//     away from the project being edited.
//  3. Marker-based discovery from the cwd, walking up to five parents.
//  4. The cwd itself.
//
// The result must exist and be a directory, otherwise *InvalidPathError.
func Resolve(nominal string, pctx Context) (string, error) {
	root := resolveCandidate(nominal, pctx)

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &InvalidPathError{Path: nominal, Reason: err.Error()}
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &InvalidPathError{Path: abs, Reason: "does not exist"}
		}
		return "", &InvalidPathError{Path: abs, Reason: err.Error()}
	}
	if !info.IsDir() {
		return "", &InvalidPathError{Path: abs, Reason: "not a directory"}
	}

	return abs, nil
}

func resolveCandidate(nominal string, pctx Context) string {
	if filepath.IsAbs(nominal) {
		return nominal
	}

	if pctx.WorkspaceDir != "" && pctx.WorkspaceDir != pctx.Cwd {
		if nominal == "" || nominal == "." {
			return pctx.WorkspaceDir
		}
		return filepath.Join(pctx.WorkspaceDir, nominal)
	}

	start := pctx.Cwd
	if nominal != "" && nominal != "." {
		start = filepath.Join(pctx.Cwd, nominal)
	}

	if root, ok := findMarkerRoot(start); ok {
		return root
	}
	return start
}

// findMarkerRoot checks dir and up to maxParentLevels ancestors for a
// project marker, stopping at the first hit or the filesystem root.
func findMarkerRoot(dir string) (string, bool) {
	current := dir
	for level := 0; level <= maxParentLevels; level++ {
		if hasMarker(current) {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return "", false
}

func hasMarker(dir string) bool {
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
			return true
		}
	}
	return false
}
