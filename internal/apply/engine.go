// Package apply writes generated file changes into a project tree: path
// correction, containment checks, backup-before-mutate, and per-file
// merge dispatch. One Engine serves the whole process; the project root
// is an explicit parameter on every call, never stored.
package apply

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"pgbridge/internal/backup"
	"pgbridge/internal/merge"
	"pgbridge/internal/project"
)

// Options carries the per-call preferences of one apply invocation.
type Options struct {
	// DefaultStrategy is used when a descriptor has no mergeStrategy.
	DefaultStrategy merge.Strategy
	// CorrectPaths enables the package-path correction heuristic
	// (preferences.removeProjectNameFromPath, default true).
	CorrectPaths bool
}

// DefaultOptions matches the documented preference defaults.
func DefaultOptions() Options {
	return Options{DefaultStrategy: merge.StrategySmart, CorrectPaths: true}
}

// Engine applies ordered categories of file changes under a project root.
type Engine struct {
	merger     *merge.Merger
	backups    *backup.Manager
	autoBackup bool
}

// New creates an Engine. The backup manager is only consulted when
// autoBackup is on.
func New(m *merge.Merger, b *backup.Manager, autoBackup bool) *Engine {
	return &Engine{merger: m, backups: b, autoBackup: autoBackup}
}

// Apply runs the per-file pipeline over every category in order and
// returns the aggregated result. It returns an error only for
// precondition violations; every per-file failure is isolated into
// Result.Errors and the batch continues.
func (e *Engine) Apply(root string, categories []Category, opts Options) (*Result, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	root = filepath.Clean(root)

	result := &Result{
		AppliedPaths: []string{},
		Errors:       []string{},
		Diffs:        map[string]string{},
	}

	for _, cat := range categories {
		for _, fc := range cat.Files {
			applied, diff, skipped, err := e.applyOne(root, fc, opts)
			switch {
			case err != nil:
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", fc.Path, err))
			case skipped:
				result.Skipped = append(result.Skipped, fc.Path)
				log.Printf("WARNING: skipping %s: descriptor has no content", fc.Path)
			default:
				result.AppliedCount++
				result.AppliedPaths = append(result.AppliedPaths, applied)
				if diff != "" {
					result.Diffs[applied] = diff
				}
			}
		}
	}

	return result, nil
}

// applyOne executes the pipeline for a single descriptor. The returned
// path is the (possibly corrected) relative path that was written.
func (e *Engine) applyOne(root string, fc FileChange, opts Options) (applied, diff string, skipped bool, err error) {
	relPath, content := fc.Path, fc.Content
	if opts.CorrectPaths {
		relPath, content, _ = project.CorrectPath(relPath, content)
	}

	target, err := containedPath(root, relPath)
	if err != nil {
		return "", "", false, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", "", false, fmt.Errorf("creating parent directory: %w", err)
	}

	if strings.TrimSpace(content) == "" {
		return "", "", true, nil
	}

	if e.autoBackup {
		e.backups.Backup(root, target)
	}

	switch fc.Action {
	case ActionCreate:
		err = os.WriteFile(target, []byte(content), 0o644)

	case ActionAppend:
		err = appendFile(target, content)

	case ActionModify:
		diff, err = e.modifyFile(target, relPath, content, fc.MergeStrategy, opts)

	default:
		err = fmt.Errorf("unknown action %q", fc.Action)
	}
	if err != nil {
		return "", "", false, err
	}

	return relPath, diff, false, nil
}

// modifyFile merges new content into an existing file, or creates it
// when the target does not exist yet. Returns a unified-diff preview of
// the change for merged files.
func (e *Engine) modifyFile(target, relPath, content, strategy string, opts Options) (string, error) {
	existing, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", os.WriteFile(target, []byte(content), 0o644)
		}
		return "", fmt.Errorf("reading existing file: %w", err)
	}

	st := opts.DefaultStrategy
	if strings.TrimSpace(strategy) != "" {
		st = merge.ParseStrategy(strategy)
	}

	merged := e.merger.Merge(string(existing), content, relPath, st)
	if err := os.WriteFile(target, []byte(merged), 0o644); err != nil {
		return "", err
	}

	return unifiedDiff(string(existing), merged, relPath), nil
}

func appendFile(target, content string) error {
	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if info, err := f.Stat(); err == nil && info.Size() > 0 && !strings.HasPrefix(content, "\n") {
		content = "\n" + content
	}
	_, err = f.WriteString(content)
	return err
}

// containedPath resolves relPath against root and enforces the
// containment invariant: the cleaned target must still be under root.
func containedPath(root, relPath string) (string, error) {
	target := relPath
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, relPath)
	}
	target = filepath.Clean(target)

	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", &SecurityViolationError{Path: relPath}
	}
	return target, nil
}

// checkRoot enforces the apply preconditions: a set, existing, writable
// directory.
func checkRoot(root string) error {
	if strings.TrimSpace(root) == "" {
		return &PreconditionError{Reason: "project root is not set"}
	}
	info, err := os.Stat(root)
	if err != nil {
		return &PreconditionError{Reason: fmt.Sprintf("project root %q: %v", root, err)}
	}
	if !info.IsDir() {
		return &PreconditionError{Reason: fmt.Sprintf("project root %q is not a directory", root)}
	}

	probe, err := os.CreateTemp(root, ".pgbridge-write-check-*")
	if err != nil {
		return &PreconditionError{Reason: fmt.Sprintf("project root %q is not writable: %v", root, err)}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return nil
}

func unifiedDiff(before, after, path string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path + " (before)",
		ToFile:   path + " (after)",
		Context:  2,
	})
	if err != nil {
		return ""
	}
	return text
}
