// Package merge reconciles generated file content into pre-existing
// files. Everything in this package is pure string transformation — no
// I/O — so every merge path is directly unit-testable.
package merge

import (
	"path/filepath"
	"strings"
)

// Strategy selects how new content is reconciled with existing content.
type Strategy string

const (
	// StrategySmart dispatches on file type: Java class-body merge, POM
	// dependency merge, commented append for config formats.
	StrategySmart Strategy = "smart"
	// StrategyAppend blindly appends the new content.
	StrategyAppend Strategy = "append"
	// StrategyReplace discards the existing content.
	StrategyReplace Strategy = "replace"
)

// ParseStrategy maps a user-supplied string onto a Strategy, defaulting
// to smart for anything unrecognized.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyAppend:
		return StrategyAppend
	case StrategyReplace:
		return StrategyReplace
	default:
		return StrategySmart
	}
}

// SourceMerger inserts generated members into an existing source file.
// The bool result reports whether the merge applied; false means the
// caller should fall back to a plain append. The production
// implementation is regex-based (see JavaMerger); the interface exists
// so a parser-backed implementation can replace it without touching the
// apply engine.
type SourceMerger interface {
	MergeSource(existing, incoming string) (string, bool)
}

// Merger produces the final content for a modified file.
type Merger struct {
	source SourceMerger
}

// New returns a Merger using the regex-based Java source merger.
func New() *Merger {
	return &Merger{source: JavaMerger{}}
}

// NewWithSource returns a Merger with a custom source merger.
func NewWithSource(sm SourceMerger) *Merger {
	return &Merger{source: sm}
}

// Merge combines existing and incoming content for filePath according
// to the strategy. It never fails: every unmergeable case degrades to
// an append with a marker comment.
func (m *Merger) Merge(existing, incoming, filePath string, strategy Strategy) string {
	switch strategy {
	case StrategyReplace:
		return incoming
	case StrategyAppend:
		return appendPlain(existing, incoming)
	default:
		return m.smartMerge(existing, incoming, filePath)
	}
}

func (m *Merger) smartMerge(existing, incoming, filePath string) string {
	base := strings.ToLower(filepath.Base(filePath))
	ext := strings.ToLower(filepath.Ext(filePath))

	switch {
	case ext == ".java":
		if merged, ok := m.source.MergeSource(existing, incoming); ok {
			return merged
		}
		return appendWithComment(existing, incoming, "// ==== Added by PostgreSQL integration ====")

	case base == "pom.xml":
		if merged, ok := mergePOMDependencies(existing, incoming); ok {
			return merged
		}
		return appendWithComment(existing, incoming, "<!-- Added by PostgreSQL integration -->")

	case ext == ".xml":
		return appendWithComment(existing, incoming, "<!-- Added by PostgreSQL integration -->")

	case ext == ".properties" || ext == ".yml" || ext == ".yaml" || ext == ".conf":
		// Key-level deduplication is intentionally not attempted:
		// duplicate keys after repeated merges are an accepted limitation.
		return appendWithComment(existing, incoming, "# Added by PostgreSQL integration")

	default:
		return appendPlain(existing, incoming)
	}
}

func appendPlain(existing, incoming string) string {
	return strings.TrimRight(existing, "\n") + "\n\n" + incoming
}

func appendWithComment(existing, incoming, comment string) string {
	return strings.TrimRight(existing, "\n") + "\n\n" + comment + "\n" + incoming
}
