package apply

import "fmt"

// Action says what to do with a generated file.
type Action string

const (
	ActionCreate Action = "create"
	ActionModify Action = "modify"
	ActionAppend Action = "append"
)

// FileChange is one generated-file descriptor from the generation
// service. Descriptors are immutable inputs, consumed exactly once per
// apply call.
type FileChange struct {
	Path          string `json:"path"`
	Action        Action `json:"action"`
	Content       string `json:"content,omitempty"`
	MergeStrategy string `json:"mergeStrategy,omitempty"`
}

// Category is a named, ordered group of file changes ("entities",
// "repositories", ...).
type Category struct {
	Name  string       `json:"category"`
	Files []FileChange `json:"files"`
}

// Result aggregates one apply call. Per-file failures land in Errors;
// they never abort the batch.
type Result struct {
	AppliedCount int      `json:"appliedCount"`
	AppliedPaths []string `json:"appliedPaths"`
	Errors       []string `json:"errors"`
	// Skipped lists descriptors dropped for having no content. A skip
	// is a warning, not an error.
	Skipped []string `json:"skipped,omitempty"`
	// Diffs holds unified-diff previews of merged modifications, keyed
	// by applied path.
	Diffs map[string]string `json:"-"`
}

// PreconditionError means the apply call could not start at all: the
// project root was unset, missing, not a directory, or not writable.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("apply precondition failed: %s", e.Reason)
}

// SecurityViolationError means a descriptor's path would escape the
// project root. It is fatal to that single file only.
type SecurityViolationError struct {
	Path string
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("security violation: %q resolves outside the project root", e.Path)
}
