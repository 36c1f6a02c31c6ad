package project

import (
	"path"
	"strings"
)

// sourceRoot is the conventional Maven/Gradle source prefix the
// correction heuristic anchors on.
const sourceRoot = "src/main/java/"

// CorrectPath strips a project-name segment that generation services
// sometimes insert between the base package and the rest of a source
// path (com/example/my_service/entity/User.java instead of
// com/example/entity/User.java), and rewrites matching package
// references inside the content.
//
// The segment immediately under the two-segment base package is treated
// as an inserted project name when it contains an underscore or is
// entirely lower-case. This is a heuristic, not a parse: conventional
// lower-case layer packages directly under the base can be false
// positives, which is the accepted trade-off for catching the common
// <groupId>_<artifactId> insertions.
//
// The returned bool reports whether a correction was applied.
func CorrectPath(filePath, content string) (string, string, bool) {
	normalized := strings.ReplaceAll(filePath, "\\", "/")

	idx := strings.Index(normalized, sourceRoot)
	if idx < 0 {
		return filePath, content, false
	}

	prefix := normalized[:idx+len(sourceRoot)]
	rest := normalized[idx+len(sourceRoot):]

	segments := strings.Split(rest, "/")
	// Need base (2) + candidate (1) + at least one more element.
	if len(segments) < 4 {
		return filePath, content, false
	}

	candidate := segments[2]
	if !looksLikeProjectName(candidate) {
		return filePath, content, false
	}

	base := segments[0] + "." + segments[1]
	correctedPath := prefix + path.Join(append(segments[:2:2], segments[3:]...)...)

	oldPkg := base + "." + candidate + "."
	newPkg := base + "."
	correctedContent := strings.ReplaceAll(content, oldPkg, newPkg)

	return correctedPath, correctedContent, true
}

// looksLikeProjectName implements the acceptance rule: underscore
// present, or entirely lower-case. Capitalized segments never trigger.
func looksLikeProjectName(segment string) bool {
	if segment == "" {
		return false
	}
	if strings.Contains(segment, "_") {
		return true
	}
	return segment == strings.ToLower(segment)
}
