package merge

import (
	"regexp"
	"strings"
)

// layerMarkers identify an existing class as a controller or service —
// the only class shapes the generated members are meant to land in.
var layerMarkers = []string{"@RestController", "@Controller", "@Service"}

var (
	importRe  = regexp.MustCompile(`(?m)^import\s+(?:static\s+)?[\w.*]+\s*;\s*$`)
	packageRe = regexp.MustCompile(`(?m)^package\s+[\w.]+\s*;\s*$`)

	// methodStartRe matches the start of a top-level member declaration
	// up to its opening brace. The body is then taken by brace counting
	// — a heuristic, not a parse: braces inside string literals or
	// comments can throw the count off, and callers fall back to a plain
	// append when anything looks wrong.
	methodStartRe = regexp.MustCompile(`(?m)^[ \t]*(?:public|private|protected)\b[^;{}]*\{`)
)

// JavaMerger is the regex-based SourceMerger for Java files.
type JavaMerger struct{}

// MergeSource inserts the incoming file's method bodies into the
// existing class and merges the two import lists. It applies only when
// the existing file is recognizably a controller or service class and
// both sides can be split heuristically; otherwise it reports false.
func (JavaMerger) MergeSource(existing, incoming string) (string, bool) {
	if !hasLayerMarker(existing) {
		return "", false
	}

	methods := extractMethods(incoming)
	if len(methods) == 0 {
		return "", false
	}

	closeIdx := strings.LastIndex(existing, "}")
	if closeIdx < 0 {
		return "", false
	}

	imports := mergeImports(extractImports(existing), extractImports(incoming))
	body := rewriteImports(existing, imports)

	// rewriteImports only changes the import block, so the final closing
	// brace moves by the block's size delta.
	closeIdx = strings.LastIndex(body, "}")
	if closeIdx < 0 {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(body[:closeIdx], " \t\n"))
	sb.WriteString("\n\n    // ==== Added by PostgreSQL integration ====\n")
	for i, m := range methods {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(indentBlock(m, "    "))
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	sb.WriteString(body[closeIdx+1:])

	return sb.String(), true
}

func hasLayerMarker(src string) bool {
	for _, m := range layerMarkers {
		if strings.Contains(src, m) {
			return true
		}
	}
	return false
}

// extractMethods pulls top-level method blocks (signature plus
// brace-balanced body) out of a generated source file. Type
// declarations (class/interface/enum/record) are skipped so a complete
// generated class contributes only its members.
func extractMethods(src string) []string {
	var methods []string

	for _, loc := range methodStartRe.FindAllStringIndex(src, -1) {
		sig := src[loc[0]:loc[1]]
		if isTypeDeclaration(sig) {
			continue
		}

		end, ok := matchBrace(src, loc[1]-1)
		if !ok {
			continue
		}
		start := annotationStart(src, loc[0])
		methods = append(methods, strings.TrimSpace(src[start:end+1]))
	}

	return methods
}

// annotationStart walks backwards over contiguous annotation lines so
// @Transactional and friends travel with the method they decorate.
func annotationStart(src string, start int) int {
	for start > 0 && src[start-1] == '\n' {
		prevStart := strings.LastIndexByte(src[:start-1], '\n') + 1
		line := strings.TrimSpace(src[prevStart : start-1])
		if !strings.HasPrefix(line, "@") {
			break
		}
		start = prevStart
	}
	return start
}

func isTypeDeclaration(sig string) bool {
	for _, kw := range []string{" class ", " interface ", " enum ", " record "} {
		if strings.Contains(sig, kw) {
			return true
		}
	}
	return false
}

// matchBrace returns the index of the brace closing the one at open.
// Purely lexical: it does not understand strings or comments.
func matchBrace(src string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func extractImports(src string) []string {
	raw := importRe.FindAllString(src, -1)
	imports := make([]string, 0, len(raw))
	for _, imp := range raw {
		imports = append(imports, strings.TrimSpace(imp))
	}
	return imports
}

// mergeImports combines the two lists keeping insertion order: all of
// the existing file's imports first, then any new ones not yet present.
func mergeImports(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, imp := range append(append([]string{}, existing...), incoming...) {
		if !seen[imp] {
			seen[imp] = true
			merged = append(merged, imp)
		}
	}
	return merged
}

// rewriteImports strips the existing import block and re-emits the
// merged list immediately after the package declaration (or at the top
// of the file when there is none).
func rewriteImports(src string, imports []string) string {
	stripped := importRe.ReplaceAllString(src, "")
	stripped = collapseBlankLines(stripped)

	block := strings.Join(imports, "\n")

	if loc := packageRe.FindStringIndex(stripped); loc != nil {
		return stripped[:loc[1]] + "\n\n" + block + "\n" + stripped[loc[1]:]
	}
	return block + "\n\n" + stripped
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

func collapseBlankLines(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}

// indentBlock re-indents an extracted method to sit one level inside
// the target class: the block is dedented by its common leading
// whitespace, then every non-blank line gets the prefix.
func indentBlock(block, prefix string) string {
	lines := strings.Split(block, "\n")

	common := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || indent < common {
			common = indent
		}
	}
	if common < 0 {
		common = 0
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		if i > 0 && len(line) >= common {
			line = line[common:]
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
