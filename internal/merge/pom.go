package merge

import (
	"strings"

	"github.com/beevik/etree"
)

// dependenciesClose is the insertion anchor in the existing POM. Using
// the first occurrence keeps new dependencies out of any
// <dependencyManagement> section further down.
const dependenciesClose = "</dependencies>"

// mergePOMDependencies lifts <dependency> blocks out of the incoming
// content and inserts them just before the existing POM's closing
// </dependencies> tag. The incoming side is parsed with etree so a full
// pom.xml, a <dependencies> fragment, or bare <dependency> elements all
// work; the existing side is edited textually so the user's formatting
// survives untouched.
//
// Reports false when the incoming content has no dependency blocks or
// the existing POM has no dependencies section.
func mergePOMDependencies(existing, incoming string) (string, bool) {
	deps := parseDependencies(incoming)
	if len(deps) == 0 {
		return "", false
	}

	idx := strings.Index(existing, dependenciesClose)
	if idx < 0 {
		return "", false
	}

	var block strings.Builder
	block.WriteString("\n        <!-- Added by PostgreSQL integration -->\n")
	for _, dep := range deps {
		block.WriteString(indentBlock(serializeElement(dep), "        "))
		block.WriteString("\n")
	}

	head := strings.TrimRight(existing[:idx], " \t")
	// Preserve the indentation the closing tag originally had.
	closeIndent := existing[len(head):idx]

	return head + block.String() + closeIndent + existing[idx:], true
}

// parseDependencies extracts every <dependency> element from the
// incoming content, tolerating fragments without a single root.
func parseDependencies(content string) []*etree.Element {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(content); err != nil {
		// Retry as a fragment wrapped in a synthetic root.
		doc = etree.NewDocument()
		if err := doc.ReadFromString("<fragment>" + content + "</fragment>"); err != nil {
			return nil
		}
	}
	return doc.FindElements("//dependency")
}

func serializeElement(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	doc.Indent(4)
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return strings.TrimRight(out, "\n")
}
