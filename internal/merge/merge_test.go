package merge

import (
	"strings"
	"testing"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"smart", StrategySmart},
		{"append", StrategyAppend},
		{"replace", StrategyReplace},
		{"REPLACE", StrategyReplace},
		{"  append ", StrategyAppend},
		{"", StrategySmart},
		{"bogus", StrategySmart},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseStrategy(tt.in); got != tt.want {
				t.Errorf("ParseStrategy(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestMerge_ReplaceReturnsIncomingVerbatim(t *testing.T) {
	m := New()
	got := m.Merge("old content", "new content", "any.txt", StrategyReplace)
	if got != "new content" {
		t.Errorf("replace = %q", got)
	}
}

func TestMerge_ReplaceIsIdempotent(t *testing.T) {
	m := New()
	first := m.Merge("old", "new", "User.java", StrategyReplace)
	second := m.Merge(first, "new", "User.java", StrategyReplace)
	if first != second {
		t.Errorf("replace not idempotent: %q vs %q", first, second)
	}
}

func TestMerge_AppendJoinsWithSeparator(t *testing.T) {
	m := New()
	got := m.Merge("a=1\n", "b=2", "app.properties", StrategyAppend)
	if got != "a=1\n\nb=2" {
		t.Errorf("append = %q", got)
	}
}

func TestMerge_SmartPropertiesAppendsWithComment(t *testing.T) {
	m := New()
	got := m.Merge("a=1", "spring.datasource.url=jdbc:postgresql://localhost/db", "application.properties", StrategySmart)

	if !strings.Contains(got, "# Added by PostgreSQL integration") {
		t.Errorf("missing comment marker:\n%s", got)
	}
	if !strings.HasPrefix(got, "a=1") {
		t.Errorf("existing content not preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, "spring.datasource.url=jdbc:postgresql://localhost/db") {
		t.Errorf("new content not appended:\n%s", got)
	}
}

func TestMerge_SmartYAMLAppendsWithComment(t *testing.T) {
	m := New()
	got := m.Merge("server:\n  port: 8080\n", "spring:\n  datasource:\n    url: jdbc:postgresql://localhost/db\n", "application.yml", StrategySmart)
	if !strings.Contains(got, "# Added by PostgreSQL integration") {
		t.Errorf("missing comment marker:\n%s", got)
	}
}

func TestMerge_SmartPlainXMLAppendsWithXMLComment(t *testing.T) {
	m := New()
	got := m.Merge("<beans></beans>", "<bean id=\"ds\"/>", "context.xml", StrategySmart)
	if !strings.Contains(got, "<!-- Added by PostgreSQL integration -->") {
		t.Errorf("missing XML comment marker:\n%s", got)
	}
}

func TestMerge_SmartUnknownExtensionPlainAppend(t *testing.T) {
	m := New()
	got := m.Merge("hello", "world", "notes.adoc", StrategySmart)
	if got != "hello\n\nworld" {
		t.Errorf("unknown ext merge = %q", got)
	}
	if strings.Contains(got, "Added by PostgreSQL integration") {
		t.Error("unknown extensions should not get a comment marker")
	}
}

// stubSource forces the source-merge outcome so dispatch can be tested
// independently of the Java heuristics.
type stubSource struct {
	out string
	ok  bool
}

func (s stubSource) MergeSource(existing, incoming string) (string, bool) {
	return s.out, s.ok
}

func TestMerge_SmartJavaUsesSourceMerger(t *testing.T) {
	m := NewWithSource(stubSource{out: "merged!", ok: true})
	got := m.Merge("class A {}", "class B {}", "A.java", StrategySmart)
	if got != "merged!" {
		t.Errorf("got %q, want source merger output", got)
	}
}

func TestMerge_SmartJavaFallsBackToCommentedAppend(t *testing.T) {
	m := NewWithSource(stubSource{ok: false})
	got := m.Merge("class A {}", "class B {}", "A.java", StrategySmart)
	if !strings.Contains(got, "// ==== Added by PostgreSQL integration ====") {
		t.Errorf("fallback should carry the comment marker:\n%s", got)
	}
	if !strings.Contains(got, "class A {}") || !strings.Contains(got, "class B {}") {
		t.Errorf("fallback should keep both sides:\n%s", got)
	}
}
