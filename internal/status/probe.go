// Package status inspects a project tree, read-only, for markers of an
// existing PostgreSQL integration. Every missing or unreadable input
// degrades to "not present" — a probe never fails because the project
// is incomplete.
package status

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Components reports which integration pieces were found.
type Components struct {
	Dependencies  bool `json:"dependencies"`
	Configuration bool `json:"configuration"`
	Entities      bool `json:"entities"`
	Repositories  bool `json:"repositories"`
	Services      bool `json:"services"`
	Controllers   bool `json:"controllers"`
}

// Status is the result of one probe call. It is recomputed on every
// call, never cached.
type Status struct {
	Configured bool       `json:"configured"`
	Components Components `json:"components"`
}

// sourcePrefixBytes bounds how much of each source file is read when
// scanning for annotation markers. The markers sit near the top of the
// file, so a prefix is enough.
const sourcePrefixBytes = 8 * 1024

// Check scans the project root and reports integration status.
func Check(root string) Status {
	var s Status

	s.Components.Dependencies = hasPostgresDependency(root)
	s.Components.Configuration = hasDatasourceConfig(root)
	scanSources(root, &s.Components)

	s.Configured = s.Components.Dependencies && s.Components.Configuration
	return s
}

// hasPostgresDependency looks for the PostgreSQL driver in the build
// manifest (pom.xml or Gradle build files).
func hasPostgresDependency(root string) bool {
	for _, manifest := range []string{"pom.xml", "build.gradle", "build.gradle.kts"} {
		data, err := os.ReadFile(filepath.Join(root, manifest))
		if err != nil {
			continue
		}
		if strings.Contains(string(data), "postgresql") {
			return true
		}
	}
	return false
}

// hasDatasourceConfig checks application.properties for a
// spring.datasource key and application.yml/.yaml for the equivalent
// nested keys.
func hasDatasourceConfig(root string) bool {
	propsPath := filepath.Join(root, "src", "main", "resources", "application.properties")
	if data, err := os.ReadFile(propsPath); err == nil {
		if strings.Contains(string(data), "spring.datasource") {
			return true
		}
	}

	for _, name := range []string{"application.yml", "application.yaml"} {
		if yamlHasDatasource(filepath.Join(root, "src", "main", "resources", name)) {
			return true
		}
	}
	return false
}

func yamlHasDatasource(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// Unparseable YAML still counts when the key text is present —
		// the probe is a marker scan, not a validator.
		return strings.Contains(string(data), "datasource")
	}

	spring, ok := doc["spring"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = spring["datasource"]
	return ok
}

// annotationMarkers maps component fields to the source markers that
// set them.
var annotationMarkers = []struct {
	markers []string
	set     func(*Components)
}{
	{[]string{"@Entity"}, func(c *Components) { c.Entities = true }},
	{[]string{"@Repository", "extends JpaRepository"}, func(c *Components) { c.Repositories = true }},
	{[]string{"@Service"}, func(c *Components) { c.Services = true }},
	{[]string{"@RestController", "@Controller"}, func(c *Components) { c.Controllers = true }},
}

// scanSources walks every Java file under src/main/java reading a
// bounded prefix of each and testing for annotation markers. Unreadable
// files and subtrees simply contribute nothing.
func scanSources(root string, c *Components) {
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, "src/main/java/**/*.java")
	if err != nil {
		return
	}

	for _, match := range matches {
		prefix, err := readPrefix(fsys, match)
		if err != nil {
			continue
		}
		for _, am := range annotationMarkers {
			for _, marker := range am.markers {
				if strings.Contains(prefix, marker) {
					am.set(c)
					break
				}
			}
		}
		if c.Entities && c.Repositories && c.Services && c.Controllers {
			return
		}
	}
}

func readPrefix(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, sourcePrefixBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
