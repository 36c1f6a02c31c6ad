// Package backup copies pre-existing files aside before the apply
// engine mutates them. Backups are best-effort: a failure is logged and
// never blocks the write that follows.
package backup

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manager writes timestamped copies of files into a backup directory
// under the project root.
type Manager struct {
	// Dir is the backup directory name (not a path) under the root.
	Dir string
	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a Manager using the given backup directory name.
func NewManager(dir string) *Manager {
	return &Manager{Dir: dir, now: time.Now}
}

// Backup copies the file at fullPath into <root>/<Dir>/ with a
// timestamped name. It is a no-op when the file does not exist, and
// best-effort otherwise: every failure path logs and returns the file
// name that would have been written (empty on skip/failure).
func (m *Manager) Backup(root, fullPath string) string {
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARNING: backup read %s: %v", fullPath, err)
		}
		return ""
	}

	backupDir := filepath.Join(root, m.Dir)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		log.Printf("WARNING: backup dir %s: %v — proceeding without backup", backupDir, err)
		return ""
	}

	name := backupName(filepath.Base(fullPath), m.now())
	target := filepath.Join(backupDir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		log.Printf("WARNING: backup write %s: %v — proceeding without backup", target, err)
		return ""
	}

	return target
}

// backupName builds "<basename>.backup.<timestamp>" where the timestamp
// is RFC 3339 with colons and dots replaced by dashes, so it is valid on
// every filesystem.
func backupName(base string, t time.Time) string {
	stamp := t.UTC().Format(time.RFC3339)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("%s.backup.%s", base, stamp)
}
