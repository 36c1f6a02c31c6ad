package history

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddAndRecent(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Add("/work/demo", 3, 1, []string{"a.java", "b.java", "pom.xml"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("id = %d, want positive", id)
	}

	records, err := s.Recent("/work/demo", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.AppliedCount != 3 || r.ErrorCount != 1 {
		t.Errorf("counts = %d/%d, want 3/1", r.AppliedCount, r.ErrorCount)
	}
	if len(r.AppliedPaths) != 3 || r.AppliedPaths[2] != "pom.xml" {
		t.Errorf("AppliedPaths = %v", r.AppliedPaths)
	}
	if r.CreatedAt == "" {
		t.Error("CreatedAt should be set")
	}
}

func TestRecent_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	records, err := s.Recent("/nowhere", 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestRecent_ScopedByProject(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Add("/work/a", 1, 0, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add("/work/b", 2, 0, []string{"y"}); err != nil {
		t.Fatal(err)
	}

	records, err := s.Recent("/work/a", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ProjectRoot != "/work/a" {
		t.Errorf("records = %+v", records)
	}
}

func TestRecent_RespectsLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 8; i++ {
		if _, err := s.Add("/work/demo", i, 0, nil); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.Recent("/work/demo", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
	// Newest first: the last insert has the highest applied count.
	if records[0].AppliedCount != 7 {
		t.Errorf("first record AppliedCount = %d, want 7", records[0].AppliedCount)
	}
}
