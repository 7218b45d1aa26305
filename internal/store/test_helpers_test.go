package store

import (
	"context"
	"path/filepath"
	"testing"
)

// testScope is the project and actor every repository test runs as.
var testScope = Scope{ProjectID: "proj-1", ActorID: "alice"}

// createTestStore creates a new store in a temp directory with testScope's
// project bootstrapped.
func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.EnsureProject(context.Background(), testScope.ProjectID, testScope.ActorID); err != nil {
		t.Fatalf("EnsureProject() failed: %v", err)
	}
	return s
}

// createTestTable creates a table with the given TEXT columns.
func createTestTable(t *testing.T, s *SQLiteStore, name string, columns ...string) Table {
	t.Helper()
	cols := make([]Column, len(columns))
	for i, c := range columns {
		cols[i] = Column{Name: c, Type: TypeText, Nullable: true}
	}
	table, err := s.CreateTable(context.Background(), testScope, name, cols)
	if err != nil {
		t.Fatalf("CreateTable(%q) failed: %v", name, err)
	}
	return table
}
