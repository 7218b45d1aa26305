package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/docsql/internal/row"
	"github.com/roach88/docsql/internal/store"
	"github.com/roach88/docsql/internal/testutil"
)

const (
	testProject = "proj-1"
	testActor   = "alice"
)

// testEnv bundles an engine with the store behind it.
type testEnv struct {
	engine *Engine
	store  *store.SQLiteStore
	sess   Session
	clock  *testutil.FixedClock
}

// newTestEnv creates an engine over a fresh temp-dir store with a fixed
// clock, seeded random source and discarded logs.
func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.EnsureProject(context.Background(), testProject, testActor))

	clock := testutil.NewFixedClock(time.Time{})
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(clock),
		WithRand(testutil.NewRand(testutil.DefaultSeed)),
	}
	return &testEnv{
		engine: New(st, append(base, opts...)...),
		store:  st,
		sess:   NewSession(testProject, testActor, ""),
		clock:  clock,
	}
}

// exec runs sql and fails the test on error.
func (e *testEnv) exec(t *testing.T, sql string) []*Result {
	t.Helper()
	results, err := e.engine.Execute(context.Background(), e.sess, sql)
	require.NoError(t, err, "executing %q", sql)
	return results
}

// query runs a single statement and returns its result.
func (e *testEnv) query(t *testing.T, sql string) *Result {
	t.Helper()
	results := e.exec(t, sql)
	require.Len(t, results, 1)
	return results[0]
}

// execErr runs sql and returns the error it must produce.
func (e *testEnv) execErr(t *testing.T, sql string) error {
	t.Helper()
	_, err := e.engine.Execute(context.Background(), e.sess, sql)
	require.Error(t, err, "executing %q", sql)
	return err
}

// tableID resolves a table name through the store.
func (e *testEnv) tableID(t *testing.T, name string) string {
	t.Helper()
	tables, err := e.store.ListTables(context.Background(), e.sess.Scope())
	require.NoError(t, err)
	for _, tb := range tables {
		if tb.Name == name {
			return tb.ID
		}
	}
	t.Fatalf("table %q not found", name)
	return ""
}

// maps converts result rows to plain maps for comparison.
func maps(rows []*row.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r.Map()
	}
	return out
}

// column extracts one column from every row.
func column(rows []*row.Row, name string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i], _ = r.Get(name)
	}
	return out
}

// seedUsers creates users(id, name, age, city) with four rows.
func seedUsers(t *testing.T, e *testEnv) {
	t.Helper()
	e.exec(t, `
		CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(50), age INT, city TEXT);
		INSERT INTO users (id, name, age, city) VALUES
			(1, 'Ann', 31, 'Oslo'),
			(2, 'bob', 25, 'Lima'),
			(3, 'Cid', 42, 'Oslo'),
			(4, 'Dee', NULL, 'Rome');
	`)
}
