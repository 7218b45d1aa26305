package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docsql/internal/row"
)

// rowsOf builds one single-column row per value.
func rowsOf(column string, values ...any) []*row.Row {
	out := make([]*row.Row, len(values))
	for i, v := range values {
		out[i] = row.Of(column, v)
	}
	return out
}

func TestInsertRows_AssignsStorageAndLogicalIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	table := createTestTable(t, s, "users", "name")

	ids, err := s.InsertRows(ctx, testScope, table.ID, rowsOf("name", "Ann", "Bob"))
	require.NoError(t, err)
	require.Len(t, ids, 2)

	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	}

	rows, err := s.ReadRows(ctx, testScope, table.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// A row without an id column gets id = _id, placed first.
	assert.Equal(t, []string{"id", "name"}, rows[0].Keys())
	v, _ := rows[0].Get("id")
	assert.Equal(t, ids[0], v)
	assert.Equal(t, ids[0], rows[0].ID)
}

func TestInsertRows_HonorsGivenIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	table := createTestTable(t, s, "users", "id", "name")

	r := row.Of("id", 7, "name", "Ann")
	r.ID = "doc-7"
	ids, err := s.InsertRows(ctx, testScope, table.ID, []*row.Row{r})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-7"}, ids)

	rows, err := s.ReadRows(ctx, testScope, table.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "doc-7", rows[0].ID)
	v, _ := rows[0].Get("id")
	assert.Equal(t, float64(7), v, "logical id is kept distinct from the storage id")
}

func TestReadRows_InsertionOrderAcrossChunks(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	table := createTestTable(t, s, "nums", "n")

	n := MaxBatchSize*2 + 17
	values := make([]any, n)
	for i := range values {
		values[i] = i
	}
	ids, err := s.InsertRows(ctx, testScope, table.ID, rowsOf("n", values...))
	require.NoError(t, err)
	require.Len(t, ids, n)

	rows, err := s.ReadRows(ctx, testScope, table.ID)
	require.NoError(t, err)
	require.Len(t, rows, n)
	for i, r := range rows {
		v, _ := r.Get("n")
		require.Equal(t, float64(i), v)
	}
}

func TestInsertRows_LaterChunkFailureKeepsEarlierChunks(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	table := createTestTable(t, s, "nums", "n")

	rows := make([]*row.Row, MaxBatchSize+2)
	for i := range rows {
		rows[i] = row.Of("n", i)
		rows[i].ID = fmt.Sprintf("doc-%d", i)
	}
	// Duplicate storage id inside the second chunk.
	rows[MaxBatchSize+1].ID = rows[MaxBatchSize].ID

	ids, err := s.InsertRows(ctx, testScope, table.ID, rows)
	require.Error(t, err)
	assert.Len(t, ids, MaxBatchSize)

	stored, err := s.ReadRows(ctx, testScope, table.ID)
	require.NoError(t, err)
	assert.Len(t, stored, MaxBatchSize)
}

func TestUpdateRows_MergesPatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	table := createTestTable(t, s, "users", "id", "name")

	ids, err := s.InsertRows(ctx, testScope, table.ID, []*row.Row{
		row.Of("id", 1, "name", "Ann"),
		row.Of("id", 2, "name", "Bob"),
	})
	require.NoError(t, err)

	n, err := s.UpdateRows(ctx, testScope, table.ID, []string{ids[1], "missing"}, row.Of("name", "Rob", "active", true))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := s.ReadRows(ctx, testScope, table.ID)
	require.NoError(t, err)
	assert.True(t, rows[0].Equal(row.Of("id", 1, "name", "Ann")))
	assert.True(t, rows[1].Equal(row.Of("id", 2, "name", "Rob", "active", true)))
}

func TestDeleteRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	table := createTestTable(t, s, "users", "name")

	ids, err := s.InsertRows(ctx, testScope, table.ID, rowsOf("name", "Ann", "Bob", "Cy"))
	require.NoError(t, err)

	n, err := s.DeleteRows(ctx, testScope, table.ID, []string{ids[0], ids[2], "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := s.ReadRows(ctx, testScope, table.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ids[1], rows[0].ID)
}

func TestReadRows_EmptyTable(t *testing.T) {
	s := createTestStore(t)
	table := createTestTable(t, s, "users", "name")

	rows, err := s.ReadRows(context.Background(), testScope, table.ID)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestChunks(t *testing.T) {
	assert.Empty(t, chunks([]int{}))
	assert.Len(t, chunks(make([]int, MaxBatchSize)), 1)

	got := chunks(make([]int, MaxBatchSize+1))
	require.Len(t, got, 2)
	assert.Len(t, got[0], MaxBatchSize)
	assert.Len(t, got[1], 1)
}
