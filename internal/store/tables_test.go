package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable_ListsInCreationOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	createTestTable(t, s, "users", "id", "name")
	createTestTable(t, s, "orders", "id", "user_id")

	tables, err := s.ListTables(ctx, testScope)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "users", tables[0].Name)
	assert.Equal(t, "orders", tables[1].Name)
	assert.Equal(t, testScope.ProjectID, tables[0].ProjectID)
}

func TestCreateTable_DuplicateName(t *testing.T) {
	s := createTestStore(t)
	createTestTable(t, s, "users", "id")

	_, err := s.CreateTable(context.Background(), testScope, "users", nil)
	require.ErrorIs(t, err, ErrTableExists)
}

func TestCreateTable_NamesAreCaseSensitive(t *testing.T) {
	s := createTestStore(t)
	createTestTable(t, s, "users", "id")

	_, err := s.CreateTable(context.Background(), testScope, "Users", nil)
	require.NoError(t, err)
}

func TestCreateTable_ColumnsKeepDeclaredAttributes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	table, err := s.CreateTable(ctx, testScope, "events", []Column{
		{Name: "id", Type: TypeInt, PrimaryKey: true},
		{Name: "status", Type: TypeVarchar, Nullable: true, Default: "'active'"},
		{Name: "created_at", Type: TypeTimestamp, Nullable: true, Default: "NOW()"},
	})
	require.NoError(t, err)

	cols, err := s.ListColumns(ctx, testScope, table.ID)
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, TypeInt, cols[0].Type)
	assert.True(t, cols[0].PrimaryKey)
	assert.False(t, cols[0].Nullable)
	assert.Equal(t, 1, cols[0].Position)

	assert.Equal(t, "'active'", cols[1].Default)
	assert.Equal(t, 2, cols[1].Position)
	assert.Equal(t, "NOW()", cols[2].Default)
	assert.Equal(t, TypeTimestamp, cols[2].Type)
}

func TestAddColumn_AppendsAfterLastPosition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	table := createTestTable(t, s, "users", "id", "name")

	col, err := s.AddColumn(ctx, testScope, table.ID, Column{Name: "email", Type: TypeVarchar, Nullable: true})
	require.NoError(t, err)
	assert.Equal(t, 3, col.Position)
	assert.NotEmpty(t, col.ID)

	_, err = s.AddColumn(ctx, testScope, table.ID, Column{Name: "email", Type: TypeVarchar})
	require.ErrorIs(t, err, ErrColumnExists)
}

func TestDeleteColumn(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	table := createTestTable(t, s, "users", "id", "name")

	cols, err := s.ListColumns(ctx, testScope, table.ID)
	require.NoError(t, err)
	require.NoError(t, s.DeleteColumn(ctx, testScope, table.ID, cols[1].ID))

	cols, err = s.ListColumns(ctx, testScope, table.ID)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "id", cols[0].Name)
}

func TestConstraints_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	users := createTestTable(t, s, "users", "id")
	orders := createTestTable(t, s, "orders", "id", "user_id")

	pk, err := s.CreateConstraint(ctx, testScope, Constraint{Type: PrimaryKey, TableID: orders.ID, Columns: []string{"id"}})
	require.NoError(t, err)
	fk, err := s.CreateConstraint(ctx, testScope, Constraint{
		Type:       ForeignKey,
		TableID:    orders.ID,
		Columns:    []string{"user_id"},
		RefTableID: users.ID,
		RefColumns: []string{"id"},
	})
	require.NoError(t, err)

	got, err := s.ListConstraints(ctx, testScope, orders.ID)
	require.NoError(t, err)
	assert.Equal(t, []Constraint{pk, fk}, got)

	require.NoError(t, s.DeleteConstraint(ctx, testScope, pk.ID))
	got, err = s.ListConstraints(ctx, testScope, orders.ID)
	require.NoError(t, err)
	assert.Equal(t, []Constraint{fk}, got)
}

func TestCreateConstraint_UnknownReferencedTable(t *testing.T) {
	s := createTestStore(t)
	orders := createTestTable(t, s, "orders", "id")

	_, err := s.CreateConstraint(context.Background(), testScope, Constraint{
		Type:       ForeignKey,
		TableID:    orders.ID,
		Columns:    []string{"user_id"},
		RefTableID: "missing",
		RefColumns: []string{"id"},
	})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestDeleteTable_Cascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	users := createTestTable(t, s, "users", "id")
	orders := createTestTable(t, s, "orders", "id", "user_id")

	_, err := s.CreateConstraint(ctx, testScope, Constraint{Type: PrimaryKey, TableID: users.ID, Columns: []string{"id"}})
	require.NoError(t, err)
	_, err = s.CreateConstraint(ctx, testScope, Constraint{
		Type: ForeignKey, TableID: orders.ID, Columns: []string{"user_id"},
		RefTableID: users.ID, RefColumns: []string{"id"},
	})
	require.NoError(t, err)
	_, err = s.InsertRows(ctx, testScope, users.ID, rowsOf("id", "u1"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteTable(ctx, testScope, users.ID))

	tables, err := s.ListTables(ctx, testScope)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "orders", tables[0].Name)

	// The referencing FOREIGN KEY on orders went with users.
	got, err := s.ListConstraints(ctx, testScope, orders.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, table := range []string{"columns", "documents", "constraints"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE table_id = ?", users.ID).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestDeleteTable_NotFound(t *testing.T) {
	s := createTestStore(t)
	err := s.DeleteTable(context.Background(), testScope, "nope")
	require.ErrorIs(t, err, ErrTableNotFound)
}
