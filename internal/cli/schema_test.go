package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docsql/internal/store"
)

func schemaDB(t *testing.T) []string {
	t.Helper()
	flags := testDB(t)
	_, err := cliRun(t, "", append([]string{"exec", "-e",
		"CREATE TABLE users (id INT PRIMARY KEY, name TEXT); CREATE TABLE orders (id INT PRIMARY KEY, user_id INT REFERENCES users(id), status VARCHAR(20) DEFAULT 'new')"},
		flags...)...)
	require.NoError(t, err)
	return flags
}

func TestSchema_Text(t *testing.T) {
	flags := schemaDB(t)

	out, err := cliRun(t, "", append([]string{"schema"}, flags...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "Table users")
	assert.Contains(t, out, "Table orders")
	assert.Contains(t, out, "'new'")
	assert.Contains(t, out, "PRIMARY KEY (id)")
	assert.Contains(t, out, "FOREIGN KEY (user_id) REFERENCES users (id)")
}

func TestSchema_SingleTableJSON(t *testing.T) {
	flags := schemaDB(t)

	out, err := cliRun(t, "", append([]string{"schema", "ORDERS", "--format", "json"}, flags...)...)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []TableSchema `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)

	ts := resp.Data[0]
	assert.Equal(t, "orders", ts.Name)
	require.Len(t, ts.Columns, 3)
	assert.Equal(t, store.TypeVarchar, ts.Columns[2].Type)
	require.Len(t, ts.Constraints, 2)
	assert.Equal(t, ConstraintSchema{
		Type:       store.ForeignKey,
		Columns:    []string{"user_id"},
		RefTable:   "users",
		RefColumns: []string{"id"},
	}, ts.Constraints[1])
}

func TestSchema_Empty(t *testing.T) {
	flags := testDB(t)

	out, err := cliRun(t, "", append([]string{"schema"}, flags...)...)

	require.NoError(t, err)
	assert.Equal(t, "No tables.\n", out)
}

func TestSchema_UnknownTable(t *testing.T) {
	flags := testDB(t)

	_, err := cliRun(t, "", append([]string{"schema", "ghost"}, flags...)...)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "table 'ghost' does not exist")
}
