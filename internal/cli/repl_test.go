package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepl_PipedSession(t *testing.T) {
	flags := testDB(t)
	input := `CREATE TABLE t (id INT,
  name TEXT);
INSERT INTO t (id, name) VALUES (1, 'a');
\d
\explain
SELECT name
FROM t;
SELECT * FROM nope;
\bogus
\q
SELECT 'never';
`

	out, err := cliRun(t, input, append([]string{"repl"}, flags...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "Table 't' created successfully")
	assert.Contains(t, out, "1 rows inserted.")
	assert.Contains(t, out, "t (2 columns)")
	assert.Contains(t, out, "Explanation traces on.")
	assert.Contains(t, out, "  -> Loaded 1 rows from table 't'.")
	assert.Contains(t, out, "Error [TABLE_NOT_FOUND]")
	assert.Contains(t, out, `Unknown command: \bogus`)
	assert.Contains(t, out, "Goodbye!")
	assert.NotContains(t, out, "never")
}

func TestRepl_EOFEndsSession(t *testing.T) {
	flags := testDB(t)

	out, err := cliRun(t, "SELECT 1", append([]string{"repl"}, flags...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "Goodbye!")
	assert.NotContains(t, out, "(1 rows)")
}

func TestRepl_DescribeTable(t *testing.T) {
	flags := testDB(t)

	out, err := cliRun(t, "CREATE TABLE notes (id INT PRIMARY KEY);\n\\d notes\n\\d missing\n", append([]string{"repl"}, flags...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "Table notes")
	assert.Contains(t, out, "PRIMARY KEY (id)")
	assert.Contains(t, out, "Error: table 'missing' does not exist")
}
