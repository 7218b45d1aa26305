package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docsql/internal/testutil"
)

func TestMatchGenerateData(t *testing.T) {
	tests := []struct {
		sql   string
		table string
		count int
		ok    bool
	}{
		{"CALL GENERATE_DATA('users', 5)", "users", 5, true},
		{"  call generate_data(\"users\",10);  ", "users", 10, true},
		{"CALL GENERATE_DATA(users, 0)", "users", 0, true},
		{"CALL\nGENERATE_DATA ( 'user_events' , 3 )", "user_events", 3, true},
		{"CALL GENERATE_DATA('users')", "", 0, false},
		{"CALL GENERATE_DATA('users', -1)", "", 0, false},
		{"CALL other('users', 5)", "", 0, false},
		{"SELECT * FROM users", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			m := matchGenerateData(tt.sql)
			if !tt.ok {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.table, m.table)
			assert.Equal(t, tt.count, m.count)
		})
	}
}

func TestGenerateData(t *testing.T) {
	e := newTestEnv(t)
	e.exec(t, "CREATE TABLE people (id INT, name VARCHAR, email VARCHAR, active BOOLEAN, joined DATE, seen TIMESTAMP, score FLOAT, code TEXT)")

	res := e.query(t, "CALL GENERATE_DATA('people', 3)")
	assert.Equal(t, "3 rows generated for table 'people'.", res.Message)

	sel := e.query(t, "SELECT * FROM people")
	require.Len(t, sel.Rows, 3)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, column(sel.Rows, "id"))
	assert.Equal(t, []any{"user1@example.com", "user2@example.com", "user3@example.com"}, column(sel.Rows, "email"))
	assert.Equal(t, []any{true, false, true}, column(sel.Rows, "active"))
	assert.Equal(t, []any{"code_1", "code_2", "code_3"}, column(sel.Rows, "code"))

	now := testutil.DefaultTime
	for _, rw := range sel.Rows {
		m := rw.Map()
		assert.Contains(t, generatedNames, m["name"])

		score, ok := m["score"].(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1000.0)

		joined, err := time.Parse(dateLayout, m["joined"].(string))
		require.NoError(t, err)
		assert.False(t, joined.After(now))
		assert.True(t, joined.After(now.AddDate(-1, 0, -1)))

		seen, err := time.Parse(utcTimestampLayout, m["seen"].(string))
		require.NoError(t, err)
		assert.False(t, seen.After(now))
	}

	// Integer columns continue after the existing rows.
	e.exec(t, "CALL GENERATE_DATA('people', 2)")
	sel = e.query(t, "SELECT id FROM people")
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 5.0}, column(sel.Rows, "id"))
}

func TestGenerateData_Batches(t *testing.T) {
	e := newTestEnv(t)
	e.exec(t, "CREATE TABLE big (id INT)")

	res := e.query(t, "CALL GENERATE_DATA('big', 1200)")
	assert.Equal(t, "1200 rows generated for table 'big'.", res.Message)

	count := e.query(t, "SELECT COUNT(*) AS n, MAX(id) AS top FROM big")
	assert.Equal(t, []map[string]any{{"n": 1200.0, "top": 1200.0}}, maps(count.Rows))
}

func TestGenerateData_InSubmission(t *testing.T) {
	e := newTestEnv(t)

	results := e.exec(t, "CREATE TABLE t (id INT); CALL GENERATE_DATA('t', 2); SELECT COUNT(*) AS n FROM t")

	require.Len(t, results, 3)
	assert.Equal(t, "2 rows generated for table 't'.", results[1].Message)
	assert.Equal(t, 2.0, results[2].Rows[0].Map()["n"])
}

func TestGenerateData_Errors(t *testing.T) {
	e := newTestEnv(t)
	e.exec(t, "CREATE TABLE t (id INT)")

	err := e.execErr(t, "CALL GENERATE_DATA('ghost', 1)")
	assert.True(t, IsTableNotFound(err))

	err = e.execErr(t, "CALL GENERATE_DATA('t', 10001)")
	assert.Equal(t, ErrCodeInvalidArgument, CodeOf(err))
}
