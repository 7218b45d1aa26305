package engine

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_Where(t *testing.T) {
	e := newTestEnv(t)
	seedUsers(t, e)

	tests := []struct {
		name  string
		where string
		ids   []any
	}{
		{"numeric comparison skips null", "age > 30", []any{1.0, 3.0}},
		{"is null", "age IS NULL", []any{4.0}},
		{"is not null", "age IS NOT NULL", []any{1.0, 2.0, 3.0}},
		{"like is case-insensitive", "name LIKE 'a%'", []any{1.0}},
		{"underscore is literal", "name LIKE 'b_b'", []any{}},
		{"not like", "name NOT LIKE '%e%'", []any{1.0, 2.0, 3.0}},
		{"in list", "city IN ('Oslo', 'Rome')", []any{1.0, 3.0, 4.0}},
		{"not in list", "city NOT IN ('Oslo')", []any{2.0, 4.0}},
		{"between", "age BETWEEN 25 AND 31", []any{1.0, 2.0}},
		{"not", "NOT (city = 'Oslo')", []any{2.0, 4.0}},
		{"and or", "city = 'Oslo' AND age < 40 OR id = 4", []any{1.0, 4.0}},
		{"text equality ignores case", "city = 'OSLO'", []any{1.0, 3.0}},
		{"missing column never matches", "nope = 1", []any{}},
		{"arithmetic", "age + 1 = 26", []any{2.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.query(t, "SELECT id FROM users WHERE "+tt.where+" ORDER BY id")
			assert.Equal(t, tt.ids, column(res.Rows, "id"))
		})
	}
}

func TestSelect_OrderBy(t *testing.T) {
	e := newTestEnv(t)
	seedUsers(t, e)

	tests := []struct {
		name  string
		order string
		ids   []any
	}{
		{"text ignores case", "name", []any{1.0, 2.0, 3.0, 4.0}},
		{"null first ascending", "age", []any{4.0, 2.0, 1.0, 3.0}},
		{"null last descending", "age DESC", []any{3.0, 1.0, 2.0, 4.0}},
		{"multiple keys", "city DESC, id DESC", []any{4.0, 3.0, 1.0, 2.0}},
		{"projection alias", "double_age DESC", []any{3.0, 1.0, 2.0, 4.0}},
		{"expression", "age * -1", []any{4.0, 3.0, 1.0, 2.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.query(t, "SELECT id, age * 2 AS double_age FROM users ORDER BY "+tt.order)
			assert.Equal(t, tt.ids, column(res.Rows, "id"))
		})
	}
}

func TestSelect_LimitOffset(t *testing.T) {
	e := newTestEnv(t)
	seedUsers(t, e)

	res := e.query(t, "SELECT id FROM users ORDER BY id LIMIT 2 OFFSET 1")

	assert.Equal(t, []any{2.0, 3.0}, column(res.Rows, "id"))
	assert.Contains(t, res.Explanation, "Limited to 2 rows after skipping 1. 4 -> 2")

	all := e.query(t, "SELECT id FROM users")
	assert.Len(t, all.Rows, 4, "no LIMIT means no limit")

	past := e.query(t, "SELECT id FROM users LIMIT 5 OFFSET 10")
	assert.Empty(t, past.Rows)
}

func TestSelect_Projection(t *testing.T) {
	e := newTestEnv(t)
	seedUsers(t, e)
	e.exec(t, "CREATE TABLE empty (x INT)")

	t.Run("computed column", func(t *testing.T) {
		res := e.query(t, "SELECT name, age * 2 AS double_age, UPPER(city) FROM users WHERE id = 1")
		assert.Equal(t, []string{"name", "double_age", "upper"}, res.Columns)
		assert.Equal(t, []map[string]any{{"name": "Ann", "double_age": 62.0, "upper": "OSLO"}}, maps(res.Rows))
	})

	t.Run("star over empty table has no columns", func(t *testing.T) {
		res := e.query(t, "SELECT * FROM empty")
		assert.Empty(t, res.Rows)
		assert.Empty(t, res.Columns)
		assert.NotNil(t, res.Columns)
	})

	t.Run("named columns survive an empty result", func(t *testing.T) {
		res := e.query(t, "SELECT name, age FROM users WHERE id = 99")
		assert.Empty(t, res.Rows)
		assert.Equal(t, []string{"name", "age"}, res.Columns)
	})

	t.Run("star keeps stored column order", func(t *testing.T) {
		res := e.query(t, "SELECT * FROM users WHERE id = 4")
		assert.Equal(t, []string{"id", "name", "age", "city"}, res.Columns)
		assert.Equal(t, []map[string]any{{"id": 4.0, "name": "Dee", "age": nil, "city": "Rome"}}, maps(res.Rows))
		assert.Empty(t, res.Rows[0].ID, "storage id is not exposed")
	})

	t.Run("distinct", func(t *testing.T) {
		res := e.query(t, "SELECT DISTINCT city FROM users ORDER BY city")
		assert.Equal(t, []any{"Lima", "Oslo", "Rome"}, column(res.Rows, "city"))
	})
}

func TestSelect_Aggregates(t *testing.T) {
	e := newTestEnv(t)
	seedUsers(t, e)
	e.exec(t, "CREATE TABLE empty (x INT)")

	tests := []struct {
		name string
		sql  string
		want []map[string]any
	}{
		{
			name: "numeric aggregates skip null",
			sql:  "SELECT SUM(age) AS s, MIN(age) AS lo, MAX(age) AS hi, COUNT(age) AS c, COUNT(*) AS n FROM users",
			want: []map[string]any{{"s": 98.0, "lo": 25.0, "hi": 42.0, "c": 3.0, "n": 4.0}},
		},
		{
			name: "empty table yields one row",
			sql:  "SELECT COUNT(*) AS n, SUM(x) AS s, AVG(x) AS a, MIN(x) AS lo FROM empty",
			want: []map[string]any{{"n": 0.0, "s": nil, "a": nil, "lo": nil}},
		},
		{
			name: "count distinct",
			sql:  "SELECT COUNT(DISTINCT city) AS cities FROM users",
			want: []map[string]any{{"cities": 3.0}},
		},
		{
			name: "group by in first appearance order",
			sql:  "SELECT city, COUNT(*) AS n, AVG(age) AS avg_age FROM users GROUP BY city",
			want: []map[string]any{
				{"city": "Oslo", "n": 2.0, "avg_age": 36.5},
				{"city": "Lima", "n": 1.0, "avg_age": 25.0},
				{"city": "Rome", "n": 1.0, "avg_age": nil},
			},
		},
		{
			name: "non-aggregate column takes the first row",
			sql:  "SELECT city, name FROM users GROUP BY city",
			want: []map[string]any{
				{"city": "Oslo", "name": "Ann"},
				{"city": "Lima", "name": "bob"},
				{"city": "Rome", "name": "Dee"},
			},
		},
		{
			name: "having",
			sql:  "SELECT city, COUNT(*) AS n FROM users GROUP BY city HAVING COUNT(*) > 1",
			want: []map[string]any{{"city": "Oslo", "n": 2.0}},
		},
		{
			name: "order by aggregate alias",
			sql:  "SELECT city, COUNT(*) AS n FROM users GROUP BY city ORDER BY n DESC, city",
			want: []map[string]any{
				{"city": "Oslo", "n": 2.0},
				{"city": "Lima", "n": 1.0},
				{"city": "Rome", "n": 1.0},
			},
		},
		{
			name: "order by aggregate call",
			sql:  "SELECT city, COUNT(*) FROM users GROUP BY city ORDER BY COUNT(*) DESC LIMIT 1",
			want: []map[string]any{{"city": "Oslo", "count": 2.0}},
		},
		{
			name: "aggregate inside arithmetic",
			sql:  "SELECT SUM(age) / COUNT(age) AS mean FROM users WHERE city = 'Oslo'",
			want: []map[string]any{{"mean": 36.5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.query(t, tt.sql)
			assert.Equal(t, tt.want, maps(res.Rows))
		})
	}
}

func TestSelect_Joins(t *testing.T) {
	e := newTestEnv(t)
	seedUsers(t, e)
	e.exec(t, `
		CREATE TABLE orders (order_id INT, user_id INT, total FLOAT);
		INSERT INTO orders (order_id, user_id, total) VALUES (100, 1, 9.5), (101, 1, 20), (102, 3, 7), (103, 42, 1)
	`)

	t.Run("inner join drops unmatched rows", func(t *testing.T) {
		res := e.query(t, "SELECT o.order_id, u.name FROM orders o JOIN users u ON o.user_id = u.id ORDER BY o.order_id")
		assert.Equal(t, []map[string]any{
			{"order_id": 100.0, "name": "Ann"},
			{"order_id": 101.0, "name": "Ann"},
			{"order_id": 102.0, "name": "Cid"},
		}, maps(res.Rows))
	})

	t.Run("condition written right side first", func(t *testing.T) {
		res := e.query(t, "SELECT o.order_id FROM orders o INNER JOIN users u ON u.id = o.user_id")
		assert.Len(t, res.Rows, 3)
	})

	t.Run("left join keeps every left row", func(t *testing.T) {
		res := e.query(t, "SELECT u.id, o.order_id FROM users u LEFT JOIN orders o ON u.id = o.user_id ORDER BY u.id")
		assert.Equal(t, []any{1.0, 1.0, 2.0, 3.0, 4.0}, column(res.Rows, "id"))
		assert.Equal(t, []any{100.0, 101.0, nil, 102.0, nil}, column(res.Rows, "order_id"))
	})

	t.Run("join then aggregate", func(t *testing.T) {
		res := e.query(t, "SELECT u.name, SUM(o.total) AS spent FROM orders o JOIN users u ON o.user_id = u.id GROUP BY u.name ORDER BY spent DESC")
		assert.Equal(t, []map[string]any{
			{"name": "Ann", "spent": 29.5},
			{"name": "Cid", "spent": 7.0},
		}, maps(res.Rows))
	})

	t.Run("comma join keeps left rows", func(t *testing.T) {
		res := e.query(t, "SELECT * FROM users, orders")
		assert.Len(t, res.Rows, 4)
		assert.Contains(t, res.Explanation, "Skipped join with table 'orders' (no equality condition). 4 rows kept.")
	})

	t.Run("non-equality condition keeps left rows", func(t *testing.T) {
		res := e.query(t, "SELECT * FROM users u JOIN orders o ON u.id < o.user_id")
		assert.Len(t, res.Rows, 4)
	})
}

func TestSelect_GenerateSeries(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name   string
		sql    string
		column string
		want   []any
	}{
		{"default column name", "SELECT * FROM generate_series(1, 5)", "generate_series", []any{1.0, 2.0, 3.0, 4.0, 5.0}},
		{"alias names the column", "SELECT n * n AS sq FROM generate_series(1, 4) AS n", "sq", []any{1.0, 4.0, 9.0, 16.0}},
		{"negative step", "SELECT * FROM generate_series(5, 1, -2)", "generate_series", []any{5.0, 3.0, 1.0}},
		{"empty range", "SELECT * FROM generate_series(5, 1)", "generate_series", []any{}},
		{"filtered", "SELECT * FROM generate_series(1, 10) AS n WHERE n % 3 = 0", "n", []any{3.0, 6.0, 9.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.query(t, tt.sql)
			assert.Equal(t, tt.want, column(res.Rows, tt.column))
		})
	}

	res := e.query(t, "SELECT * FROM generate_series(1, 3)")
	assert.Equal(t, "Loaded 3 rows from GENERATE_SERIES.", res.Explanation[0])
}

func TestSelect_ExplanationGolden(t *testing.T) {
	e := newTestEnv(t)
	seedUsers(t, e)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name string
		sql  string
	}{
		{"explain_group_by", "SELECT city, COUNT(*) AS n FROM users WHERE age > 20 GROUP BY city HAVING COUNT(*) >= 1 ORDER BY n DESC LIMIT 2"},
		{"explain_distinct", "SELECT DISTINCT city FROM users ORDER BY city LIMIT 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.query(t, tt.sql)
			require.NotEmpty(t, res.Explanation)
			g.Assert(t, tt.name, []byte(strings.Join(res.Explanation, "\n")+"\n"))
		})
	}
}
