package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docsql/internal/ast"
)

func newTestLikes(t *testing.T) *likeCache {
	t.Helper()
	likes, err := newLikeCache(8)
	require.NoError(t, err)
	return likes
}

func TestCompare(t *testing.T) {
	likes := newTestLikes(t)

	tests := []struct {
		left  any
		op    string
		right any
		want  bool
	}{
		// numeric strings compare as numbers
		{"10", ast.OpGt, "9", true},
		{"10", ast.OpLt, 9.5, false},
		{2.0, ast.OpEq, "2", true},
		{"1e3", ast.OpEq, 1000.0, true},
		// other text compares case-insensitively
		{"apple", ast.OpLt, "Banana", true},
		{"ABC", ast.OpEq, "abc", true},
		{"10", ast.OpLt, "9a", true},
		{"b", ast.OpNe, "B", false},
		{"b", ast.OpNeAlt, "c", true},
		{3.0, ast.OpLe, 3.0, true},
		{3.0, ast.OpGe, 4.0, false},
		// NULL
		{nil, ast.OpEq, nil, false},
		{nil, ast.OpNe, 1.0, false},
		{1.0, ast.OpEq, nil, false},
		{nil, ast.OpIs, nil, true},
		{"", ast.OpIs, nil, true},
		{0.0, ast.OpIs, nil, false},
		{"x", ast.OpIsNot, nil, true},
		{"", ast.OpIsNot, nil, false},
		// IN
		{"b", ast.OpIn, []any{"a", "B"}, true},
		{2.0, ast.OpIn, []any{"1", "2"}, true},
		{3.0, ast.OpIn, []any{1.0, nil}, false},
		{3.0, ast.OpNotIn, []any{1.0, 2.0}, true},
		{nil, ast.OpNotIn, []any{1.0}, false},
		// LIKE
		{"Hello", ast.OpLike, "h%", true},
		{"Hello", ast.OpLike, "%LL%", true},
		{"Hello", ast.OpLike, "H_llo", false},
		{"H_llo", ast.OpLike, "H_llo", true},
		{"a.c", ast.OpLike, "a.c", true},
		{"abc", ast.OpLike, "a.c", false},
		{"line\nbreak", ast.OpLike, "line%", true},
		{"Hello", ast.OpNotLike, "x%", true},
		{12.0, ast.OpLike, "1%", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v %s %v", tt.left, tt.op, tt.right), func(t *testing.T) {
			got, ok := likes.compare(tt.left, tt.op, tt.right)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_UnknownOperator(t *testing.T) {
	likes := newTestLikes(t)

	_, ok := likes.compare(1.0, "~", 2.0)
	assert.False(t, ok)

	_, ok = likes.compare(nil, "~", 2.0)
	assert.False(t, ok)
}

// Numeric strings order as numbers; other strings order case-insensitively.
func TestCompare_OrderingProperty(t *testing.T) {
	likes := newTestLikes(t)
	numbers := []float64{-3, -0.5, 0, 1, 2, 9, 10, 100.25}
	for _, a := range numbers {
		for _, b := range numbers {
			got, _ := likes.compare(fmt.Sprint(a), ast.OpLt, fmt.Sprint(b))
			assert.Equal(t, a < b, got, "%v < %v", a, b)
		}
	}

	words := []string{"apple", "Banana", "cherry", "DATE", "eggplant"}
	for i, a := range words {
		for j, b := range words {
			got, _ := likes.compare(a, ast.OpLt, b)
			assert.Equal(t, i < j, got, "%s < %s", a, b)
		}
	}
}

func TestLikeCache(t *testing.T) {
	likes := newTestLikes(t)

	first := likes.compile("a%")
	assert.Same(t, first, likes.compile("a%"))
	assert.Equal(t, 1, likes.patterns.Len())

	_, err := newLikeCache(0)
	assert.Error(t, err)

	var disabled *likeCache
	got, ok := disabled.compare("abc", ast.OpLike, "A%")
	assert.True(t, ok)
	assert.True(t, got)
}

func TestEngine_LikeWithoutPatternCache(t *testing.T) {
	e := newTestEnv(t, WithLikeCacheSize(0))
	assert.Nil(t, e.engine.likes)
	e.exec(t, "CREATE TABLE words (w TEXT)")
	e.exec(t, "INSERT INTO words (w) VALUES ('alpha'), ('beta'), ('Apple')")

	res := e.query(t, "SELECT w FROM words WHERE w LIKE 'a%' ORDER BY w")
	assert.Equal(t, []any{"alpha", "Apple"}, column(res.Rows, "w"))
}
