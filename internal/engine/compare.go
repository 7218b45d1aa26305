package engine

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
)

// defaultLikeCacheSize is how many compiled LIKE patterns an engine keeps.
const defaultLikeCacheSize = 256

// likeCache memoizes compiled LIKE patterns; a WHERE clause compiles the
// same pattern once per row otherwise. A nil *likeCache compiles every time.
type likeCache struct {
	patterns *lru.Cache[string, *regexp.Regexp]
}

func newLikeCache(size int) (*likeCache, error) {
	patterns, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return nil, fmt.Errorf("like pattern cache: %w", err)
	}
	return &likeCache{patterns: patterns}, nil
}

// compare applies a comparison operator.
//
// IS / IS NOT treat nil and "" alike as NULL. For every other operator a nil
// operand makes the comparison false. Ordering is numeric when both sides
// are numeric, otherwise case-insensitive on the text forms. For IN and
// NOT IN, right is the []any of list values.
//
// The second result is false for an unsupported operator.
func (c *likeCache) compare(left any, op string, right any) (bool, bool) {
	switch op {
	case ast.OpIs:
		return isNullish(left), true
	case ast.OpIsNot:
		return !isNullish(left), true
	}

	if left == nil {
		return false, isKnownOperator(op)
	}

	switch op {
	case ast.OpIn, ast.OpNotIn:
		items, _ := right.([]any)
		found := false
		for _, item := range items {
			if eq, _ := c.compare(left, ast.OpEq, item); eq {
				found = true
				break
			}
		}
		if op == ast.OpIn {
			return found, true
		}
		return !found, true
	}

	if right == nil {
		return false, isKnownOperator(op)
	}

	switch op {
	case ast.OpLike:
		return c.compile(row.String(right)).MatchString(row.String(left)), true
	case ast.OpNotLike:
		return !c.compile(row.String(right)).MatchString(row.String(left)), true
	}

	c := order(left, right)
	switch op {
	case ast.OpEq:
		return c == 0, true
	case ast.OpNe, ast.OpNeAlt:
		return c != 0, true
	case ast.OpLt:
		return c < 0, true
	case ast.OpGt:
		return c > 0, true
	case ast.OpLe:
		return c <= 0, true
	case ast.OpGe:
		return c >= 0, true
	}
	return false, false
}

func isKnownOperator(op string) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpNeAlt, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe,
		ast.OpIn, ast.OpNotIn, ast.OpLike, ast.OpNotLike, ast.OpIs, ast.OpIsNot:
		return true
	}
	return false
}

// order compares two non-nil values: numerically when both are numeric,
// otherwise as lower-cased text.
func order(left, right any) int {
	if row.IsNumeric(left) && row.IsNumeric(right) {
		l, _ := row.Number(left)
		r, _ := row.Number(right)
		switch {
		case l < r:
			return -1
		case l > r:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(row.String(left)), strings.ToLower(row.String(right)))
}

// isNullish reports whether v counts as NULL for IS NULL.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// compile turns a LIKE pattern to an anchored, case-insensitive regular
// expression. '%' matches any run of characters; every other character,
// '_' included, matches itself.
func (c *likeCache) compile(pattern string) *regexp.Regexp {
	if c != nil {
		if re, ok := c.patterns.Get(pattern); ok {
			return re
		}
	}
	parts := strings.Split(pattern, "%")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re := regexp.MustCompile("(?is)^" + strings.Join(parts, ".*") + "$")
	if c != nil {
		c.patterns.Add(pattern, re)
	}
	return re
}
