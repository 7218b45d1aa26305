package engine

import (
	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
)

// equiJoin is a single-column equality join condition, oriented so that
// left names a column of the running result and right a column of the
// joined source.
type equiJoin struct {
	left  *ast.ColumnRef
	right *ast.ColumnRef
}

// joinCondition extracts an equi-join from an ON expression. rightName is
// the joined source's alias or table name; a condition written as
// `right.x = left.y` is flipped. Returns false for anything that is not a
// single column = column comparison.
func joinCondition(on ast.Expr, rightName string) (equiJoin, bool) {
	b, ok := on.(*ast.Binary)
	if !ok || b.Op != ast.OpEq {
		return equiJoin{}, false
	}
	l, lok := b.Left.(*ast.ColumnRef)
	r, rok := b.Right.(*ast.ColumnRef)
	if !lok || !rok {
		return equiJoin{}, false
	}
	if l.Table != "" && l.Table == rightName && r.Table != rightName {
		l, r = r, l
	}
	return equiJoin{left: l, right: r}, true
}

// hashJoin joins right onto left in one pass over each side.
//
// Right rows are bucketed by the text form of their join value; each left
// row is then merged with every right row in its bucket, left values winning
// on name collisions. Rows whose join value is NULL never match.
//
// On no match INNER drops the left row and LEFT keeps it, padded with NULL
// for every column seen on the right side. With no right rows there is
// nothing to pad with and LEFT returns the left rows unchanged.
func hashJoin(left, right []*row.Row, cond equiJoin, kind ast.JoinKind) []*row.Row {
	buckets := make(map[string][]*row.Row, len(right))
	var rightKeys []string
	seen := make(map[string]bool)
	for _, rr := range right {
		for _, k := range rr.Keys() {
			if !seen[k] {
				seen[k] = true
				rightKeys = append(rightKeys, k)
			}
		}
		v, ok := lookupColumn(rr, cond.right)
		if !ok || v == nil {
			continue
		}
		key := row.String(v)
		buckets[key] = append(buckets[key], rr)
	}

	var nulls *row.Row
	if kind == ast.JoinLeft && len(rightKeys) > 0 {
		nulls = row.New()
		for _, k := range rightKeys {
			nulls.Set(k, nil)
		}
	}

	out := make([]*row.Row, 0, len(left))
	for _, lr := range left {
		var matched []*row.Row
		if v, ok := lookupColumn(lr, cond.left); ok && v != nil {
			matched = buckets[row.String(v)]
		}
		if len(matched) == 0 {
			if kind == ast.JoinLeft {
				out = append(out, lr.Merge(nulls))
			}
			continue
		}
		for _, rr := range matched {
			out = append(out, lr.Merge(rr))
		}
	}
	return out
}
