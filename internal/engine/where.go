package engine

import (
	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
)

// matches evaluates a WHERE/HAVING/ON predicate against a row.
//
// A nil predicate matches everything. AND and OR short-circuit. A comparison
// whose left side names a column the row does not have is false. Non-boolean
// expressions are tested for truthiness.
func (r *run) matches(expr ast.Expr, rw *row.Row) bool {
	switch e := expr.(type) {
	case nil:
		return true
	case *ast.Binary:
		switch e.Op {
		case ast.OpAnd:
			return r.matches(e.Left, rw) && r.matches(e.Right, rw)
		case ast.OpOr:
			return r.matches(e.Left, rw) || r.matches(e.Right, rw)
		case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpConcat:
			return row.Truthy(r.evalBinary(e, rw))
		}
		return r.comparison(e, rw)
	case *ast.Unary:
		if e.Op == ast.OpNot {
			return !r.matches(e.Expr, rw)
		}
		return row.Truthy(r.eval(e, rw))
	default:
		return row.Truthy(r.eval(expr, rw))
	}
}

func (r *run) comparison(e *ast.Binary, rw *row.Row) bool {
	var left any
	if ref, ok := e.Left.(*ast.ColumnRef); ok {
		v, found := lookupColumn(rw, ref)
		if !found {
			return false
		}
		left = v
	} else {
		left = r.eval(e.Left, rw)
	}

	var right any
	switch rhs := e.Right.(type) {
	case *ast.List:
		items := make([]any, len(rhs.Items))
		for i, item := range rhs.Items {
			items[i] = r.eval(item, rw)
		}
		right = items
	default:
		right = r.eval(rhs, rw)
	}

	result, ok := r.likes.compare(left, e.Op, right)
	if !ok {
		r.logger.Warn("unsupported operator in predicate", "operator", e.Op)
		return false
	}
	return result
}
