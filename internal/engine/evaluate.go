package engine

import (
	"math"
	"strings"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
	"github.com/roach88/docsql/internal/store"
)

// eval evaluates a scalar expression against one row.
//
// Unknown expression kinds, unknown functions and missing columns evaluate
// to nil. Arithmetic coerces both sides with row.Number; a non-numeric
// operand yields nil.
func (r *run) eval(expr ast.Expr, rw *row.Row) any {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.ColumnRef:
		v, _ := lookupColumn(rw, e)
		return v
	case *ast.Literal:
		return e.Value
	case *ast.Binary:
		return r.evalBinary(e, rw)
	case *ast.Unary:
		switch e.Op {
		case ast.OpNot:
			return !r.matches(e.Expr, rw)
		case ast.OpNeg:
			n, ok := row.Number(r.eval(e.Expr, rw))
			if !ok {
				return nil
			}
			return finite(-n)
		}
		r.logger.Warn("unsupported unary operator", "operator", e.Op)
		return nil
	case *ast.Func:
		if ast.IsAggregate(e) {
			return r.aggregateValue(e, rw)
		}
		return r.callFunction(e, rw)
	case *ast.Cast:
		return castValue(r.eval(e.Expr, rw), e.Type)
	case *ast.List:
		r.logger.Warn("value list used as a scalar", "expression", ast.Format(e))
		return nil
	case *ast.Unsupported:
		r.logger.Warn("unsupported expression", "kind", e.Kind)
		return nil
	default:
		r.logger.Warn("unknown expression kind", "kind", expr)
		return nil
	}
}

func (r *run) evalBinary(e *ast.Binary, rw *row.Row) any {
	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return arithmetic(e.Op, r.eval(e.Left, rw), r.eval(e.Right, rw))
	case ast.OpConcat:
		return concat(r.eval(e.Left, rw), r.eval(e.Right, rw))
	default:
		// Comparisons and logical operators used as values.
		return r.matches(e, rw)
	}
}

// lookupColumn resolves a column reference against a row: the qualified
// name, then the bare name, then a case-insensitive match.
func lookupColumn(rw *row.Row, ref *ast.ColumnRef) (any, bool) {
	if rw == nil {
		return nil, false
	}
	name := ref.Column
	if ref.Table != "" {
		name = ref.Table + "." + ref.Column
	}
	return rw.Lookup(name)
}

// aggregateValue resolves an aggregate call outside the aggregation stage
// (ORDER BY COUNT(*) over aggregated rows) by its output column name.
func (r *run) aggregateValue(f *ast.Func, rw *row.Row) any {
	if rw != nil {
		if v, ok := rw.Get(ast.Format(f)); ok {
			return v
		}
		if v, ok := rw.Get(strings.ToLower(f.Name)); ok {
			return v
		}
	}
	r.logger.Warn("aggregate used outside an aggregated query", "function", f.Name)
	return nil
}

func arithmetic(op string, left, right any) any {
	l, lok := row.Number(left)
	rn, rok := row.Number(right)
	if !lok || !rok {
		return nil
	}
	switch op {
	case ast.OpAdd:
		return finite(l + rn)
	case ast.OpSub:
		return finite(l - rn)
	case ast.OpMul:
		return finite(l * rn)
	case ast.OpDiv:
		return finite(l / rn)
	case ast.OpMod:
		return finite(math.Mod(l, rn))
	}
	return nil
}

// finite maps NaN and ±Inf (division by zero) to nil.
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// concat joins values as text; NULL contributes nothing.
func concat(values ...any) string {
	var b strings.Builder
	for _, v := range values {
		if v == nil {
			continue
		}
		b.WriteString(row.String(v))
	}
	return b.String()
}

// castValue converts v to the class of the named type: INT and NUMBER go
// through row.Number, every other type becomes text.
func castValue(v any, typeName string) any {
	if v == nil {
		return nil
	}
	switch mapColumnType(typeName) {
	case store.TypeInt:
		n, ok := row.Number(v)
		if !ok {
			return nil
		}
		return finite(n)
	default:
		return row.String(v)
	}
}
