package engine

import (
	"math"
	"strings"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
)

// groupKeySeparator joins the text forms of multiple GROUP BY values.
// Values that themselves contain it can collide.
const groupKeySeparator = "::"

// isAggregated reports whether a SELECT needs the aggregation stage: any
// projected expression contains an aggregate call, or GROUP BY / HAVING is
// present.
func isAggregated(s *ast.Select) bool {
	if len(s.GroupBy) > 0 || s.Having != nil {
		return true
	}
	for _, item := range s.Columns {
		if !item.Star && containsAggregate(item.Expr) {
			return true
		}
	}
	return false
}

func containsAggregate(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Func:
		if ast.IsAggregate(e) {
			return true
		}
		for _, a := range e.Args {
			if containsAggregate(a) {
				return true
			}
		}
	case *ast.Binary:
		return containsAggregate(e.Left) || containsAggregate(e.Right)
	case *ast.Unary:
		return containsAggregate(e.Expr)
	case *ast.Cast:
		return containsAggregate(e.Expr)
	case *ast.List:
		for _, item := range e.Items {
			if containsAggregate(item) {
				return true
			}
		}
	}
	return false
}

type group struct {
	rows []*row.Row
}

func (g *group) first() *row.Row {
	if len(g.rows) == 0 {
		return row.New()
	}
	return g.rows[0]
}

// aggregate groups rows and produces one output row per group, in order of
// each group's first appearance.
//
// Without GROUP BY all rows form one group, even when there are none, so
// COUNT(*) over an empty table yields a single row holding 0. Non-aggregate
// columns take their value from the group's first row. HAVING is applied to
// each group before it is emitted.
func (r *run) aggregate(rows []*row.Row, s *ast.Select) []*row.Row {
	groups := r.groupRows(rows, s.GroupBy)

	out := make([]*row.Row, 0, len(groups))
	for _, g := range groups {
		first := g.first()
		result := row.New()
		for _, item := range s.Columns {
			if item.Star {
				for _, k := range first.Keys() {
					v, _ := first.Get(k)
					result.Set(k, v)
				}
				continue
			}
			result.Set(ast.ColumnName(item), r.eval(r.foldAggregates(item.Expr, g.rows), first))
		}

		if s.Having != nil && !r.matches(r.foldAggregates(s.Having, g.rows), result.Merge(first)) {
			continue
		}
		out = append(out, result)
	}
	return out
}

func (r *run) groupRows(rows []*row.Row, groupBy []ast.Expr) []*group {
	if len(groupBy) == 0 {
		return []*group{{rows: rows}}
	}

	index := make(map[string]*group)
	var groups []*group
	parts := make([]string, len(groupBy))
	for _, rw := range rows {
		for i, expr := range groupBy {
			parts[i] = row.String(r.eval(expr, rw))
		}
		key := strings.Join(parts, groupKeySeparator)
		g, ok := index[key]
		if !ok {
			g = &group{}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, rw)
	}
	return groups
}

// foldAggregates returns a copy of expr in which every aggregate call is
// replaced by its value over rows.
func (r *run) foldAggregates(expr ast.Expr, rows []*row.Row) ast.Expr {
	switch e := expr.(type) {
	case *ast.Func:
		if ast.IsAggregate(e) {
			return &ast.Literal{Value: r.computeAggregate(e, rows)}
		}
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = r.foldAggregates(a, rows)
		}
		cp := *e
		cp.Args = args
		return &cp
	case *ast.Binary:
		return &ast.Binary{Op: e.Op, Left: r.foldAggregates(e.Left, rows), Right: r.foldAggregates(e.Right, rows)}
	case *ast.Unary:
		return &ast.Unary{Op: e.Op, Expr: r.foldAggregates(e.Expr, rows)}
	case *ast.Cast:
		return &ast.Cast{Expr: r.foldAggregates(e.Expr, rows), Type: e.Type}
	case *ast.List:
		items := make([]ast.Expr, len(e.Items))
		for i, item := range e.Items {
			items[i] = r.foldAggregates(item, rows)
		}
		return &ast.List{Items: items}
	default:
		return expr
	}
}

// computeAggregate evaluates COUNT, SUM, AVG, MIN or MAX over a group.
//
// COUNT(*) is the group size; COUNT(x) counts non-NULL values, COUNT(DISTINCT
// x) distinct non-NULL values. The numeric aggregates coerce each value with
// row.Number, skip what is not a number, and return NULL when nothing is
// left.
func (r *run) computeAggregate(f *ast.Func, rows []*row.Row) any {
	name := strings.ToUpper(f.Name)
	if name == "COUNT" && (f.Star || len(f.Args) == 0) {
		return float64(len(rows))
	}
	if len(f.Args) == 0 {
		return nil
	}
	arg := f.Args[0]

	if name == "COUNT" {
		n := 0
		distinct := make(map[string]bool)
		for _, rw := range rows {
			v := r.eval(arg, rw)
			if v == nil {
				continue
			}
			if f.Distinct {
				key := row.String(v)
				if distinct[key] {
					continue
				}
				distinct[key] = true
			}
			n++
		}
		return float64(n)
	}

	nums := make([]float64, 0, len(rows))
	seen := make(map[float64]bool)
	for _, rw := range rows {
		n, ok := row.Number(r.eval(arg, rw))
		if !ok {
			continue
		}
		if f.Distinct {
			if seen[n] {
				continue
			}
			seen[n] = true
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return nil
	}

	switch name {
	case "SUM":
		return finite(sum(nums))
	case "AVG":
		return finite(sum(nums) / float64(len(nums)))
	case "MIN":
		m := nums[0]
		for _, n := range nums[1:] {
			m = math.Min(m, n)
		}
		return m
	case "MAX":
		m := nums[0]
		for _, n := range nums[1:] {
			m = math.Max(m, n)
		}
		return m
	}
	return nil
}

func sum(nums []float64) float64 {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total
}
