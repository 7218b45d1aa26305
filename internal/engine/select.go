package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
)

// selectRows runs the SELECT pipeline and records one explanation line per
// stage: source → joins → WHERE → aggregation → ORDER BY → LIMIT → projection.
func (r *run) selectRows(s *ast.Select) (*Result, error) {
	if len(s.From) == 0 {
		return nil, newQueryError(ErrCodeMissingFrom, "SELECT requires a FROM clause")
	}
	var explain []string

	rows, desc, err := r.resolveSource(s.From[0])
	if err != nil {
		return nil, err
	}
	explain = append(explain, fmt.Sprintf("Loaded %d rows from %s.", len(rows), desc))

	for _, item := range s.From[1:] {
		rows, explain, err = r.applyJoin(rows, item, explain)
		if err != nil {
			return nil, err
		}
	}

	if s.Where != nil {
		before := len(rows)
		filtered := make([]*row.Row, 0, len(rows))
		for _, rw := range rows {
			if r.matches(s.Where, rw) {
				filtered = append(filtered, rw)
			}
		}
		rows = filtered
		explain = append(explain, fmt.Sprintf("Filtered rows (Where clause). %d -> %d", before, len(rows)))
	}

	aggregated := isAggregated(s)
	if aggregated {
		before := len(rows)
		rows = r.aggregate(rows, s)
		line := fmt.Sprintf("Aggregated %d rows into %d groups.", before, len(rows))
		if len(s.GroupBy) > 0 {
			line = fmt.Sprintf("Grouped %d rows by %s into %d groups.", before, formatExprs(s.GroupBy), len(rows))
		}
		if s.Having != nil {
			line += " Applied HAVING " + ast.Format(s.Having) + "."
		}
		explain = append(explain, line)
	}

	if len(s.OrderBy) > 0 {
		r.sortRows(rows, s, aggregated)
		keys := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			keys[i] = ast.Format(o.Expr) + " " + dir
		}
		explain = append(explain, "Sorted rows by "+strings.Join(keys, ", ")+".")
	}

	offset, limit := r.limits(s)
	if !s.Distinct && (offset > 0 || limit >= 0) {
		before := len(rows)
		rows = window(rows, offset, limit)
		explain = append(explain, limitLine(offset, limit, before, len(rows)))
	}

	rows, columns := r.project(rows, s, aggregated)
	explain = append(explain, "Selected columns: "+strings.Join(columns, ", ")+".")

	if s.Distinct {
		before := len(rows)
		rows = distinct(rows)
		explain = append(explain, fmt.Sprintf("Removed duplicate rows (DISTINCT). %d -> %d", before, len(rows)))
		if offset > 0 || limit >= 0 {
			before = len(rows)
			rows = window(rows, offset, limit)
			explain = append(explain, limitLine(offset, limit, before, len(rows)))
		}
	}

	return &Result{Rows: rows, Columns: columns, Explanation: explain}, nil
}

// applyJoin merges one additional FROM entry into the running row set.
func (r *run) applyJoin(left []*row.Row, item ast.FromItem, explain []string) ([]*row.Row, []string, error) {
	switch item.Join {
	case ast.JoinRight, ast.JoinFull:
		return nil, nil, newQueryError(ErrCodeUnsupportedJoin, "%s JOIN is not supported", item.Join)
	}

	right, desc, err := r.resolveSource(item)
	if err != nil {
		return nil, nil, err
	}

	cond, ok := joinCondition(item.On, item.Name())
	if !ok {
		if item.On != nil {
			r.logger.Warn("join condition is not a single column equality, keeping left rows only",
				"table", item.Name(),
				"condition", ast.Format(item.On),
			)
		}
		return left, append(explain, fmt.Sprintf("Skipped join with %s (no equality condition). %d rows kept.", desc, len(left))), nil
	}

	kind := item.Join
	if kind != ast.JoinLeft {
		kind = ast.JoinInner
	}
	before := len(left)
	out := hashJoin(left, right, cond, kind)
	return out, append(explain, fmt.Sprintf("Performed %s JOIN with %s on %s = %s. %d -> %d",
		kind, desc, ast.Format(cond.left), ast.Format(cond.right), before, len(out))), nil
}

// sortRows orders rows in place by the ORDER BY keys. Keys are evaluated
// once per row. NULL sorts before any value; DESC reverses the order.
func (r *run) sortRows(rows []*row.Row, s *ast.Select, aggregated bool) {
	exprs := make([]ast.Expr, len(s.OrderBy))
	for i, o := range s.OrderBy {
		exprs[i] = o.Expr
		if !aggregated {
			exprs[i] = resolveAlias(o.Expr, s.Columns)
		}
	}

	keys := make(map[*row.Row][]any, len(rows))
	for _, rw := range rows {
		k := make([]any, len(exprs))
		for i, e := range exprs {
			k[i] = r.eval(e, rw)
		}
		keys[rw] = k
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := keys[rows[i]], keys[rows[j]]
		for k, o := range s.OrderBy {
			c := sortOrder(a[k], b[k])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// resolveAlias replaces an unqualified reference to a projection alias with
// the aliased expression, so ORDER BY can name computed columns before
// projection has run.
func resolveAlias(expr ast.Expr, items []ast.SelectItem) ast.Expr {
	ref, ok := expr.(*ast.ColumnRef)
	if !ok || ref.Table != "" {
		return expr
	}
	for _, item := range items {
		if item.Star || item.Alias == "" || !strings.EqualFold(item.Alias, ref.Column) {
			continue
		}
		if inner, ok := item.Expr.(*ast.ColumnRef); ok && strings.EqualFold(inner.Column, ref.Column) {
			return expr
		}
		return item.Expr
	}
	return expr
}

// sortOrder compares ORDER BY keys: NULL first, numbers numerically, all
// other values as lower-cased text.
func sortOrder(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(row.String(a)), strings.ToLower(row.String(b)))
}

// limits evaluates OFFSET and LIMIT. A missing or negative LIMIT means no
// limit (-1).
func (r *run) limits(s *ast.Select) (offset, limit int) {
	limit = -1
	if s.Limit != nil {
		if n, ok := row.Number(r.eval(s.Limit, nil)); ok && n >= 0 {
			limit = int(math.Floor(n))
		}
	}
	if s.Offset != nil {
		if n, ok := row.Number(r.eval(s.Offset, nil)); ok && n > 0 {
			offset = int(math.Floor(n))
		}
	}
	return offset, limit
}

func window(rows []*row.Row, offset, limit int) []*row.Row {
	if offset >= len(rows) {
		return []*row.Row{}
	}
	rows = rows[offset:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func limitLine(offset, limit, before, after int) string {
	switch {
	case limit >= 0 && offset > 0:
		return fmt.Sprintf("Limited to %d rows after skipping %d. %d -> %d", limit, offset, before, after)
	case limit >= 0:
		return fmt.Sprintf("Limited to %d rows. %d -> %d", limit, before, after)
	default:
		return fmt.Sprintf("Skipped %d rows. %d -> %d", offset, before, after)
	}
}

// project builds the output rows and column list.
//
// A lone `*` returns every column of the first row, so an empty result has
// no columns. Aggregated rows already carry their output columns by name.
func (r *run) project(rows []*row.Row, s *ast.Select, aggregated bool) ([]*row.Row, []string) {
	if len(s.Columns) == 1 && s.Columns[0].Star {
		columns := []string{}
		if len(rows) > 0 {
			columns = rows[0].Keys()
		}
		out := make([]*row.Row, len(rows))
		for i, rw := range rows {
			out[i] = rw.Clone()
			out[i].ID = ""
		}
		return out, columns
	}

	out := make([]*row.Row, len(rows))
	for i, rw := range rows {
		projected := row.New()
		for _, item := range s.Columns {
			if item.Star {
				for _, k := range rw.Keys() {
					v, _ := rw.Get(k)
					projected.Set(k, v)
				}
				continue
			}
			name := ast.ColumnName(item)
			if aggregated {
				v, _ := rw.Get(name)
				projected.Set(name, v)
				continue
			}
			projected.Set(name, r.eval(item.Expr, rw))
		}
		out[i] = projected
	}

	var columns []string
	if len(out) > 0 {
		columns = out[0].Keys()
	} else {
		columns = staticColumns(s.Columns)
	}
	return out, columns
}

// staticColumns lists the output names of non-star items, used when there
// are no rows to read column names from.
func staticColumns(items []ast.SelectItem) []string {
	columns := []string{}
	seen := make(map[string]bool)
	for _, item := range items {
		if item.Star {
			continue
		}
		name := ast.ColumnName(item)
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}
	return columns
}

// distinct removes rows equal to an earlier row, keeping first occurrences.
func distinct(rows []*row.Row) []*row.Row {
	out := make([]*row.Row, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, rw := range rows {
		b, err := rw.MarshalJSON()
		if err != nil {
			out = append(out, rw)
			continue
		}
		key := string(b)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rw)
	}
	return out
}

func formatExprs(exprs []ast.Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ast.Format(e)
	}
	return strings.Join(parts, ", ")
}
