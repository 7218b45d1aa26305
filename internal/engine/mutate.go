package engine

import (
	"fmt"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
	"github.com/roach88/docsql/internal/store"
)

// insert handles INSERT ... VALUES and INSERT ... SELECT.
//
// Target columns come from the explicit list, matched case-insensitively
// against the schema (an unmatched name is used as written), or from the
// full schema in position order. Values are evaluated against an empty row,
// so NOW() and other calls resolve inline. Schema columns missing from the
// target list receive their declared default, when they have one.
func (r *run) insert(s *ast.Insert) (*Result, error) {
	table, err := r.lookupTable(s.Table)
	if err != nil {
		return nil, err
	}
	schema, err := r.repo.ListColumns(r.ctx, r.sess.Scope(), table.ID)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table.Name, err)
	}

	targets := make([]string, 0, len(schema))
	if len(s.Columns) > 0 {
		for _, name := range s.Columns {
			targets = append(targets, schemaColumnName(schema, name))
		}
	} else {
		for _, c := range schema {
			targets = append(targets, c.Name)
		}
	}

	var tuples [][]any
	if s.Select != nil {
		res, err := r.selectRows(s.Select)
		if err != nil {
			return nil, err
		}
		for _, rw := range res.Rows {
			values := make([]any, len(res.Columns))
			for i, c := range res.Columns {
				values[i], _ = rw.Get(c)
			}
			tuples = append(tuples, values)
		}
		if len(res.Rows) > 0 && len(res.Columns) != len(targets) {
			return nil, newQueryError(ErrCodeColumnCountMismatch,
				"INSERT ... SELECT returns %d columns but %d target columns were given", len(res.Columns), len(targets))
		}
	}

	defaults := r.columnDefaults(schema)
	rows := make([]*row.Row, 0, len(s.Rows)+len(tuples))
	for i, exprs := range s.Rows {
		if len(exprs) != len(targets) {
			return nil, newQueryError(ErrCodeColumnCountMismatch,
				"row %d has %d values but %d columns were given", i+1, len(exprs), len(targets))
		}
		values := make([]any, len(exprs))
		for j, expr := range exprs {
			if ast.IsDefault(expr) {
				values[j] = defaults.value(targets[j])
				continue
			}
			values[j] = r.eval(expr, nil)
		}
		rows = append(rows, buildRow(targets, values, defaults))
	}
	for _, values := range tuples {
		rows = append(rows, buildRow(targets, values, defaults))
	}

	if len(rows) > 0 {
		ids, err := r.repo.InsertRows(r.ctx, r.sess.Scope(), table.ID, rows)
		r.invalidate(table.ID)
		r.metrics.AddRowsWritten(ast.KindInsert, len(ids))
		if err != nil {
			return nil, fmt.Errorf("insert into %s: %w", table.Name, err)
		}
	}
	return messageResult("%d rows inserted.", len(rows)), nil
}

// buildRow assembles one document: target columns in order, then defaults
// for schema columns the statement did not name.
func buildRow(targets []string, values []any, defaults *columnDefaults) *row.Row {
	rw := row.New()
	for i, name := range targets {
		rw.Set(name, values[i])
	}
	for _, name := range defaults.order {
		if _, ok := rw.Get(name); !ok {
			rw.Set(name, defaults.value(name))
		}
	}
	return rw
}

// update handles UPDATE. SET expressions are evaluated once against an
// empty row, so they cannot reference the row being updated.
func (r *run) update(s *ast.Update) (*Result, error) {
	rows, table, err := r.getAllRows(s.Table)
	if err != nil {
		return nil, err
	}
	ids := r.matchingIDs(rows, s.Where)
	if len(ids) == 0 {
		return messageResult("0 rows updated."), nil
	}

	schema, err := r.repo.ListColumns(r.ctx, r.sess.Scope(), table.ID)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table.Name, err)
	}
	patch := row.New()
	for _, a := range s.Set {
		patch.Set(schemaColumnName(schema, a.Column), r.eval(a.Value, nil))
	}

	n, err := r.repo.UpdateRows(r.ctx, r.sess.Scope(), table.ID, ids, patch)
	r.invalidate(table.ID)
	r.metrics.AddRowsWritten(ast.KindUpdate, n)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table.Name, err)
	}
	return messageResult("%d rows updated.", len(ids)), nil
}

// delete handles DELETE.
func (r *run) delete(s *ast.Delete) (*Result, error) {
	rows, table, err := r.getAllRows(s.Table)
	if err != nil {
		return nil, err
	}
	ids := r.matchingIDs(rows, s.Where)
	if len(ids) == 0 {
		return messageResult("0 rows deleted."), nil
	}

	n, err := r.repo.DeleteRows(r.ctx, r.sess.Scope(), table.ID, ids)
	r.invalidate(table.ID)
	r.metrics.AddRowsWritten(ast.KindDelete, n)
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", table.Name, err)
	}
	return messageResult("%d rows deleted.", len(ids)), nil
}

// matchingIDs returns the storage ids of the rows the predicate selects.
func (r *run) matchingIDs(rows []*row.Row, where ast.Expr) []string {
	var ids []string
	for _, rw := range rows {
		if rw.ID != "" && r.matches(where, rw) {
			ids = append(ids, rw.ID)
		}
	}
	return ids
}

// schemaColumnName maps a statement's column name onto the schema's
// spelling: exact match first, then case-insensitive, else as written.
func schemaColumnName(schema []store.Column, name string) string {
	name = ast.Unqualified(name)
	for _, c := range schema {
		if c.Name == name {
			return c.Name
		}
	}
	folded := row.FoldName(name)
	for _, c := range schema {
		if row.FoldName(c.Name) == folded {
			return c.Name
		}
	}
	return name
}

// columnDefaults evaluates declared column defaults lazily, at most once
// per statement, so every row of a multi-row INSERT shares one NOW().
type columnDefaults struct {
	r      *run
	order  []string
	exprs  map[string]string
	values map[string]any
}

func (r *run) columnDefaults(schema []store.Column) *columnDefaults {
	d := &columnDefaults{r: r, exprs: map[string]string{}, values: map[string]any{}}
	for _, c := range schema {
		if c.Default != "" {
			d.order = append(d.order, c.Name)
			d.exprs[c.Name] = c.Default
		}
	}
	return d
}

// value returns the default of a column, or nil when it has none or its
// stored text no longer parses.
func (d *columnDefaults) value(column string) any {
	if v, ok := d.values[column]; ok {
		return v
	}
	text, ok := d.exprs[column]
	if !ok {
		return nil
	}
	var v any
	parsed, err := d.r.parser.Parse("SELECT " + text)
	if sel, ok := parsed.(*ast.Select); err == nil && ok && len(sel.Columns) == 1 {
		v = d.r.eval(sel.Columns[0].Expr, nil)
	} else {
		d.r.logger.Warn("column default does not evaluate", "column", column, "default", text)
	}
	d.values[column] = v
	return v
}
