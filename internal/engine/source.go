package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/row"
	"github.com/roach88/docsql/internal/store"
)

// maxSeriesRows bounds GENERATE_SERIES output.
const maxSeriesRows = 1_000_000

// lookupTable resolves a table name to its metadata by exact, case-sensitive
// match within the session's project.
func (r *run) lookupTable(name string) (store.Table, error) {
	tables, err := r.repo.ListTables(r.ctx, r.sess.Scope())
	if err != nil {
		return store.Table{}, fmt.Errorf("list tables: %w", err)
	}
	for _, t := range tables {
		if t.Name == name {
			return t, nil
		}
	}
	return store.Table{}, newQueryError(ErrCodeTableNotFound, "table '%s' does not exist", name)
}

// getAllRows returns every row of a table, from the cache when fresh.
// The returned rows may be shared with the cache and must not be modified.
func (r *run) getAllRows(name string) ([]*row.Row, store.Table, error) {
	table, err := r.lookupTable(name)
	if err != nil {
		return nil, store.Table{}, err
	}
	rows, err := r.tableRows(table)
	return rows, table, err
}

func (r *run) tableRows(table store.Table) ([]*row.Row, error) {
	project := r.sess.ProjectID()
	if rows, ok := r.cache.Get(project, table.ID); ok {
		r.metrics.ObserveCache(true)
		return rows, nil
	}
	r.metrics.ObserveCache(false)

	rows, err := r.repo.ReadRows(r.ctx, r.sess.Scope(), table.ID)
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", table.Name, err)
	}
	r.cache.Put(project, table.ID, rows)
	return rows, nil
}

// invalidate drops a table's cached rows after a write.
func (r *run) invalidate(tableID string) {
	r.cache.Invalidate(r.sess.ProjectID(), tableID)
}

// resolveSource produces the rows of one FROM entry and a description for
// the explanation trace.
func (r *run) resolveSource(item ast.FromItem) ([]*row.Row, string, error) {
	switch src := item.Source.(type) {
	case *ast.TableSource:
		rows, _, err := r.getAllRows(src.Name)
		if err != nil {
			return nil, "", err
		}
		return rows, fmt.Sprintf("table '%s'", src.Name), nil
	case *ast.FuncSource:
		if src.Call == nil || !strings.EqualFold(src.Call.Name, "GENERATE_SERIES") {
			name := ""
			if src.Call != nil {
				name = src.Call.Name
			}
			return nil, "", newQueryError(ErrCodeUnsupportedStatement, "unsupported table function %s", name)
		}
		column := item.Alias
		if column == "" {
			column = "generate_series"
		}
		rows, err := r.generateSeries(src.Call, column)
		if err != nil {
			return nil, "", err
		}
		return rows, "GENERATE_SERIES", nil
	default:
		return nil, "", newQueryError(ErrCodeUnsupportedStatement, "unsupported FROM source")
	}
}

// generateSeries implements GENERATE_SERIES(start, end[, step]) as a
// single-column row set. A negative step counts down.
func (r *run) generateSeries(call *ast.Func, column string) ([]*row.Row, error) {
	if len(call.Args) < 2 || len(call.Args) > 3 {
		return nil, newQueryError(ErrCodeInvalidArgument, "GENERATE_SERIES takes 2 or 3 arguments, got %d", len(call.Args))
	}
	start, ok1 := row.Number(r.eval(call.Args[0], nil))
	end, ok2 := row.Number(r.eval(call.Args[1], nil))
	step, ok3 := 1.0, true
	if len(call.Args) == 3 {
		step, ok3 = row.Number(r.eval(call.Args[2], nil))
	}
	if !ok1 || !ok2 || !ok3 {
		return nil, newQueryError(ErrCodeInvalidArgument, "GENERATE_SERIES arguments must be numeric")
	}
	if step == 0 {
		return nil, newQueryError(ErrCodeInvalidArgument, "GENERATE_SERIES step cannot be zero")
	}

	count := math.Floor((end-start)/step) + 1
	if count <= 0 {
		return []*row.Row{}, nil
	}
	if count > maxSeriesRows {
		return nil, newQueryError(ErrCodeInvalidArgument, "GENERATE_SERIES would produce more than %d rows", maxSeriesRows)
	}

	rows := make([]*row.Row, 0, int(count))
	for i := 0; i < int(count); i++ {
		rows = append(rows, row.Of(column, start+float64(i)*step))
	}
	return rows, nil
}
