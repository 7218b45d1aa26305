package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/store"
)

// columnTypes maps declared SQL type names (lower-cased, without length or
// precision) onto the store's type enum.
var columnTypes = map[string]store.ColumnType{
	"int":               store.TypeInt,
	"integer":           store.TypeInt,
	"int2":              store.TypeInt,
	"int4":              store.TypeInt,
	"int8":              store.TypeInt,
	"smallint":          store.TypeInt,
	"tinyint":           store.TypeInt,
	"mediumint":         store.TypeInt,
	"bigint":            store.TypeInt,
	"serial":            store.TypeInt,
	"bigserial":         store.TypeInt,
	"number":            store.TypeInt,
	"float":             store.TypeFloat,
	"float4":            store.TypeFloat,
	"float8":            store.TypeFloat,
	"real":              store.TypeFloat,
	"double":            store.TypeFloat,
	"double precision":  store.TypeFloat,
	"numeric":           store.TypeFloat,
	"decimal":           store.TypeFloat,
	"bool":              store.TypeBoolean,
	"boolean":           store.TypeBoolean,
	"date":              store.TypeDate,
	"timestamp":         store.TypeTimestamp,
	"timestamptz":       store.TypeTimestamp,
	"datetime":          store.TypeTimestamp,
	"text":              store.TypeText,
	"varchar":           store.TypeVarchar,
	"char":              store.TypeVarchar,
	"bpchar":            store.TypeVarchar,
	"character":         store.TypeVarchar,
	"character varying": store.TypeVarchar,
	"string":            store.TypeVarchar,
}

// mapColumnType maps a declared type such as "VARCHAR(255)" or "int4" to a
// column type. Unrecognized types map to VARCHAR.
func mapColumnType(declared string) store.ColumnType {
	name := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.TrimPrefix(name, "pg_catalog.")
	if t, ok := columnTypes[name]; ok {
		return t
	}
	return store.TypeVarchar
}

// pendingConstraint is a key constraint collected from a column or table
// definition, created once the table exists.
type pendingConstraint struct {
	kind       store.ConstraintType
	columns    []string
	refTable   string
	refColumns []string
}

// createTable handles CREATE TABLE.
//
// The table and its columns are written first; PRIMARY KEY and FOREIGN KEY
// constraints follow in a second pass. A FOREIGN KEY whose target table
// cannot be found is skipped with a warning and the statement still
// succeeds.
func (r *run) createTable(s *ast.CreateTable) (*Result, error) {
	if _, err := r.lookupTable(s.Table); err == nil {
		if s.IfNotExists {
			return messageResult("Table '%s' already exists, skipped.", s.Table), nil
		}
		return nil, newQueryError(ErrCodeTableExists, "table '%s' already exists", s.Table)
	} else if !IsTableNotFound(err) {
		return nil, err
	}

	columns := make([]store.Column, 0, len(s.Columns))
	var pending []pendingConstraint
	for _, def := range s.Columns {
		columns = append(columns, columnFromDef(def))
		pending = append(pending, inlineConstraints(def)...)
	}
	for _, tc := range s.Constraints {
		p := pendingConstraint{columns: tc.Columns}
		switch tc.Kind {
		case ast.ConstraintPrimaryKey:
			p.kind = store.PrimaryKey
		case ast.ConstraintForeignKey:
			if tc.References == nil {
				continue
			}
			p.kind = store.ForeignKey
			p.refTable = tc.References.Table
			p.refColumns = tc.References.Columns
		default:
			continue
		}
		pending = append(pending, p)
	}

	table, err := r.repo.CreateTable(r.ctx, r.sess.Scope(), s.Table, columns)
	if err != nil {
		if errors.Is(err, store.ErrTableExists) {
			return nil, newQueryError(ErrCodeTableExists, "table '%s' already exists", s.Table)
		}
		return nil, fmt.Errorf("create table %s: %w", s.Table, err)
	}

	created, err := r.createConstraints(table, pending)
	if err != nil {
		return nil, err
	}
	return messageResult("Table '%s' created successfully with %d constraints.", table.Name, created), nil
}

func columnFromDef(def ast.ColumnDef) store.Column {
	c := store.Column{
		Name:       def.Name,
		Type:       mapColumnType(def.DataType),
		PrimaryKey: def.PrimaryKey,
		Nullable:   !def.NotNull && !def.PrimaryKey,
	}
	if def.Default != nil {
		c.Default = ast.Format(def.Default)
	}
	return c
}

func inlineConstraints(def ast.ColumnDef) []pendingConstraint {
	var out []pendingConstraint
	if def.PrimaryKey {
		out = append(out, pendingConstraint{kind: store.PrimaryKey, columns: []string{def.Name}})
	}
	if def.References != nil {
		out = append(out, pendingConstraint{
			kind:       store.ForeignKey,
			columns:    []string{def.Name},
			refTable:   def.References.Table,
			refColumns: def.References.Columns,
		})
	}
	return out
}

// createConstraints persists collected constraints and returns how many
// were created.
func (r *run) createConstraints(table store.Table, pending []pendingConstraint) (int, error) {
	if len(pending) == 0 {
		return 0, nil
	}
	var tables []store.Table
	created := 0
	for _, p := range pending {
		c := store.Constraint{Type: p.kind, TableID: table.ID, Columns: p.columns}
		if p.kind == store.ForeignKey {
			if tables == nil {
				var err error
				if tables, err = r.repo.ListTables(r.ctx, r.sess.Scope()); err != nil {
					return created, fmt.Errorf("list tables: %w", err)
				}
			}
			ref, ok := findTableFold(tables, p.refTable)
			if !ok {
				r.logger.Warn("foreign key target not found, constraint skipped",
					"table", table.Name,
					"columns", strings.Join(p.columns, ","),
					"references", p.refTable,
				)
				continue
			}
			c.RefTableID = ref.ID
			c.RefColumns = p.refColumns
		}
		if _, err := r.repo.CreateConstraint(r.ctx, r.sess.Scope(), c); err != nil {
			return created, fmt.Errorf("create %s constraint on %s: %w", p.kind, table.Name, err)
		}
		created++
	}
	return created, nil
}

// findTableFold finds a table by case-insensitive name.
func findTableFold(tables []store.Table, name string) (store.Table, bool) {
	for _, t := range tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return store.Table{}, false
}

// dropTable handles DROP TABLE. Each table goes with its columns, rows and
// constraints, including constraints of other tables that reference it.
func (r *run) dropTable(s *ast.DropTable) (*Result, error) {
	var messages []string
	for _, name := range s.Tables {
		table, err := r.lookupTable(name)
		if err != nil {
			if s.IfExists && IsTableNotFound(err) {
				messages = append(messages, fmt.Sprintf("Table '%s' does not exist, skipped.", name))
				continue
			}
			return nil, err
		}
		if err := r.repo.DeleteTable(r.ctx, r.sess.Scope(), table.ID); err != nil {
			return nil, fmt.Errorf("drop table %s: %w", name, err)
		}
		r.invalidate(table.ID)
		messages = append(messages, fmt.Sprintf("Table '%s' dropped successfully.", name))
	}
	return messageResult("%s", strings.Join(messages, " ")), nil
}

// alterTable handles ALTER TABLE. Only ADD COLUMN is implemented; any other
// alteration fails with UNSUPPORTED_ALTER before touching the store.
func (r *run) alterTable(s *ast.AlterTable) (*Result, error) {
	if s.Action != ast.AlterAddColumn || s.Column == nil {
		detail := s.Detail
		if detail == "" {
			detail = string(s.Action)
		}
		return nil, newQueryError(ErrCodeUnsupportedAlter, "ALTER TABLE %s is not supported", detail)
	}
	table, err := r.lookupTable(s.Table)
	if err != nil {
		return nil, err
	}

	col, err := r.repo.AddColumn(r.ctx, r.sess.Scope(), table.ID, columnFromDef(*s.Column))
	if err != nil {
		if errors.Is(err, store.ErrColumnExists) {
			return nil, newQueryError(ErrCodeColumnExists, "column '%s' already exists in table '%s'", s.Column.Name, table.Name)
		}
		return nil, fmt.Errorf("add column %s to %s: %w", s.Column.Name, table.Name, err)
	}
	if _, err := r.createConstraints(table, inlineConstraints(*s.Column)); err != nil {
		return nil, err
	}
	return messageResult("Column '%s' added to table '%s'.", col.Name, table.Name), nil
}
