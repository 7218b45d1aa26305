package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ListTables returns the project's tables in creation order.
func (s *SQLiteStore) ListTables(ctx context.Context, scope Scope) ([]Table, error) {
	if err := s.authorize(ctx, s.db, scope); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name
		FROM tables
		WHERE project_id = ?
		ORDER BY seq ASC, id ASC
	`, scope.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := []Table{}
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// CreateTable creates the table and its columns atomically.
// Column positions are assigned from slice order.
func (s *SQLiteStore) CreateTable(ctx context.Context, scope Scope, name string, columns []Column) (Table, error) {
	if err := s.authorize(ctx, s.db, scope); err != nil {
		return Table{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Table{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t := Table{ID: newID(), ProjectID: scope.ProjectID, Name: name}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tables (id, project_id, name, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tables WHERE project_id = ?))
	`, t.ID, t.ProjectID, t.Name, t.ProjectID)
	if isUniqueViolation(err) {
		return Table{}, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	if err != nil {
		return Table{}, fmt.Errorf("insert table: %w", err)
	}

	for i, col := range columns {
		col.TableID = t.ID
		col.Position = i + 1
		if _, err := insertColumn(ctx, tx, col); err != nil {
			return Table{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Table{}, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

// DeleteTable removes the table. Columns, documents and constraints owned by
// or referencing the table are removed by ON DELETE CASCADE.
func (s *SQLiteStore) DeleteTable(ctx context.Context, scope Scope, tableID string) error {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, tableID); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	return nil
}

// ListColumns returns the table's columns ordered by position.
func (s *SQLiteStore) ListColumns(ctx context.Context, scope Scope, tableID string) ([]Column, error) {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_id, name, type, primary_key, nullable, COALESCE(default_value, ''), position
		FROM columns
		WHERE table_id = ?
		ORDER BY position ASC, id ASC
	`, tableID)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := []Column{}
	for rows.Next() {
		var c Column
		var typ string
		if err := rows.Scan(&c.ID, &c.TableID, &c.Name, &typ, &c.PrimaryKey, &c.Nullable, &c.Default, &c.Position); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Type = ColumnType(typ)
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

// AddColumn appends a column after the table's last position.
func (s *SQLiteStore) AddColumn(ctx context.Context, scope Scope, tableID string, column Column) (Column, error) {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return Column{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Column{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var last int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM columns WHERE table_id = ?`, tableID,
	).Scan(&last); err != nil {
		return Column{}, fmt.Errorf("query column position: %w", err)
	}
	column.TableID = tableID
	column.Position = last + 1

	column, err = insertColumn(ctx, tx, column)
	if err != nil {
		return Column{}, err
	}
	if err := tx.Commit(); err != nil {
		return Column{}, fmt.Errorf("commit transaction: %w", err)
	}
	return column, nil
}

// DeleteColumn removes a column definition. Document values are left as-is.
func (s *SQLiteStore) DeleteColumn(ctx context.Context, scope Scope, tableID, columnID string) error {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM columns WHERE id = ? AND table_id = ?`, columnID, tableID,
	); err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	return nil
}

func insertColumn(ctx context.Context, q querier, c Column) (Column, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	var def sql.NullString
	if c.Default != "" {
		def = sql.NullString{String: c.Default, Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO columns (id, table_id, name, type, primary_key, nullable, default_value, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.TableID, c.Name, string(c.Type), c.PrimaryKey, c.Nullable, def, c.Position)
	if isUniqueViolation(err) {
		return Column{}, fmt.Errorf("%w: %s", ErrColumnExists, c.Name)
	}
	if err != nil {
		return Column{}, fmt.Errorf("insert column %s: %w", c.Name, err)
	}
	return c, nil
}

// ListConstraints returns the table's own constraints in creation order.
func (s *SQLiteStore) ListConstraints(ctx context.Context, scope Scope, tableID string) ([]Constraint, error) {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, table_id, columns, COALESCE(ref_table_id, ''), ref_columns
		FROM constraints
		WHERE table_id = ?
		ORDER BY seq ASC, id ASC
	`, tableID)
	if err != nil {
		return nil, fmt.Errorf("query constraints: %w", err)
	}
	defer rows.Close()

	constraints := []Constraint{}
	for rows.Next() {
		var c Constraint
		var typ, cols, refCols string
		if err := rows.Scan(&c.ID, &typ, &c.TableID, &cols, &c.RefTableID, &refCols); err != nil {
			return nil, fmt.Errorf("scan constraint: %w", err)
		}
		c.Type = ConstraintType(typ)
		c.Columns = splitColumns(cols)
		c.RefColumns = splitColumns(refCols)
		constraints = append(constraints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate constraints: %w", err)
	}
	return constraints, nil
}

// CreateConstraint records a constraint on c.TableID. A FOREIGN KEY's
// RefTableID must name a table of the same project.
func (s *SQLiteStore) CreateConstraint(ctx context.Context, scope Scope, c Constraint) (Constraint, error) {
	if err := s.checkTable(ctx, s.db, scope, c.TableID); err != nil {
		return Constraint{}, err
	}

	var ref sql.NullString
	if c.RefTableID != "" {
		if err := s.checkTable(ctx, s.db, scope, c.RefTableID); err != nil {
			return Constraint{}, fmt.Errorf("referenced table: %w", err)
		}
		ref = sql.NullString{String: c.RefTableID, Valid: true}
	}

	if c.ID == "" {
		c.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO constraints (id, table_id, type, columns, ref_table_id, ref_columns, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM constraints))
	`, c.ID, c.TableID, string(c.Type), strings.Join(c.Columns, ","), ref, strings.Join(c.RefColumns, ","))
	if err != nil {
		return Constraint{}, fmt.Errorf("insert constraint: %w", err)
	}
	return c, nil
}

// DeleteConstraint removes a constraint of one of the project's tables.
func (s *SQLiteStore) DeleteConstraint(ctx context.Context, scope Scope, constraintID string) error {
	if err := s.authorize(ctx, s.db, scope); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM constraints
		WHERE id = ? AND table_id IN (SELECT id FROM tables WHERE project_id = ?)
	`, constraintID, scope.ProjectID); err != nil {
		return fmt.Errorf("delete constraint: %w", err)
	}
	return nil
}

func splitColumns(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
