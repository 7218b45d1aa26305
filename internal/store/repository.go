package store

import (
	"context"
	"errors"

	"github.com/roach88/docsql/internal/row"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	// ErrUnauthorized is returned when the scope's actor is empty or is not a
	// member of the scope's project.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTableNotFound is returned for a table id that does not exist in the
	// scope's project.
	ErrTableNotFound = errors.New("table not found")

	// ErrTableExists is returned when creating a table whose name is taken.
	ErrTableExists = errors.New("table already exists")

	// ErrColumnExists is returned when adding a column whose name is taken.
	ErrColumnExists = errors.New("column already exists")
)

// Scope identifies who is acting on which project.
// Every repository call is authorized against it.
type Scope struct {
	ProjectID string
	ActorID   string
}

// ColumnType is the declared type of a column.
type ColumnType string

// Column types. TEXT and VARCHAR are both kept so schemas round-trip.
const (
	TypeInt       ColumnType = "INT"
	TypeFloat     ColumnType = "FLOAT"
	TypeBoolean   ColumnType = "BOOLEAN"
	TypeDate      ColumnType = "DATE"
	TypeTimestamp ColumnType = "TIMESTAMP"
	TypeText      ColumnType = "TEXT"
	TypeVarchar   ColumnType = "VARCHAR"
)

// ConstraintType distinguishes key constraints.
type ConstraintType string

// Constraint types.
const (
	PrimaryKey ConstraintType = "PRIMARY KEY"
	ForeignKey ConstraintType = "FOREIGN KEY"
)

// Table is a named row collection within a project.
type Table struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// Column describes one column of a table.
//
// Default holds the SQL text of the declared default (e.g. "'active'" or
// "NOW()"); empty means no default.
type Column struct {
	ID         string     `json:"id"`
	TableID    string     `json:"table_id"`
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	PrimaryKey bool       `json:"primary_key"`
	Nullable   bool       `json:"nullable"`
	Default    string     `json:"default,omitempty"`
	Position   int        `json:"position"`
}

// Constraint is a PRIMARY KEY or FOREIGN KEY record.
// RefTableID and RefColumns are set only for FOREIGN KEY.
type Constraint struct {
	ID         string         `json:"id"`
	Type       ConstraintType `json:"type"`
	TableID    string         `json:"table_id"`
	Columns    []string       `json:"columns"`
	RefTableID string         `json:"ref_table_id,omitempty"`
	RefColumns []string       `json:"ref_columns,omitempty"`
}

// Repository is the document store the engine reads and writes through.
type Repository interface {
	// ListTables returns the project's tables in creation order.
	ListTables(ctx context.Context, scope Scope) ([]Table, error)
	// CreateTable creates a table and its columns in one transaction.
	CreateTable(ctx context.Context, scope Scope, name string, columns []Column) (Table, error)
	// DeleteTable removes a table with its columns, rows, own constraints,
	// and constraints of other tables that reference it.
	DeleteTable(ctx context.Context, scope Scope, tableID string) error

	ListColumns(ctx context.Context, scope Scope, tableID string) ([]Column, error)
	AddColumn(ctx context.Context, scope Scope, tableID string, column Column) (Column, error)
	DeleteColumn(ctx context.Context, scope Scope, tableID, columnID string) error

	ListConstraints(ctx context.Context, scope Scope, tableID string) ([]Constraint, error)
	CreateConstraint(ctx context.Context, scope Scope, c Constraint) (Constraint, error)
	DeleteConstraint(ctx context.Context, scope Scope, constraintID string) error

	// InsertRows stores rows and returns their storage ids in input order.
	InsertRows(ctx context.Context, scope Scope, tableID string, rows []*row.Row) ([]string, error)
	// UpdateRows merges patch into each identified document and returns the
	// number of documents changed.
	UpdateRows(ctx context.Context, scope Scope, tableID string, ids []string, patch *row.Row) (int, error)
	// DeleteRows removes the identified documents and returns how many existed.
	DeleteRows(ctx context.Context, scope Scope, tableID string, ids []string) (int, error)
	// ReadRows returns every document of the table in insertion order.
	ReadRows(ctx context.Context, scope Scope, tableID string) ([]*row.Row, error)
}
