package ast

// Statement is a single parsed SQL statement.
//
// This is a sealed interface - only types in this package implement it.
type Statement interface {
	statementNode()
}

// Statement kinds returned by Kind.
const (
	KindSelect = "SELECT"
	KindInsert = "INSERT"
	KindUpdate = "UPDATE"
	KindDelete = "DELETE"
	KindCreate = "CREATE"
	KindDrop   = "DROP"
	KindAlter  = "ALTER"
)

// Kind returns the statement type used for handler dispatch.
// Returns "" for nil.
func Kind(stmt Statement) string {
	switch stmt.(type) {
	case *Select:
		return KindSelect
	case *Insert:
		return KindInsert
	case *Update:
		return KindUpdate
	case *Delete:
		return KindDelete
	case *CreateTable:
		return KindCreate
	case *DropTable:
		return KindDrop
	case *AlterTable:
		return KindAlter
	default:
		return ""
	}
}

// Select is a SELECT query.
//
// Semantics:
//
//	SELECT [DISTINCT] <columns> FROM <from...> [WHERE <where>]
//	[GROUP BY <group_by>] [HAVING <having>] [ORDER BY <order_by>]
//	[LIMIT <limit>] [OFFSET <offset>]
//
// From holds the primary source first; every later entry is joined onto the
// running result in order.
type Select struct {
	Distinct bool
	Columns  []SelectItem
	From     []FromItem
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderItem
	Limit    Expr
	Offset   Expr
}

// SelectItem is one entry of the projection list.
// Star is set for `*` and `t.*`; StarTable carries the qualifier when present.
type SelectItem struct {
	Expr      Expr
	Alias     string
	Star      bool
	StarTable string
}

// JoinKind identifies how a FromItem combines with the rows before it.
type JoinKind string

const (
	// JoinNone marks the primary FROM entry.
	JoinNone  JoinKind = ""
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	// JoinCross is a comma-separated FROM entry with no condition.
	JoinCross JoinKind = "CROSS"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL"
)

// FromItem is one row source in the FROM clause.
type FromItem struct {
	Source Source
	Alias  string
	Join   JoinKind
	On     Expr
}

// Name returns the alias when set, otherwise the source's own name.
func (f FromItem) Name() string {
	if f.Alias != "" {
		return f.Alias
	}
	switch s := f.Source.(type) {
	case *TableSource:
		return s.Name
	case *FuncSource:
		if s.Call != nil {
			return s.Call.Name
		}
	}
	return ""
}

// Source is a FROM-clause row origin.
//
// This is a sealed interface - only types in this package implement it.
type Source interface {
	sourceNode()
}

// TableSource reads a stored table by name.
type TableSource struct {
	Name string
}

// FuncSource is a function call in FROM position (e.g. GENERATE_SERIES).
type FuncSource struct {
	Call *Func
}

func (*TableSource) sourceNode() {}
func (*FuncSource) sourceNode()  {}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// Insert is an INSERT statement. Exactly one of Rows or Select is set.
type Insert struct {
	Table   string
	Columns []string
	Rows    [][]Expr
	Select  *Select
}

// Assignment is one `column = expr` entry of an UPDATE.
type Assignment struct {
	Column string
	Value  Expr
}

// Update is an UPDATE statement.
type Update struct {
	Table string
	Set   []Assignment
	Where Expr
}

// Delete is a DELETE statement.
type Delete struct {
	Table string
	Where Expr
}

// Reference is the target of a FOREIGN KEY.
type Reference struct {
	Table   string
	Columns []string
}

// ColumnDef is a column definition in CREATE TABLE or ALTER TABLE ADD COLUMN.
// DataType is the declared type as the dialect spelled it (e.g. "int4", "varchar").
type ColumnDef struct {
	Name       string
	DataType   string
	PrimaryKey bool
	NotNull    bool
	Default    Expr
	References *Reference
}

// ConstraintKind identifies a table-level constraint.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY KEY"
	ConstraintForeignKey ConstraintKind = "FOREIGN KEY"
)

// TableConstraint is a table-level PRIMARY KEY or FOREIGN KEY definition.
type TableConstraint struct {
	Kind       ConstraintKind
	Columns    []string
	References *Reference
}

// CreateTable is a CREATE TABLE statement.
type CreateTable struct {
	Table       string
	IfNotExists bool
	Columns     []ColumnDef
	Constraints []TableConstraint
}

// DropTable is a DROP TABLE statement.
type DropTable struct {
	Tables   []string
	IfExists bool
}

// AlterAction identifies the alteration requested by ALTER TABLE.
type AlterAction string

const (
	AlterAddColumn AlterAction = "ADD COLUMN"
	AlterOther     AlterAction = "OTHER"
)

// AlterTable is an ALTER TABLE statement. Column is set for AlterAddColumn;
// Detail names the alteration otherwise.
type AlterTable struct {
	Table  string
	Action AlterAction
	Column *ColumnDef
	Detail string
}

func (*Select) statementNode()      {}
func (*Insert) statementNode()      {}
func (*Update) statementNode()      {}
func (*Delete) statementNode()      {}
func (*CreateTable) statementNode() {}
func (*DropTable) statementNode()   {}
func (*AlterTable) statementNode()  {}
