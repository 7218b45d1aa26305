package ast

import "strings"

// Expr is a scalar or boolean expression node.
//
// This is a sealed interface - only types in this package implement it.
//
// Expression types:
//   - ColumnRef: [table.]column
//   - Literal: string, number, boolean or NULL
//   - Binary: arithmetic, concatenation, comparison and logical operators
//   - Unary: NOT and arithmetic negation
//   - List: parenthesized value list (IN operand)
//   - Func: function call, including aggregates
//   - Cast: CAST(expr AS type)
//   - Unsupported: anything else the parser accepted
type Expr interface {
	exprNode()
}

// ColumnRef references a column, optionally qualified by table name or alias.
type ColumnRef struct {
	Table  string
	Column string
}

// Literal is a constant. Value is nil, string, float64 or bool.
type Literal struct {
	Value any
}

// Binary operators. Comparison operators are upper-cased keywords or symbols.
const (
	OpAnd     = "AND"
	OpOr      = "OR"
	OpEq      = "="
	OpNe      = "!="
	OpNeAlt   = "<>"
	OpLt      = "<"
	OpGt      = ">"
	OpLe      = "<="
	OpGe      = ">="
	OpIn      = "IN"
	OpNotIn   = "NOT IN"
	OpLike    = "LIKE"
	OpNotLike = "NOT LIKE"
	OpIs      = "IS"
	OpIsNot   = "IS NOT"
	OpAdd     = "+"
	OpSub     = "-"
	OpMul     = "*"
	OpDiv     = "/"
	OpMod     = "%"
	OpConcat  = "||"
	OpNot     = "NOT"
	OpNeg     = "-"
)

// Binary is a two-operand expression. For IS / IS NOT the right operand is a
// NULL literal; for IN / NOT IN it is a *List.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

// Unary is a one-operand expression (NOT, unary minus).
type Unary struct {
	Op   string
	Expr Expr
}

// List is a parenthesized list of expressions.
type List struct {
	Items []Expr
}

// Func is a function call. Name keeps the spelling the parser produced;
// dispatch is case-insensitive. Star marks COUNT(*).
type Func struct {
	Name     string
	Args     []Expr
	Star     bool
	Distinct bool
}

// Cast is CAST(expr AS type). Type is the declared target type name.
type Cast struct {
	Expr Expr
	Type string
}

// Unsupported stands in for a construct the engine does not evaluate.
// Kind names the construct for diagnostics (e.g. "CaseExpr").
type Unsupported struct {
	Kind string
}

// KindDefault is the Unsupported kind of a DEFAULT keyword in a VALUES tuple.
// INSERT replaces it with the column's declared default.
const KindDefault = "DEFAULT"

// IsDefault reports whether expr is the DEFAULT keyword.
func IsDefault(expr Expr) bool {
	u, ok := expr.(*Unsupported)
	return ok && u.Kind == KindDefault
}

func (*ColumnRef) exprNode()   {}
func (*Literal) exprNode()     {}
func (*Binary) exprNode()      {}
func (*Unary) exprNode()       {}
func (*List) exprNode()        {}
func (*Func) exprNode()        {}
func (*Cast) exprNode()        {}
func (*Unsupported) exprNode() {}

// Col builds a ColumnRef from a possibly dotted name ("t.col").
func Col(name string) *ColumnRef {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return &ColumnRef{Table: name[:i], Column: name[i+1:]}
	}
	return &ColumnRef{Column: name}
}

// Lit builds a Literal. Integer types are widened to float64.
func Lit(v any) *Literal {
	switch n := v.(type) {
	case int:
		return &Literal{Value: float64(n)}
	case int64:
		return &Literal{Value: float64(n)}
	case int32:
		return &Literal{Value: float64(n)}
	}
	return &Literal{Value: v}
}

// Null returns a NULL literal.
func Null() *Literal {
	return &Literal{}
}

// aggregateNames are the functions computed by the aggregation stage.
var aggregateNames = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"AVG":   true,
	"MIN":   true,
	"MAX":   true,
}

// IsAggregate reports whether expr is a call to COUNT, SUM, AVG, MIN or MAX.
func IsAggregate(expr Expr) bool {
	f, ok := expr.(*Func)
	return ok && aggregateNames[strings.ToUpper(f.Name)]
}
