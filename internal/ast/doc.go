// Package ast defines the generic statement tree consumed by the docsql engine.
//
// Both SQL dialect front-ends in internal/parser translate their native parse
// trees into these types, so the engine only ever sees one shape per logical
// construct regardless of which grammar accepted the statement.
//
// ARCHITECTURE:
//
//	[SQL text] → [dialect parser] → [ast.Statement] → [engine handler]
//
// SEALED INTERFACES:
//
// Statement, Expr and Source are sealed interfaces using the marker method
// pattern. Only types in this package implement them, which keeps the
// evaluator's type switches exhaustive:
//
//	switch e := expr.(type) {
//	case *ColumnRef:
//	    // resolve against the row
//	case *Literal:
//	    // return the value
//	default:
//	    // unknown kinds evaluate to NULL
//	}
//
// Constructs a parser recognizes but the engine cannot evaluate (CASE,
// subqueries, window calls) are carried as *Unsupported so that projection
// and ordering degrade to NULL instead of failing the statement.
//
// VALUES:
//
// Literal values are limited to nil, string, float64 and bool. Every number is
// a float64, matching the representation rows have once they come back from
// the document store.
package ast
