// Package parser turns SQL text into ast statements.
//
// Two grammars are available: PostgreSQL (pg_query_go, the real PostgreSQL
// parser) and MySQL (xwb1989/sqlparser). A Parser tries its dialects in order
// and keeps the first successful translation, so casually written SQL that
// only one grammar accepts (backtick identifiers, double-quoted strings) still
// parses.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/docsql/internal/ast"
)

// Dialect translates one SQL statement into the generic tree.
type Dialect interface {
	// Name identifies the dialect in errors and configuration.
	Name() string

	// Parse translates exactly one statement.
	// Returns *UnsupportedError when the text is valid for the grammar but
	// the statement kind has no ast equivalent.
	Parse(sql string) (ast.Statement, error)
}

// Dialect names accepted by ParseDialectNames.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// DefaultDialects is the dialect order used when none is configured.
var DefaultDialects = []string{DialectPostgres, DialectMySQL}

// statementPrefixLen is how much of a failing statement errors quote.
const statementPrefixLen = 40

// DialectError is one dialect's rejection of a statement.
type DialectError struct {
	Dialect string
	Err     error
}

// SyntaxError is returned when no dialect accepts a statement.
type SyntaxError struct {
	// Statement is the first 40 characters of the failing statement.
	Statement string
	Errors    []DialectError
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "syntax error in %q", e.Statement)
	for _, de := range e.Errors {
		fmt.Fprintf(&b, "; %s: %v", de.Dialect, de.Err)
	}
	return b.String()
}

// UnsupportedError reports a statement a grammar accepted that docsql cannot
// execute (e.g. TRUNCATE, UNION, JOIN ... USING).
type UnsupportedError struct {
	Kind string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported statement: %s", e.Kind)
}

func unsupported(format string, args ...any) error {
	return &UnsupportedError{Kind: fmt.Sprintf(format, args...)}
}

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsUnsupported reports whether err is or wraps an *UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// Parser tries each dialect in order.
type Parser struct {
	Dialects []Dialect
}

// New returns a parser over the given dialects, or over PostgreSQL then MySQL
// when none are given.
func New(dialects ...Dialect) *Parser {
	if len(dialects) == 0 {
		dialects = []Dialect{Postgres(), MySQL()}
	}
	return &Parser{Dialects: dialects}
}

// Parse translates a single statement with the first dialect that accepts it.
//
// When every dialect fails the result is a *SyntaxError, unless some dialect
// understood the text but could not translate it, in which case that
// dialect's *UnsupportedError is returned.
func (p *Parser) Parse(stmt string) (ast.Statement, error) {
	var (
		errs     []DialectError
		unsupErr *UnsupportedError
	)
	for _, d := range p.Dialects {
		parsed, err := d.Parse(stmt)
		if err == nil {
			return parsed, nil
		}
		var ue *UnsupportedError
		if errors.As(err, &ue) && unsupErr == nil {
			unsupErr = ue
		}
		errs = append(errs, DialectError{Dialect: d.Name(), Err: err})
	}
	if unsupErr != nil {
		return nil, unsupErr
	}
	return nil, &SyntaxError{Statement: prefix(stmt), Errors: errs}
}

func prefix(stmt string) string {
	runes := []rune(stmt)
	if len(runes) <= statementPrefixLen {
		return stmt
	}
	return string(runes[:statementPrefixLen])
}

// ParseDialectNames builds a dialect list from configured names.
// An empty list yields the default order.
func ParseDialectNames(names []string) ([]Dialect, error) {
	if len(names) == 0 {
		names = DefaultDialects
	}
	dialects := make([]Dialect, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case DialectPostgres, "postgresql", "pg":
			dialects = append(dialects, Postgres())
		case DialectMySQL:
			dialects = append(dialects, MySQL())
		default:
			return nil, fmt.Errorf("unknown SQL dialect %q (valid: %s)", name, strings.Join(DefaultDialects, ", "))
		}
	}
	return dialects, nil
}

// desugarBetween rewrites `x BETWEEN lo AND hi` as `x >= lo AND x <= hi`,
// wrapped in NOT for NOT BETWEEN.
func desugarBetween(x, lo, hi ast.Expr, negate bool) ast.Expr {
	var out ast.Expr = &ast.Binary{
		Op:    ast.OpAnd,
		Left:  &ast.Binary{Op: ast.OpGe, Left: x, Right: lo},
		Right: &ast.Binary{Op: ast.OpLe, Left: x, Right: hi},
	}
	if negate {
		out = &ast.Unary{Op: ast.OpNot, Expr: out}
	}
	return out
}
