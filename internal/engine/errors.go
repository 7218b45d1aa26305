package engine

import (
	"errors"
	"fmt"
)

// QueryError is a statement failure detected by the engine.
//
// Query errors include:
//   - Syntax: no dialect could parse the statement
//   - Reference: missing FROM, unknown table, INSERT column count mismatch
//   - Unsupported: statement kind, join kind or ALTER action not handled
//
// Evaluation gaps (unknown functions, missing columns) are never QueryErrors;
// they resolve to NULL or false.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Statement is the prefix of the failing statement, when known.
	Statement string
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeSyntax indicates no dialect accepted the statement text.
	ErrCodeSyntax ErrorCode = "SYNTAX_ERROR"

	// ErrCodeMissingFrom indicates a SELECT without a FROM clause.
	ErrCodeMissingFrom ErrorCode = "MISSING_FROM"

	// ErrCodeTableNotFound indicates a table name that does not exist in the project.
	ErrCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"

	// ErrCodeTableExists indicates CREATE TABLE for a name already taken.
	ErrCodeTableExists ErrorCode = "TABLE_EXISTS"

	// ErrCodeColumnExists indicates ALTER TABLE ADD COLUMN for a name already taken.
	ErrCodeColumnExists ErrorCode = "COLUMN_EXISTS"

	// ErrCodeColumnCountMismatch indicates an INSERT row whose arity differs
	// from its target column list.
	ErrCodeColumnCountMismatch ErrorCode = "COLUMN_COUNT_MISMATCH"

	// ErrCodeUnsupportedStatement indicates a parsed statement the engine cannot run.
	ErrCodeUnsupportedStatement ErrorCode = "UNSUPPORTED_STATEMENT"

	// ErrCodeUnsupportedAlter indicates an ALTER TABLE action other than ADD COLUMN.
	ErrCodeUnsupportedAlter ErrorCode = "UNSUPPORTED_ALTER"

	// ErrCodeUnsupportedJoin indicates RIGHT or FULL joins.
	ErrCodeUnsupportedJoin ErrorCode = "UNSUPPORTED_JOIN"

	// ErrCodeInvalidArgument indicates a bad argument to a row source or
	// command (e.g. GENERATE_SERIES step 0).
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("%s: %s (in %q)", e.Code, e.Message, e.Statement)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newQueryError(code ErrorCode, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of a *QueryError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsTableNotFound returns true if the error is a table-not-found error.
// Uses errors.As to handle wrapped errors.
func IsTableNotFound(err error) bool {
	return CodeOf(err) == ErrCodeTableNotFound
}

// IsSyntaxError returns true if the error is a syntax error.
// Uses errors.As to handle wrapped errors.
func IsSyntaxError(err error) bool {
	return CodeOf(err) == ErrCodeSyntax
}
