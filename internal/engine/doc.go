// Package engine executes SQL statements against a document store.
//
// The store only knows whole documents, so every relational operation runs
// in memory over the full row set of the tables involved.
//
// ARCHITECTURE:
//
// Statement Flow:
// 1. Execute splits a submission on ';' (CALL GENERATE_DATA is matched
// textually and never reaches the parser)
// 2. Each statement is parsed into an ast.Statement and dispatched by kind
// 3. Statements run strictly one after another; the first failure stops the
// submission and earlier effects stay committed (no rollback)
//
// SELECT Pipeline (strictly ordered, each stage adds one explanation line):
// source → joins → WHERE → aggregation/HAVING → ORDER BY → LIMIT → projection
//
// Row Sources:
// Tables are read cache-first through the injected cache.RowCache; every
// mutating statement invalidates the affected table. GENERATE_SERIES in FROM
// position produces rows without touching the store.
//
// EVALUATION POLICY:
//
// Expression and predicate evaluation is tolerant: an unknown function or
// expression kind evaluates to NULL, a missing column makes a comparison
// false, and an unsupported operator is a non-match. Each case is logged at
// warning level and never aborts the statement.
//
// Structural problems (missing FROM, unknown table, column count mismatch,
// unsupported statement, join or ALTER) fail the statement with a
// *QueryError.
package engine
