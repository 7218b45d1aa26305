// Package store provides the SQLite-backed document store the engine runs on.
//
// Table metadata (tables, columns, constraints) is relational. Row data is
// not: each row is one JSON document keyed by a storage id (_id) that is
// distinct from any user-visible id column.
//
// # Critical Patterns
//
// Scoped access:
//   - Every Repository call takes a Scope{ProjectID, ActorID}
//   - The actor must be a member of the project, otherwise ErrUnauthorized
//   - Table ids from another project report ErrTableNotFound
//
// Ordering:
//   - Documents are read back in insertion order (seq INTEGER, AUTOINCREMENT)
//   - Tables and constraints list in creation order
//
// Batched writes:
//   - Row writes are split into chunks of MaxBatchSize
//   - Each chunk commits in its own transaction; there is no cross-chunk
//     atomicity
//
// Cascading drops:
//   - Deleting a table removes its columns, documents and constraints, and
//     every FOREIGN KEY of another table that references it
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and cascades
package store
