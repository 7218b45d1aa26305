package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// querier is satisfied by *sql.DB and *sql.Tx.
// With a single pooled connection, code running inside a transaction must
// query through the transaction, never through the DB.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// newID returns a time-ordered UUIDv7 string.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// EnsureProject creates the project if it does not exist and makes ownerID a
// member. Calling it again for an existing project only adds the membership.
func (s *SQLiteStore) EnsureProject(ctx context.Context, projectID, ownerID string) error {
	if projectID == "" || ownerID == "" {
		return fmt.Errorf("ensure project: project and owner are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO projects (id, owner_id) VALUES (?, ?)`,
		projectID, ownerID,
	); err != nil {
		return fmt.Errorf("ensure project: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO project_members (project_id, actor_id) VALUES (?, ?)`,
		projectID, ownerID,
	); err != nil {
		return fmt.Errorf("ensure project member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AddMember grants actorID access to the scope's project.
// The scope's own actor must already be a member.
func (s *SQLiteStore) AddMember(ctx context.Context, scope Scope, actorID string) error {
	if err := s.authorize(ctx, s.db, scope); err != nil {
		return err
	}
	if actorID == "" {
		return fmt.Errorf("add member: actor is required")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO project_members (project_id, actor_id) VALUES (?, ?)`,
		scope.ProjectID, actorID,
	); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// authorize checks that the scope's actor belongs to the scope's project.
func (s *SQLiteStore) authorize(ctx context.Context, q querier, scope Scope) error {
	if scope.ActorID == "" || scope.ProjectID == "" {
		return fmt.Errorf("%w: project and actor are required", ErrUnauthorized)
	}
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM project_members WHERE project_id = ? AND actor_id = ?`,
		scope.ProjectID, scope.ActorID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: actor %q is not a member of project %q", ErrUnauthorized, scope.ActorID, scope.ProjectID)
	}
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

// checkTable authorizes the scope and verifies tableID belongs to its project.
func (s *SQLiteStore) checkTable(ctx context.Context, q querier, scope Scope, tableID string) error {
	if err := s.authorize(ctx, q, scope); err != nil {
		return err
	}
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM tables WHERE id = ? AND project_id = ?`,
		tableID, scope.ProjectID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	if err != nil {
		return fmt.Errorf("check table: %w", err)
	}
	return nil
}
