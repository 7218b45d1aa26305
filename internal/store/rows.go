package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/docsql/internal/row"
)

// InsertRows stores each row as a JSON document.
//
// A non-empty row.ID is used as the storage id, otherwise a UUIDv7 is
// generated. A row without an "id" column gets one equal to its storage id.
// Rows are written in chunks of MaxBatchSize, one transaction per chunk; an
// error in a later chunk leaves earlier chunks committed.
func (s *SQLiteStore) InsertRows(ctx context.Context, scope Scope, tableID string, rows []*row.Row) ([]string, error) {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, chunk := range chunks(rows) {
		written, err := s.insertChunk(ctx, tableID, chunk)
		ids = append(ids, written...)
		if err != nil {
			return ids, err
		}
	}
	return ids, nil
}

func (s *SQLiteStore) insertChunk(ctx context.Context, tableID string, rows []*row.Row) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		id := r.ID
		if id == "" {
			id = newID()
		}
		doc := r
		if !r.Has("id") {
			doc = row.Of("id", id).Merge(r)
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal document: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, table_id, body) VALUES (?, ?, ?)`,
			id, tableID, string(body),
		); err != nil {
			return nil, fmt.Errorf("insert document %s: %w", id, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ids, nil
}

// UpdateRows merges patch over each identified document: existing keys are
// overwritten in place, new keys are appended. Unknown ids are ignored.
func (s *SQLiteStore) UpdateRows(ctx context.Context, scope Scope, tableID string, ids []string, patch *row.Row) (int, error) {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return 0, err
	}

	updated := 0
	for _, chunk := range chunks(ids) {
		n, err := s.updateChunk(ctx, tableID, chunk, patch)
		updated += n
		if err != nil {
			return updated, err
		}
	}
	return updated, nil
}

func (s *SQLiteStore) updateChunk(ctx context.Context, tableID string, ids []string, patch *row.Row) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	updated := 0
	for _, id := range ids {
		var body string
		err := tx.QueryRowContext(ctx,
			`SELECT body FROM documents WHERE table_id = ? AND id = ?`, tableID, id,
		).Scan(&body)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return 0, fmt.Errorf("read document %s: %w", id, err)
		}

		doc := row.New()
		if err := json.Unmarshal([]byte(body), doc); err != nil {
			return 0, fmt.Errorf("unmarshal document %s: %w", id, err)
		}
		for _, k := range patch.Keys() {
			v, _ := patch.Get(k)
			doc.Set(k, v)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("marshal document %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET body = ? WHERE table_id = ? AND id = ?`,
			string(out), tableID, id,
		); err != nil {
			return 0, fmt.Errorf("update document %s: %w", id, err)
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return updated, nil
}

// DeleteRows removes the identified documents in chunks of MaxBatchSize.
func (s *SQLiteStore) DeleteRows(ctx context.Context, scope Scope, tableID string, ids []string) (int, error) {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return 0, err
	}

	deleted := 0
	for _, chunk := range chunks(ids) {
		args := make([]any, 0, len(chunk)+1)
		args = append(args, tableID)
		for _, id := range chunk {
			args = append(args, id)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		res, err := s.db.ExecContext(ctx,
			`DELETE FROM documents WHERE table_id = ? AND id IN (`+placeholders+`)`, args...,
		)
		if err != nil {
			return deleted, fmt.Errorf("delete documents: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("delete documents: %w", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}

// ReadRows returns every document of the table in insertion order, with
// row.ID set to the storage id.
func (s *SQLiteStore) ReadRows(ctx context.Context, scope Scope, tableID string) ([]*row.Row, error) {
	if err := s.checkTable(ctx, s.db, scope, tableID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, body
		FROM documents
		WHERE table_id = ?
		ORDER BY seq ASC
	`, tableID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []*row.Row{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc := row.New()
		if err := json.Unmarshal([]byte(body), doc); err != nil {
			return nil, fmt.Errorf("unmarshal document %s: %w", id, err)
		}
		doc.ID = id
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// chunks splits items into consecutive slices of at most MaxBatchSize.
func chunks[T any](items []T) [][]T {
	var out [][]T
	for len(items) > MaxBatchSize {
		out = append(out, items[:MaxBatchSize])
		items = items[MaxBatchSize:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
