package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQL is a Store backed by the documents table (see internal/db migrations).
// Transactions rely on the connection being opened with immediate locking,
// which makes them serializable: a second writer waits for the first.
type SQL struct {
	db *sql.DB
}

// NewSQL wraps an open database.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get implements Reader.
func (s *SQL) Get(ctx context.Context, collection, id string) (*Document, error) {
	return getDocument(ctx, s.db, collection, id)
}

// Query implements Reader.
func (s *SQL) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	return queryDocuments(ctx, s.db, collection, filters)
}

// Set implements Writer.
func (s *SQL) Set(ctx context.Context, collection, id string, v any) error {
	var w writeSet
	if err := w.set(collection, id, v); err != nil {
		return err
	}
	return s.commit(ctx, w.ops)
}

// Update implements Writer.
func (s *SQL) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	var w writeSet
	if err := w.update(collection, id, fields); err != nil {
		return err
	}
	return s.commit(ctx, w.ops)
}

// Delete implements Writer.
func (s *SQL) Delete(ctx context.Context, collection, id string) error {
	var w writeSet
	if err := w.delete(collection, id); err != nil {
		return err
	}
	return s.commit(ctx, w.ops)
}

// Batch implements Store.
func (s *SQL) Batch() Batch {
	return &sqlBatch{s: s}
}

// RunTransaction implements Store.
func (s *SQL) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stx := &sqlTx{tx: tx}
	if err := fn(ctx, stx); err != nil {
		return err
	}
	if stx.writes.err != nil {
		return stx.writes.err
	}
	if err := applyOps(ctx, tx, stx.writes.ops); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQL) commit(ctx context.Context, ops []writeOp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := applyOps(ctx, tx, ops); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing writes: %w", err)
	}
	return nil
}

func getDocument(ctx context.Context, q querier, collection, id string) (*Document, error) {
	var data string
	err := q.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return &Document{ID: id, Data: json.RawMessage(data)}, nil
}

func queryDocuments(ctx context.Context, q querier, collection string, filters []Filter) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = ?`
	args := []any{collection}

	for _, f := range filters {
		clause, fargs, err := f.sqlClause()
		if err != nil {
			return nil, err
		}
		query += ` AND ` + clause
		args = append(args, fargs...)
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning %s document: %w", collection, err)
		}
		docs = append(docs, Document{ID: id, Data: json.RawMessage(data)})
	}
	return docs, rows.Err()
}

func applyOps(ctx context.Context, tx *sql.Tx, ops []writeOp) error {
	now := time.Now().UTC()
	for _, op := range ops {
		switch op.kind {
		case opSet:
			_, err := tx.ExecContext(ctx,
				`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
				op.collection, op.id, string(op.data), now, now,
			)
			if err != nil {
				return fmt.Errorf("setting %s/%s: %w", op.collection, op.id, err)
			}

		case opUpdate:
			current, err := getDocument(ctx, tx, op.collection, op.id)
			if err != nil {
				return err
			}
			merged, err := mergeFields(current.Data, op.fields)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
				string(merged), now, op.collection, op.id,
			)
			if err != nil {
				return fmt.Errorf("updating %s/%s: %w", op.collection, op.id, err)
			}

		case opDelete:
			_, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = ? AND id = ?`,
				op.collection, op.id,
			)
			if err != nil {
				return fmt.Errorf("deleting %s/%s: %w", op.collection, op.id, err)
			}
		}
	}
	return nil
}

type sqlBatch struct {
	s      *SQL
	writes writeSet
}

func (b *sqlBatch) Set(collection, id string, v any) { _ = b.writes.set(collection, id, v) }

func (b *sqlBatch) Update(collection, id string, fields map[string]any) {
	_ = b.writes.update(collection, id, fields)
}

func (b *sqlBatch) Delete(collection, id string) { _ = b.writes.delete(collection, id) }

func (b *sqlBatch) Commit(ctx context.Context) error {
	if b.writes.err != nil {
		return b.writes.err
	}
	return b.s.commit(ctx, b.writes.ops)
}

type sqlTx struct {
	tx     *sql.Tx
	writes writeSet
}

func (t *sqlTx) Get(ctx context.Context, collection, id string) (*Document, error) {
	if len(t.writes.ops) > 0 {
		return nil, ErrReadAfterWrite
	}
	return getDocument(ctx, t.tx, collection, id)
}

func (t *sqlTx) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if len(t.writes.ops) > 0 {
		return nil, ErrReadAfterWrite
	}
	return queryDocuments(ctx, t.tx, collection, filters)
}

func (t *sqlTx) Set(ctx context.Context, collection, id string, v any) error {
	return t.writes.set(collection, id, v)
}

func (t *sqlTx) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return t.writes.update(collection, id, fields)
}

func (t *sqlTx) Delete(ctx context.Context, collection, id string) error {
	return t.writes.delete(collection, id)
}
