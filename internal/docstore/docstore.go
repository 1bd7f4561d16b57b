// Package docstore defines a small transactional document store: JSON
// documents addressed by (collection, id), equality/range queries over
// top-level fields, atomic batches, and serializable transactions.
//
// Two backends are provided: Memory, used by tests, and SQL, which keeps the
// documents in a SQLite table.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrReadAfterWrite is returned when a transaction reads after it has
	// already buffered a write.
	ErrReadAfterWrite = errors.New("transaction reads must precede writes")

	// ErrInvalidFilter is returned for malformed query filters.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Document is a stored JSON object together with its id.
type Document struct {
	ID   string
	Data json.RawMessage
}

// DataTo decodes the document into dst.
func (d *Document) DataTo(dst any) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return fmt.Errorf("decoding document %s: %w", d.ID, err)
	}
	return nil
}

// Reader is the read half of the store contract.
type Reader interface {
	// Get returns the document or an error wrapping ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Query returns the documents of a collection matching every filter,
	// ordered by id.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}

// Writer is the write half of the store contract.
type Writer interface {
	// Set creates or replaces a document. v must encode to a JSON object.
	Set(ctx context.Context, collection, id string, v any) error
	// Update merges top-level fields into an existing document. Fails with
	// ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// Tx is the handle passed to RunTransaction. All reads must happen before
// the first write; writes are buffered and applied when the transaction
// function returns nil.
type Tx interface {
	Reader
	Writer
}

// Batch buffers writes and applies them all-or-nothing on Commit.
type Batch interface {
	Set(collection, id string, v any)
	Update(collection, id string, fields map[string]any)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

// Store is a transactional document store.
type Store interface {
	Reader
	Writer
	Batch() Batch
	// RunTransaction runs fn in a serializable transaction. If fn returns an
	// error none of its writes are applied and the error is returned as is.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

func notFound(collection, id string) error {
	return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
}
