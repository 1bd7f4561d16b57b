// Package store keeps accounts and server settings in the document store.
package store

import (
	"errors"
	"testing"

	"github.com/sharebite/sharebite/internal/db"
	"github.com/sharebite/sharebite/internal/docstore"
)

// Collection names.
const (
	CollectionUsers         = "users"
	CollectionProfiles      = "profiles"
	CollectionSettings      = "settings"
	CollectionRevokedTokens = "revokedTokens"
)

// ErrUsernameTaken is returned when creating a user whose username exists.
var ErrUsernameTaken = errors.New("username already exists")

// NewTestStore returns a document store over a fresh migrated SQLite
// database.
func NewTestStore(t *testing.T) docstore.Store {
	t.Helper()
	return docstore.NewSQL(db.NewTestDB(t))
}
