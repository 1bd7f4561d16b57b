package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/model"
)

// userDoc is the stored form of a user. model.User never serializes the
// password hash.
type userDoc struct {
	model.User
	PasswordHash string `json:"password_hash"`
}

func decodeUser(doc *docstore.Document) (*model.User, error) {
	var u userDoc
	if err := doc.DataTo(&u); err != nil {
		return nil, err
	}
	user := u.User
	user.ID = doc.ID
	user.PasswordHash = u.PasswordHash
	return &user, nil
}

// CreateUser creates a new user. Usernames are unique, including among
// deleted users.
func CreateUser(ctx context.Context, s docstore.Store, username, name, passwordHash, role string) (*model.User, error) {
	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		existing, err := tx.Query(ctx, CollectionUsers, docstore.Where("username", docstore.OpEqual, username))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrUsernameTaken
		}
		return tx.Set(ctx, CollectionUsers, user.ID, userDoc{User: *user, PasswordHash: passwordHash})
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by ID, or nil if there is none.
func GetUser(ctx context.Context, s docstore.Reader, id string) (*model.User, error) {
	doc, err := s.Get(ctx, CollectionUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return decodeUser(doc)
}

// GetUserByUsername returns a user by username (including soft-deleted for auth checks).
func GetUserByUsername(ctx context.Context, s docstore.Reader, username string) (*model.User, error) {
	docs, err := s.Query(ctx, CollectionUsers, docstore.Where("username", docstore.OpEqual, username))
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeUser(&docs[0])
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, s docstore.Reader) ([]model.User, error) {
	docs, err := s.Query(ctx, CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for i := range docs {
		u, err := decodeUser(&docs[i])
		if err != nil {
			return nil, err
		}
		if u.DeletedAt == nil {
			users = append(users, *u)
		}
	}
	slices.SortFunc(users, func(a, b model.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

// UpdateUser updates a user's role.
func UpdateUser(ctx context.Context, s docstore.Store, id, role string) error {
	if err := updateActiveUser(ctx, s, id, map[string]any{"role": role}); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, s docstore.Store, id, passwordHash string) error {
	if err := updateActiveUser(ctx, s, id, map[string]any{"password_hash": passwordHash}); err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, s docstore.Store, id string) error {
	if err := updateActiveUser(ctx, s, id, map[string]any{"deleted_at": time.Now().UTC()}); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// updateActiveUser applies fields to a user that exists and is not deleted.
// Missing and deleted users are left alone.
func updateActiveUser(ctx context.Context, s docstore.Store, id string, fields map[string]any) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		u, err := GetUser(ctx, tx, id)
		if err != nil || u == nil || u.DeletedAt != nil {
			return err
		}
		return tx.Update(ctx, CollectionUsers, id, fields)
	})
}
