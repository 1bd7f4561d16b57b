package store

import (
	"context"
	"errors"
	"testing"

	"github.com/sharebite/sharebite/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, s, "testuser", "Test User", "hash123", model.RoleShelter)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Role != model.RoleShelter {
		t.Errorf("expected role 'shelter', got %q", user.Role)
	}

	got, err := GetUser(ctx, s, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "testuser" || got.Name != "Test User" {
		t.Errorf("unexpected user %+v", got)
	}
	if got.PasswordHash != "hash123" {
		t.Errorf("expected password hash to be stored, got %q", got.PasswordHash)
	}
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, s, "alice", "", "hash", model.RoleRestaurant); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := CreateUser(ctx, s, "alice", "", "hash", model.RoleShelter)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	CreateUser(ctx, s, "alice", "", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, s, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != "alice" {
		t.Errorf("expected 'alice', got %q", user.Username)
	}

	missing, err := GetUserByUsername(ctx, s, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListUsers(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	CreateUser(ctx, s, "b", "", "hash", model.RoleVolunteer)
	CreateUser(ctx, s, "a", "", "hash", model.RoleRestaurant)

	users, err := ListUsers(ctx, s)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Username != "a" {
		t.Errorf("expected users sorted by username, got %q first", users[0].Username)
	}
}

func TestDeleteUser(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, s, "deleteme", "", "hash", model.RoleShelter)
	if err := DeleteUser(ctx, s, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsers(ctx, s)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	// Still fetchable so that logins can be refused.
	got, _ := GetUser(ctx, s, user.ID)
	if got == nil || got.DeletedAt == nil {
		t.Error("expected soft-deleted user with deleted_at set")
	}

	// Deleted users are not updated.
	UpdateUser(ctx, s, user.ID, model.RoleAdmin)
	got, _ = GetUser(ctx, s, user.ID)
	if got.Role != model.RoleShelter {
		t.Errorf("expected deleted user's role unchanged, got %q", got.Role)
	}
}

func TestUpdateUser(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, s, "promote", "", "hash", model.RoleVolunteer)
	if err := UpdateUser(ctx, s, user.ID, model.RoleRestaurant); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, _ := GetUser(ctx, s, user.ID)
	if got.Role != model.RoleRestaurant {
		t.Errorf("expected role 'restaurant', got %q", got.Role)
	}

	if err := UpdateUser(ctx, s, "missing", model.RoleAdmin); err != nil {
		t.Errorf("expected missing user to be ignored, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, s, "pwuser", "", "oldhash", model.RoleShelter)
	UpdateUserPassword(ctx, s, user.ID, "newhash")

	got, _ := GetUser(ctx, s, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}
