package store

import (
	"context"
	"testing"

	"github.com/sharebite/sharebite/internal/model"
)

func TestGetProfileDefaultsToEmpty(t *testing.T) {
	s := NewTestStore(t)

	p, err := GetProfile(context.Background(), s, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.UserID != "u1" || p.RestaurantName != "" {
		t.Errorf("expected empty profile for u1, got %+v", p)
	}
}

func TestSaveProfile(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	err := SaveProfile(ctx, s, &model.Profile{UserID: "u1", RestaurantName: "Luigi's", City: "Springfield"})
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	p, err := GetProfile(ctx, s, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.RestaurantName != "Luigi's" || p.City != "Springfield" {
		t.Errorf("unexpected profile %+v", p)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}
