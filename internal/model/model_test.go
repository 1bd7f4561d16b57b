package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sharebite/sharebite/internal/docstore"
)

func TestCanTransition(t *testing.T) {
	all := []RequestStatus{RequestStatusRequested, RequestStatusApproved, RequestStatusDeclined, RequestStatusPickedUp}
	allowed := map[[2]RequestStatus]bool{
		{RequestStatusRequested, RequestStatusApproved}: true,
		{RequestStatusRequested, RequestStatusDeclined}: true,
		{RequestStatusApproved, RequestStatusPickedUp}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]RequestStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestRequestStatusActive(t *testing.T) {
	if !RequestStatusRequested.Active() || !RequestStatusApproved.Active() {
		t.Error("requested and approved must be active")
	}
	if RequestStatusDeclined.Active() || RequestStatusPickedUp.Active() {
		t.Error("declined and picked_up must not be active")
	}
	if RequestStatus("pending").Valid() {
		t.Error("unknown status must not be valid")
	}
}

func TestRestaurantSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    RestaurantSnapshot
	}{
		{
			name: "full profile",
			profile: Profile{
				RestaurantName: "Luigi's", Address: "1 Main St", City: "Springfield", State: "IL",
				Phone: "555-0100", CuisineType: "Italian",
			},
			want: RestaurantSnapshot{
				RestaurantName: "Luigi's", RestaurantAddress: "1 Main St, Springfield, IL",
				RestaurantPhone: "555-0100", CuisineType: "Italian",
			},
		},
		{
			name:    "falls back to user name and partial address",
			profile: Profile{Name: "Luigi", City: "Springfield"},
			want:    RestaurantSnapshot{RestaurantName: "Luigi", RestaurantAddress: "Springfield"},
		},
		{
			name:    "empty profile",
			profile: Profile{RestaurantName: "  "},
			want:    RestaurantSnapshot{RestaurantName: "Unknown Restaurant", RestaurantAddress: "Address not provided"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.profile.RestaurantSnapshot()); diff != "" {
				t.Errorf("RestaurantSnapshot() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestShelterSnapshot(t *testing.T) {
	p := Profile{UserID: "s1", Name: "Hope House"}
	got := p.ShelterSnapshot()
	if got.ShelterID != "s1" || got.ShelterName != "Hope House" {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestFoodItemExpired(t *testing.T) {
	now := docstore.NewTimestamp(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	item := FoodItem{ExpiryTime: now.Add(time.Minute)}
	if item.Expired(now) {
		t.Error("item expiring in the future must not be expired")
	}
	if !item.Expired(now.Add(time.Minute)) {
		t.Error("item is expired at its expiry instant")
	}
}
