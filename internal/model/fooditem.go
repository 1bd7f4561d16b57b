package model

import "github.com/sharebite/sharebite/internal/docstore"

// FoodItem is a postable unit of surplus food offered by a restaurant.
type FoodItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	RestaurantSnapshot

	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Quantity           string   `json:"quantity"`
	IsVegetarian       bool     `json:"is_vegetarian"`
	IsVegan            bool     `json:"is_vegan"`
	Allergens          []string `json:"allergens,omitempty"`
	PickupInstructions string   `json:"pickup_instructions,omitempty"`

	ExpiryTime  docstore.Timestamp `json:"expiry_time"`
	IsAvailable bool               `json:"is_available"`
	CreatedAt   docstore.Timestamp `json:"created_at"`
	UpdatedAt   docstore.Timestamp `json:"updated_at"`
}

// Expired reports whether the item is past its expiry at now.
func (f *FoodItem) Expired(now docstore.Timestamp) bool {
	return !f.ExpiryTime.After(now)
}

// RestaurantSnapshot holds restaurant display fields copied onto a food item
// when it is posted. Later profile edits do not change it.
type RestaurantSnapshot struct {
	RestaurantName    string `json:"restaurant_name"`
	RestaurantAddress string `json:"restaurant_address"`
	RestaurantPhone   string `json:"restaurant_phone,omitempty"`
	CuisineType       string `json:"cuisine_type,omitempty"`
}

// FoodItemStatus is the derived state of a food item on the restaurant
// dashboard.
type FoodItemStatus string

// Dashboard statuses.
const (
	FoodItemStatusAvailable FoodItemStatus = "available"
	FoodItemStatusExpired   FoodItemStatus = "expired"
	FoodItemStatusAllocated FoodItemStatus = "allocated"
	FoodItemStatusPickedUp  FoodItemStatus = "picked_up"
)

// FoodItemWithRequests is a food item joined with every request against it.
type FoodItemWithRequests struct {
	FoodItem
	Requests        []FoodItemRequest `json:"requests"`
	ApprovedRequest *FoodItemRequest  `json:"approved_request,omitempty"`
	Status          FoodItemStatus    `json:"status"`
}
