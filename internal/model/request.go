package model

import "github.com/sharebite/sharebite/internal/docstore"

// RequestStatus is the lifecycle state of a food item request.
type RequestStatus string

// Request statuses.
const (
	RequestStatusRequested RequestStatus = "requested"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusDeclined  RequestStatus = "declined"
	RequestStatusPickedUp  RequestStatus = "picked_up"
)

// transitions lists the permitted moves. Declined and picked up are terminal.
var transitions = map[RequestStatus][]RequestStatus{
	RequestStatusRequested: {RequestStatusApproved, RequestStatusDeclined},
	RequestStatusApproved:  {RequestStatusPickedUp},
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusRequested, RequestStatusApproved, RequestStatusDeclined, RequestStatusPickedUp:
		return true
	}
	return false
}

// Active reports whether a request in status s blocks a new request by the
// same shelter for the same item.
func (s RequestStatus) Active() bool {
	return s == RequestStatusRequested || s == RequestStatusApproved
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// FoodItemRequest is a shelter's claim on a food item.
type FoodItemRequest struct {
	ID         string `json:"id"`
	FoodItemID string `json:"food_item_id"`
	ShelterSnapshot

	Status      RequestStatus       `json:"status"`
	RequestedAt docstore.Timestamp  `json:"requested_at"`
	ReviewedAt  *docstore.Timestamp `json:"reviewed_at,omitempty"`
	PickedUpAt  *docstore.Timestamp `json:"picked_up_at,omitempty"`
}

// ShelterSnapshot holds the requesting shelter's identity as it was when the
// request was made.
type ShelterSnapshot struct {
	ShelterID   string `json:"shelter_id"`
	ShelterName string `json:"shelter_name"`
}

// RequestWithFoodItem is a request joined with the item it targets. FoodItem
// is nil when the item no longer exists.
type RequestWithFoodItem struct {
	FoodItemRequest
	FoodItem *FoodItem `json:"food_item,omitempty"`
}
