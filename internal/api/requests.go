package api

import (
	"log/slog"
	"net/http"

	"github.com/sharebite/sharebite/internal/auth"
	"github.com/sharebite/sharebite/internal/foodshare"
	"github.com/sharebite/sharebite/internal/metrics"
	"github.com/sharebite/sharebite/internal/model"
)

// RequestsHandler handles food item request endpoints.
type RequestsHandler struct {
	Service *foodshare.Service
}

type reviewRequest struct {
	Decision model.RequestStatus `json:"decision"`
}

// List handles GET /api/requests: the calling shelter's requests with the
// food items they target.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	reqs, err := h.Service.Requests.ListForShelterWithFoodItems(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "list requests")
		return
	}
	jsonResponse(w, http.StatusOK, reqs)
}

// Get handles GET /api/requests/{id}. Only the requesting shelter and the
// restaurant that posted the item may see it.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	req, err := h.Service.Requests.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "get request")
		return
	}

	if req.ShelterID != claims.UserID {
		item, err := h.Service.Items.Get(r.Context(), req.FoodItemID)
		if err != nil {
			writeServiceError(w, err, "get request")
			return
		}
		if !ownsItem(claims, item) {
			jsonError(w, http.StatusForbidden, "request belongs to another user")
			return
		}
	}
	jsonResponse(w, http.StatusOK, req)
}

// Review handles POST /api/requests/{id}/review.
func (h *RequestsHandler) Review(w http.ResponseWriter, r *http.Request) {
	var body reviewRequest
	if err := decodeJSON(w, r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.transition(w, r, body.Decision, func(id string) error {
		return h.Service.Requests.Review(r.Context(), id, body.Decision)
	})
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.RequestStatusApproved, func(id string) error {
		return h.Service.Allocation.Approve(r.Context(), id)
	})
}

// Decline handles POST /api/requests/{id}/decline.
func (h *RequestsHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.RequestStatusDeclined, func(id string) error {
		return h.Service.Allocation.Decline(r.Context(), id)
	})
}

// Pickup handles POST /api/requests/{id}/pickup.
func (h *RequestsHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.RequestStatusPickedUp, func(id string) error {
		return h.Service.Requests.MarkPickedUp(r.Context(), id)
	})
}

// transition checks that the caller posted the request's item, applies fn
// and responds with the updated request.
func (h *RequestsHandler) transition(w http.ResponseWriter, r *http.Request, to model.RequestStatus, fn func(id string) error) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	before, ok := h.authorizeReview(w, r, claims, id)
	if !ok {
		return
	}

	if err := fn(id); err != nil {
		metrics.RecordRejection(err)
		writeServiceError(w, err, "update request")
		return
	}

	req, err := h.Service.Requests.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "get request")
		return
	}

	// A repeated decline is a no-op and must not count as a transition.
	if before.Status == to {
		jsonResponse(w, http.StatusOK, req)
		return
	}

	metrics.RecordTransition(to)
	slog.Info("request "+string(to), "user", claims.Username, "request", id, "food_item", req.FoodItemID)
	jsonResponse(w, http.StatusOK, req)
}

// authorizeReview returns the request as it was before the review when the
// caller owns its food item.
func (h *RequestsHandler) authorizeReview(w http.ResponseWriter, r *http.Request, claims *auth.Claims, id string) (*model.FoodItemRequest, bool) {
	req, err := h.Service.Requests.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "get request")
		return nil, false
	}
	item, err := h.Service.Items.Get(r.Context(), req.FoodItemID)
	if err != nil {
		writeServiceError(w, err, "get food item")
		return nil, false
	}
	if !ownsItem(claims, item) {
		jsonError(w, http.StatusForbidden, "food item belongs to another restaurant")
		return nil, false
	}
	return req, true
}
