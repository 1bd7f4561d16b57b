package api

import (
	"log/slog"
	"net/http"

	"github.com/sharebite/sharebite/internal/auth"
	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/foodshare"
	"github.com/sharebite/sharebite/internal/metrics"
	"github.com/sharebite/sharebite/internal/model"
)

// FoodItemsHandler handles food item endpoints.
type FoodItemsHandler struct {
	Store   docstore.Store
	Service *foodshare.Service
}

// Create handles POST /api/food-items. The restaurant's current profile is
// copied onto the item.
func (h *FoodItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var in foodshare.CreateFoodItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := callerProfile(r, h.Store, claims)
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create food item")
		return
	}

	item, err := h.Service.Items.Create(r.Context(), claims.UserID, profile.RestaurantSnapshot(), in)
	if err != nil {
		metrics.RecordRejection(err)
		writeServiceError(w, err, "create food item")
		return
	}

	metrics.RecordFoodItemCreated()
	slog.Info("food item created", "user", claims.Username, "food_item", item.ID, "title", item.Title)
	jsonResponse(w, http.StatusCreated, item)
}

// List handles GET /api/food-items. Shelters do not see items they have
// already requested.
func (h *FoodItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var items []model.FoodItem
	var err error
	if claims.Role == model.RoleShelter {
		items, err = h.Service.Items.ListAvailableForShelter(r.Context(), claims.UserID)
	} else {
		items, err = h.Service.Items.ListAvailable(r.Context())
	}
	if err != nil {
		writeServiceError(w, err, "list food items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Mine handles GET /api/food-items/mine.
func (h *FoodItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	items, err := h.Service.Items.ListByRestaurantWithRequests(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "list food items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/food-items/{id}.
func (h *FoodItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Items.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "get food item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/food-items/{id}.
func (h *FoodItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	item, ok := h.ownedItem(w, r, claims)
	if !ok {
		return
	}

	if err := h.Service.Items.Delete(r.Context(), item.ID); err != nil {
		writeServiceError(w, err, "delete food item")
		return
	}

	slog.Info("food item deleted", "user", claims.Username, "food_item", item.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "food item deleted"})
}

// ListRequests handles GET /api/food-items/{id}/requests.
func (h *FoodItemsHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	item, ok := h.ownedItem(w, r, claims)
	if !ok {
		return
	}

	reqs, err := h.Service.Requests.ListForFoodItem(r.Context(), item.ID)
	if err != nil {
		writeServiceError(w, err, "list requests")
		return
	}
	jsonResponse(w, http.StatusOK, reqs)
}

// CreateRequest handles POST /api/food-items/{id}/requests.
func (h *FoodItemsHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	profile, err := callerProfile(r, h.Store, claims)
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to request food item")
		return
	}

	req, err := h.Service.Requests.Request(r.Context(), r.PathValue("id"), profile.ShelterSnapshot())
	if err != nil {
		metrics.RecordRejection(err)
		writeServiceError(w, err, "request food item")
		return
	}

	metrics.RecordTransition(model.RequestStatusRequested)
	slog.Info("food item requested", "user", claims.Username, "food_item", req.FoodItemID, "request", req.ID)
	jsonResponse(w, http.StatusCreated, req)
}

// ownedItem loads the item named in the path and checks that the caller
// posted it. It writes the error response itself.
func (h *FoodItemsHandler) ownedItem(w http.ResponseWriter, r *http.Request, claims *auth.Claims) (*model.FoodItem, bool) {
	item, err := h.Service.Items.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "get food item")
		return nil, false
	}
	if !ownsItem(claims, item) {
		jsonError(w, http.StatusForbidden, "food item belongs to another restaurant")
		return nil, false
	}
	return item, true
}

func ownsItem(claims *auth.Claims, item *model.FoodItem) bool {
	return claims.Role == model.RoleAdmin || item.RestaurantID == claims.UserID
}
