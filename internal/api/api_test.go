package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sharebite/sharebite/internal/db"
	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/foodshare"
	"github.com/sharebite/sharebite/internal/metrics"
	"github.com/sharebite/sharebite/internal/model"
	"github.com/sharebite/sharebite/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	s := docstore.NewSQL(db.NewTestDB(t))
	router := NewRouter(s, foodshare.New(s), testJWTSecret)
	server := httptest.NewServer(LoggingMiddleware(router))
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	store.CreateUser(ctx, s, "admin", "Admin", string(hash), model.RoleAdmin)

	return server, login(t, server, "admin", "password")
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	var resp loginResponse
	doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": password,
	}, http.StatusOK, &resp)
	if resp.Token == "" {
		t.Fatal("empty token from login")
	}
	return resp.Token
}

// register signs up a user with the given role and returns its token and id.
func register(t *testing.T, server *httptest.Server, username, role string) (string, string) {
	t.Helper()
	var resp loginResponse
	doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": "correct-horse", "name": username, "role": role,
	}, http.StatusCreated, &resp)
	return resp.Token, resp.User.ID
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON performs a request, checks the status code and decodes the body
// into out when out is non-nil.
func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, server.URL+path, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var e map[string]string
		json.NewDecoder(resp.Body).Decode(&e)
		t.Fatalf("%s %s: expected %d, got %d (%s)", method, path, wantStatus, resp.StatusCode, e["error"])
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthz(t *testing.T) {
	server, _ := setupTestServer(t)
	doJSON(t, server, http.MethodGet, "/healthz", "", nil, http.StatusOK, nil)
}

func TestRegister(t *testing.T) {
	server, _ := setupTestServer(t)

	register(t, server, "hope-house", model.RoleShelter)

	// Admin accounts cannot be self-registered.
	doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "sneaky", "password": "correct-horse", "role": model.RoleAdmin,
	}, http.StatusBadRequest, nil)

	doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "hope-house", "password": "correct-horse", "role": model.RoleShelter,
	}, http.StatusConflict, nil)

	doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "short", "password": "123", "role": model.RoleShelter,
	}, http.StatusBadRequest, nil)
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	doJSON(t, server, http.MethodGet, "/api/profile", token, nil, http.StatusOK, nil)
	doJSON(t, server, http.MethodPost, "/api/auth/logout", token, nil, http.StatusOK, nil)
	doJSON(t, server, http.MethodGet, "/api/profile", token, nil, http.StatusUnauthorized, nil)

	// A fresh login still works.
	fresh := login(t, server, "admin", "password")
	doJSON(t, server, http.MethodGet, "/api/profile", fresh, nil, http.StatusOK, nil)
}

func TestChangePassword(t *testing.T) {
	server, _ := setupTestServer(t)
	token, _ := register(t, server, "luigi", model.RoleRestaurant)

	doJSON(t, server, http.MethodPut, "/api/auth/password", token, map[string]string{
		"current_password": "wrong-password", "new_password": "another-secret",
	}, http.StatusUnauthorized, nil)
	doJSON(t, server, http.MethodPut, "/api/auth/password", token, map[string]string{
		"current_password": "correct-horse", "new_password": "another-secret",
	}, http.StatusOK, nil)

	login(t, server, "luigi", "another-secret")
}

func TestUsersAPIFlow(t *testing.T) {
	server, adminToken := setupTestServer(t)

	var created model.User
	doJSON(t, server, http.MethodPost, "/api/users", adminToken, map[string]string{
		"username": "volunteer1", "password": "correct-horse", "role": model.RoleVolunteer,
	}, http.StatusCreated, &created)

	doJSON(t, server, http.MethodPut, "/api/users/"+created.ID, adminToken, map[string]string{
		"role": model.RoleShelter,
	}, http.StatusOK, nil)

	var got model.User
	doJSON(t, server, http.MethodGet, "/api/users/"+created.ID, adminToken, nil, http.StatusOK, &got)
	if got.Role != model.RoleShelter {
		t.Errorf("expected role 'shelter', got %q", got.Role)
	}

	var users []model.User
	doJSON(t, server, http.MethodGet, "/api/users", adminToken, nil, http.StatusOK, &users)
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	doJSON(t, server, http.MethodDelete, "/api/users/"+created.ID, adminToken, nil, http.StatusOK, nil)
	doJSON(t, server, http.MethodDelete, "/api/users/"+created.ID, adminToken, nil, http.StatusNotFound, nil)
	doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "volunteer1", "password": "correct-horse",
	}, http.StatusUnauthorized, nil)

	// Non-admins are turned away.
	shelterToken, _ := register(t, server, "hope-house", model.RoleShelter)
	doJSON(t, server, http.MethodGet, "/api/users", shelterToken, nil, http.StatusForbidden, nil)
}

func TestFoodShareAPIFlow(t *testing.T) {
	server, _ := setupTestServer(t)

	restaurantA, _ := register(t, server, "restaurant-a", model.RoleRestaurant)
	restaurantX, _ := register(t, server, "restaurant-x", model.RoleRestaurant)
	shelterB, shelterBID := register(t, server, "shelter-b", model.RoleShelter)
	shelterC, _ := register(t, server, "shelter-c", model.RoleShelter)
	shelterD, _ := register(t, server, "shelter-d", model.RoleShelter)

	doJSON(t, server, http.MethodPut, "/api/profile", restaurantA, map[string]string{
		"restaurant_name": "Pizzeria A", "address": "1 Main St", "city": "Springfield",
	}, http.StatusOK, nil)

	// Shelters cannot post food.
	doJSON(t, server, http.MethodPost, "/api/food-items", shelterB, map[string]any{
		"title": "x", "description": "y", "quantity": "1",
	}, http.StatusForbidden, nil)
	doJSON(t, server, http.MethodPost, "/api/food-items", restaurantA, map[string]any{
		"title": "", "description": "y", "quantity": "1",
	}, http.StatusBadRequest, nil)

	var pizza model.FoodItem
	doJSON(t, server, http.MethodPost, "/api/food-items", restaurantA, map[string]any{
		"title": "Pizza Slices", "description": "Pepperoni", "quantity": "12", "expiry_hours": 4,
	}, http.StatusCreated, &pizza)
	if pizza.RestaurantName != "Pizzeria A" || pizza.RestaurantAddress != "1 Main St, Springfield" {
		t.Errorf("expected restaurant snapshot from profile, got %+v", pizza.RestaurantSnapshot)
	}

	// Later profile edits do not change the posted item.
	doJSON(t, server, http.MethodPut, "/api/profile", restaurantA, map[string]string{
		"restaurant_name": "Renamed",
	}, http.StatusOK, nil)

	var feed []model.FoodItem
	doJSON(t, server, http.MethodGet, "/api/food-items", shelterB, nil, http.StatusOK, &feed)
	if len(feed) != 1 || feed[0].RestaurantName != "Pizzeria A" {
		t.Fatalf("expected pizza in shelter feed, got %+v", feed)
	}

	var reqB, reqC model.FoodItemRequest
	doJSON(t, server, http.MethodPost, "/api/food-items/"+pizza.ID+"/requests", shelterB, nil, http.StatusCreated, &reqB)
	doJSON(t, server, http.MethodPost, "/api/food-items/"+pizza.ID+"/requests", shelterB, nil, http.StatusConflict, nil)
	doJSON(t, server, http.MethodPost, "/api/food-items/"+pizza.ID+"/requests", shelterC, nil, http.StatusCreated, &reqC)
	if reqB.Status != model.RequestStatusRequested || reqB.ShelterID != shelterBID || reqB.ShelterName != "shelter-b" {
		t.Errorf("unexpected request %+v", reqB)
	}

	// Requested items leave the shelter's feed.
	doJSON(t, server, http.MethodGet, "/api/food-items", shelterB, nil, http.StatusOK, &feed)
	if len(feed) != 0 {
		t.Errorf("expected empty feed after requesting, got %d items", len(feed))
	}

	// Only the posting restaurant reviews.
	doJSON(t, server, http.MethodPost, "/api/requests/"+reqB.ID+"/approve", restaurantX, nil, http.StatusForbidden, nil)
	doJSON(t, server, http.MethodPost, "/api/requests/"+reqB.ID+"/approve", shelterB, nil, http.StatusForbidden, nil)
	doJSON(t, server, http.MethodGet, "/api/food-items/"+pizza.ID+"/requests", restaurantX, nil, http.StatusForbidden, nil)
	doJSON(t, server, http.MethodGet, "/api/requests/"+reqB.ID, shelterC, nil, http.StatusForbidden, nil)

	doJSON(t, server, http.MethodPost, "/api/requests/"+reqB.ID+"/review", restaurantA, map[string]string{
		"decision": "maybe",
	}, http.StatusBadRequest, nil)

	var approved model.FoodItemRequest
	doJSON(t, server, http.MethodPost, "/api/requests/"+reqB.ID+"/review", restaurantA, map[string]string{
		"decision": string(model.RequestStatusApproved),
	}, http.StatusOK, &approved)
	if approved.Status != model.RequestStatusApproved || approved.ReviewedAt == nil {
		t.Errorf("expected approved request with reviewed_at, got %+v", approved)
	}

	var declined model.FoodItemRequest
	doJSON(t, server, http.MethodGet, "/api/requests/"+reqC.ID, shelterC, nil, http.StatusOK, &declined)
	if declined.Status != model.RequestStatusDeclined {
		t.Errorf("expected competing request declined, got %s", declined.Status)
	}

	doJSON(t, server, http.MethodPost, "/api/requests/"+reqB.ID+"/approve", restaurantA, nil, http.StatusConflict, nil)
	doJSON(t, server, http.MethodPost, "/api/requests/"+reqC.ID+"/approve", restaurantA, nil, http.StatusConflict, nil)
	doJSON(t, server, http.MethodPost, "/api/food-items/"+pizza.ID+"/requests", shelterD, nil, http.StatusConflict, nil)

	var mine []model.FoodItemWithRequests
	doJSON(t, server, http.MethodGet, "/api/food-items/mine", restaurantA, nil, http.StatusOK, &mine)
	if len(mine) != 1 || mine[0].Status != model.FoodItemStatusAllocated || mine[0].ApprovedRequest == nil {
		t.Fatalf("expected allocated item on dashboard, got %+v", mine)
	}
	if mine[0].ApprovedRequest.ID != reqB.ID || len(mine[0].Requests) != 2 {
		t.Errorf("unexpected dashboard entry %+v", mine[0])
	}

	var pickedUp model.FoodItemRequest
	doJSON(t, server, http.MethodPost, "/api/requests/"+reqB.ID+"/pickup", restaurantA, nil, http.StatusOK, &pickedUp)
	if pickedUp.Status != model.RequestStatusPickedUp || pickedUp.PickedUpAt == nil {
		t.Errorf("expected picked up request, got %+v", pickedUp)
	}
	doJSON(t, server, http.MethodPost, "/api/requests/"+reqB.ID+"/pickup", restaurantA, nil, http.StatusConflict, nil)

	var history []model.RequestWithFoodItem
	doJSON(t, server, http.MethodGet, "/api/requests", shelterB, nil, http.StatusOK, &history)
	if len(history) != 1 || history[0].FoodItem == nil || history[0].FoodItem.Title != "Pizza Slices" {
		t.Errorf("expected shelter history with item details, got %+v", history)
	}

	// Deleting removes the item and its requests.
	doJSON(t, server, http.MethodDelete, "/api/food-items/"+pizza.ID, restaurantX, nil, http.StatusForbidden, nil)
	doJSON(t, server, http.MethodDelete, "/api/food-items/"+pizza.ID, restaurantA, nil, http.StatusOK, nil)
	doJSON(t, server, http.MethodGet, "/api/food-items/"+pizza.ID, shelterB, nil, http.StatusNotFound, nil)
	doJSON(t, server, http.MethodGet, "/api/requests/"+reqB.ID, shelterB, nil, http.StatusNotFound, nil)
}

// transitionCount reads sharebite_request_transitions_total for status.
func transitionCount(t *testing.T, status model.RequestStatus) float64 {
	t.Helper()
	metrics.Register()
	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "sharebite_request_transitions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == string(status) {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRepeatedDeclineCountsOnce(t *testing.T) {
	server, _ := setupTestServer(t)

	restaurant, _ := register(t, server, "bistro", model.RoleRestaurant)
	shelter, _ := register(t, server, "harbor-shelter", model.RoleShelter)

	var soup model.FoodItem
	doJSON(t, server, http.MethodPost, "/api/food-items", restaurant, map[string]any{
		"title": "Soup", "description": "Lentil", "quantity": "6 bowls",
	}, http.StatusCreated, &soup)
	var req model.FoodItemRequest
	doJSON(t, server, http.MethodPost, "/api/food-items/"+soup.ID+"/requests", shelter, nil, http.StatusCreated, &req)

	before := transitionCount(t, model.RequestStatusDeclined)

	var declined model.FoodItemRequest
	doJSON(t, server, http.MethodPost, "/api/requests/"+req.ID+"/decline", restaurant, nil, http.StatusOK, &declined)
	doJSON(t, server, http.MethodPost, "/api/requests/"+req.ID+"/decline", restaurant, nil, http.StatusOK, &declined)
	if declined.Status != model.RequestStatusDeclined {
		t.Errorf("expected declined request, got %s", declined.Status)
	}

	if got := transitionCount(t, model.RequestStatusDeclined) - before; got != 1 {
		t.Errorf("expected one declined transition, got %v", got)
	}
}

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&foodshare.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest},
		{fmt.Errorf("food item x: %w", foodshare.ErrNotFound), http.StatusNotFound},
		{foodshare.ErrUnavailable, http.StatusConflict},
		{foodshare.ErrDuplicateRequest, http.StatusConflict},
		{foodshare.ErrAlreadyAllocated, http.StatusConflict},
		{foodshare.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("%w: %w", foodshare.ErrCommitFailed, errors.New("io")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := serviceErrorStatus(tt.err); got != tt.want {
			t.Errorf("serviceErrorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
