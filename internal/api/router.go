package api

import (
	"net/http"

	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/foodshare"
	"github.com/sharebite/sharebite/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(s docstore.Store, svc *foodshare.Service, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Store: s, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{Store: s}
	profileHandler := &ProfileHandler{Store: s}
	foodItemsHandler := &FoodItemsHandler{Store: s, Service: svc}
	requestsHandler := &RequestsHandler{Service: svc}

	authMW := AuthMiddleware(jwtSecret, s)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireRestaurant := RequireRole(model.RoleRestaurant)
	requireShelter := RequireRole(model.RoleShelter)

	// Public.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/profile", authMW(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PUT /api/profile", authMW(http.HandlerFunc(profileHandler.Update)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Food items: browse (all roles), post and manage (restaurants).
	mux.Handle("POST /api/food-items", authMW(requireRestaurant(http.HandlerFunc(foodItemsHandler.Create))))
	mux.Handle("GET /api/food-items", authMW(http.HandlerFunc(foodItemsHandler.List)))
	mux.Handle("GET /api/food-items/mine", authMW(requireRestaurant(http.HandlerFunc(foodItemsHandler.Mine))))
	mux.Handle("GET /api/food-items/{id}", authMW(http.HandlerFunc(foodItemsHandler.Get)))
	mux.Handle("DELETE /api/food-items/{id}", authMW(requireRestaurant(http.HandlerFunc(foodItemsHandler.Delete))))
	mux.Handle("GET /api/food-items/{id}/requests", authMW(requireRestaurant(http.HandlerFunc(foodItemsHandler.ListRequests))))
	mux.Handle("POST /api/food-items/{id}/requests", authMW(requireShelter(http.HandlerFunc(foodItemsHandler.CreateRequest))))

	// Requests: shelters track theirs, restaurants review.
	mux.Handle("GET /api/requests", authMW(requireShelter(http.HandlerFunc(requestsHandler.List))))
	mux.Handle("GET /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Get)))
	mux.Handle("POST /api/requests/{id}/review", authMW(requireRestaurant(http.HandlerFunc(requestsHandler.Review))))
	mux.Handle("POST /api/requests/{id}/approve", authMW(requireRestaurant(http.HandlerFunc(requestsHandler.Approve))))
	mux.Handle("POST /api/requests/{id}/decline", authMW(requireRestaurant(http.HandlerFunc(requestsHandler.Decline))))
	mux.Handle("POST /api/requests/{id}/pickup", authMW(requireRestaurant(http.HandlerFunc(requestsHandler.Pickup))))

	return mux
}
