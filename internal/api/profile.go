package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sharebite/sharebite/internal/auth"
	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/model"
	"github.com/sharebite/sharebite/internal/store"
)

// ProfileHandler handles the caller's own profile.
type ProfileHandler struct {
	Store docstore.Store
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	p, err := store.GetProfile(r.Context(), h.Store, claims.UserID)
	if err != nil {
		slog.Error("failed to get profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Update handles PUT /api/profile. Food items and requests that already
// exist keep the values copied from the previous profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var p model.Profile
	if err := decodeJSON(w, r, &p); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.UserID = claims.UserID
	for _, f := range []*string{&p.Name, &p.RestaurantName, &p.ShelterName, &p.Address, &p.City, &p.State, &p.Phone, &p.CuisineType} {
		*f = strings.TrimSpace(*f)
	}

	if err := store.SaveProfile(r.Context(), h.Store, &p); err != nil {
		slog.Error("failed to save profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	slog.Info("profile updated", "user", claims.Username)
	jsonResponse(w, http.StatusOK, &p)
}

// callerProfile loads the caller's profile, falling back to the identity in
// the token for the display name.
func callerProfile(r *http.Request, s docstore.Reader, claims *auth.Claims) (*model.Profile, error) {
	p, err := store.GetProfile(r.Context(), s, claims.UserID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = claims.Name
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = claims.Username
	}
	return p, nil
}
