package model

import (
	"errors"
	"slices"
	"time"
)

// User is an account that can sign in. Restaurants, shelters and volunteers
// are all users distinguished by role.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin      = "admin"
	RoleRestaurant = "restaurant"
	RoleShelter    = "shelter"
	RoleVolunteer  = "volunteer"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return slices.Contains([]string{RoleAdmin, RoleRestaurant, RoleShelter, RoleVolunteer}, role)
}

// SelfServiceRole reports whether users may register themselves with role.
func SelfServiceRole(role string) bool {
	return role == RoleRestaurant || role == RoleShelter || role == RoleVolunteer
}

// HasRole reports whether role is one of allowed. Admins pass every check.
// Unknown roles fail closed.
func HasRole(role string, allowed ...string) bool {
	if !ValidRole(role) {
		return false
	}
	return role == RoleAdmin || slices.Contains(allowed, role)
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
