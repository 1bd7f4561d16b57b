package model

import (
	"strings"
	"time"
)

// Profile holds the display fields a user maintains about their
// organisation. Food items and requests copy from it when they are created.
type Profile struct {
	UserID         string    `json:"user_id"`
	Name           string    `json:"name,omitempty"`
	RestaurantName string    `json:"restaurant_name,omitempty"`
	ShelterName    string    `json:"shelter_name,omitempty"`
	Address        string    `json:"address,omitempty"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CuisineType    string    `json:"cuisine_type,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RestaurantSnapshot returns the fields copied onto a new food item.
func (p *Profile) RestaurantSnapshot() RestaurantSnapshot {
	name := firstNonEmpty(p.RestaurantName, p.Name, "Unknown Restaurant")

	var parts []string
	for _, s := range []string{p.Address, p.City, p.State} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	address := "Address not provided"
	if len(parts) > 0 {
		address = strings.Join(parts, ", ")
	}

	return RestaurantSnapshot{
		RestaurantName:    name,
		RestaurantAddress: address,
		RestaurantPhone:   strings.TrimSpace(p.Phone),
		CuisineType:       strings.TrimSpace(p.CuisineType),
	}
}

// ShelterSnapshot returns the fields copied onto a new request.
func (p *Profile) ShelterSnapshot() ShelterSnapshot {
	return ShelterSnapshot{
		ShelterID:   p.UserID,
		ShelterName: firstNonEmpty(p.ShelterName, p.Name, "Unknown Shelter"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
