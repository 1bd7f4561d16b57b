package foodshare

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultExpiryHours applies when a food item is posted without an expiry.
const DefaultExpiryHours = 24

// MaxExpiryHours caps how long a posted item may stay available.
const MaxExpiryHours = 30 * 24

// CreateFoodItemInput is what a restaurant supplies when posting food.
type CreateFoodItemInput struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Quantity           string   `json:"quantity"`
	IsVegetarian       bool     `json:"is_vegetarian"`
	IsVegan            bool     `json:"is_vegan"`
	Allergens          []string `json:"allergens"`
	PickupInstructions string   `json:"pickup_instructions"`
	ExpiryHours        float64  `json:"expiry_hours"`
}

var leadingNumber = regexp.MustCompile(`^[+-]?\d+(\.\d+)?`)

// normalize trims and checks the input in place and returns how long the
// item stays available.
func (in *CreateFoodItemInput) normalize() (time.Duration, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return 0, invalid("title", "is required")
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return 0, invalid("description", "is required")
	}
	if err := checkQuantity(in.Quantity); err != nil {
		return 0, err
	}
	in.Quantity = strings.TrimSpace(in.Quantity)
	in.PickupInstructions = strings.TrimSpace(in.PickupInstructions)
	in.Allergens = normalizeAllergens(in.Allergens)
	if in.IsVegan {
		in.IsVegetarian = true
	}

	hours := in.ExpiryHours
	switch {
	case math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0:
		return 0, invalid("expiry_hours", "must be a positive number of hours")
	case hours == 0:
		hours = DefaultExpiryHours
	case hours > MaxExpiryHours:
		return 0, invalid("expiry_hours", "must be at most %d hours", MaxExpiryHours)
	}
	d := time.Duration(hours * float64(time.Hour))
	if d <= 0 {
		return 0, invalid("expiry_hours", "must be a positive number of hours")
	}
	return d, nil
}

// checkQuantity accepts free-form text such as "20 servings" or "a tray".
// A leading number, when present, must be positive.
func checkQuantity(q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return invalid("quantity", "is required")
	}
	m := leadingNumber.FindString(q)
	if m == "" {
		return nil
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil || n <= 0 {
		return invalid("quantity", "must be greater than zero")
	}
	return nil
}

func normalizeAllergens(in []string) []string {
	var out []string
	for _, a := range in {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
