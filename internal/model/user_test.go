package model

import "testing"

func TestHasRole(t *testing.T) {
	tests := []struct {
		role     string
		allowed  []string
		expected bool
	}{
		{RoleAdmin, []string{RoleRestaurant}, true},
		{RoleAdmin, nil, true},
		{RoleRestaurant, []string{RoleRestaurant}, true},
		{RoleRestaurant, []string{RoleShelter}, false},
		{RoleShelter, []string{RoleRestaurant, RoleShelter}, true},
		{RoleVolunteer, []string{RoleRestaurant, RoleShelter}, false},
		// Unknown roles fail-closed.
		{"unknown", []string{"unknown"}, false},
		{"", []string{""}, false},
	}

	for _, tt := range tests {
		got := HasRole(tt.role, tt.allowed...)
		if got != tt.expected {
			t.Errorf("HasRole(%q, %v) = %v, want %v", tt.role, tt.allowed, got, tt.expected)
		}
	}
}

func TestSelfServiceRole(t *testing.T) {
	for _, role := range []string{RoleRestaurant, RoleShelter, RoleVolunteer} {
		if !SelfServiceRole(role) {
			t.Errorf("expected %q to be self-service", role)
		}
	}
	if SelfServiceRole(RoleAdmin) {
		t.Error("admin must not be self-service")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
