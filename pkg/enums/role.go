package enums

import (
	"fmt"
	"strings"
)

// Role identifies the party acting on a request.
type Role string

const (
	RoleSupplier     Role = "supplier"
	RoleManufacturer Role = "manufacturer"
	RoleLogistics    Role = "logistics"
	RoleConsumer     Role = "consumer"
	RoleAdmin        Role = "admin"
)

var validRoles = []Role{
	RoleSupplier,
	RoleManufacturer,
	RoleLogistics,
	RoleConsumer,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role. Matching ignores case.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
