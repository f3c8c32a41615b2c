package auth

import "strings"

// Role is the authority a principal holds for certificate operations.
type Role string

const (
	// RoleStudent owns and submits certificates.
	RoleStudent Role = "STUDENT"
	// RoleStaff reviews certificates.
	RoleStaff Role = "STAFF"
)

// ParseRole normalizes a role claim. Unknown values resolve to RoleStudent.
func ParseRole(raw string) Role {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(RoleStaff), "REVIEWER":
		return RoleStaff
	default:
		return RoleStudent
	}
}

// Principal is the acting caller as resolved by the identity layer.
type Principal struct {
	ID          string
	DisplayName string
	Role        Role
}

// IsReviewer reports whether the principal holds review authority.
func (p Principal) IsReviewer() bool {
	return p.Role == RoleStaff
}
