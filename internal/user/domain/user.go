package domain

import (
	"errors"
)

// User is the authenticated user snapshot cached alongside the session token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Role is the closed set of privilege levels. The set is linear: each role
// strictly contains the ones below it, with no overlap or inheritance beyond
// the order.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleEditor     Role = "editor"
	RoleOrgAdmin   Role = "org_admin"
	RoleSuperAdmin Role = "super_admin"
)

// roleRanks is the total ranking used for authorization. A role outside the
// table ranks 0, below every real role, so an unknown or missing role can
// never grant access (default-deny).
var roleRanks = map[Role]int{
	RoleViewer:     1,
	RoleEditor:     2,
	RoleOrgAdmin:   3,
	RoleSuperAdmin: 4,
}

// Rank returns the role's position in the hierarchy, or 0 for any value
// outside the closed set.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Known reports whether r is a member of the closed role set. Used at decode
// boundaries to catch typo'd role strings instead of silently ranking them 0.
func (r Role) Known() bool {
	_, ok := roleRanks[r]
	return ok
}

// Validate validates the user snapshot received from the auth service.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	return nil
}
