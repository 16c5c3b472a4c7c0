// Package rbac decides whether a user's role suffices for an operation. All
// decisions are pure comparisons over the fixed role ranking; nothing here
// performs I/O or mutates state.
package rbac

import (
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// HasRole reports whether u's role ranks at least as high as required.
// A nil user, or a user with a role outside the closed set, is never
// sufficient for any real requirement.
func HasRole(u *userdomain.User, required userdomain.Role) bool {
	if u == nil {
		return false
	}
	return u.Role.Rank() >= required.Rank()
}

// IsAdmin reports whether u may use organization-admin functionality.
func IsAdmin(u *userdomain.User) bool {
	return HasRole(u, userdomain.RoleOrgAdmin)
}

// IsSuperAdmin reports whether u may use platform-wide admin functionality.
func IsSuperAdmin(u *userdomain.User) bool {
	return HasRole(u, userdomain.RoleSuperAdmin)
}
