package domain

import (
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// Session is an opaque bearer token paired with the user snapshot the auth
// service returned for it. The token's contents are never inspected locally;
// validity is only ever established by the auth service.
type Session struct {
	Token string
	User  *userdomain.User
}

// State describes the session lifecycle.
type State int

const (
	// Unauthenticated means no persisted token exists.
	Unauthenticated State = iota
	// Pending means a persisted token was loaded but has not been verified
	// in this process lifetime. A Pending session must not be trusted for
	// privileged rendering.
	Pending
	// Authenticated means the token passed verification, or was just issued
	// by a successful login or registration.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}
