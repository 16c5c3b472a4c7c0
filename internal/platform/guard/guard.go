// Package guard composes session state and role authorization into the
// allow/redirect decision protecting admin-only views.
package guard

import (
	"github.com/careassist/careassist/internal/platform/rbac"
	sessiondomain "github.com/careassist/careassist/internal/session/domain"
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// Decision is the tri-state outcome of an access check. Pending exists so a
// caller never renders protected content, nor a denial, before both the
// tenant configuration and the session have settled.
type Decision int

const (
	// Pending means tenant or session loading has not settled; render a
	// neutral state, neither the protected view nor a redirect.
	Pending Decision = iota
	// Allow means the protected view may render.
	Allow
	// Redirect means the caller must be sent to the public route.
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "pending"
	}
}

// Result is a Decision plus the redirect target when denied.
type Result struct {
	Decision Decision
	Target   string
}

// PublicRoute is where denied visitors are sent.
const PublicRoute = "/"

// Evaluate decides access for a view requiring the given role. tenantReady is
// whether the tenant configuration pipeline has settled; a session in the
// Pending state has a token that has not been verified yet. The decision must
// be re-evaluated whenever either input changes: a session can be cleared by
// a failed verify while a protected view is open.
//
// Only an Authenticated session's user counts; a Pending session's cached
// user is untrusted and evaluates the same as no user at all.
func Evaluate(tenantReady bool, state sessiondomain.State, u *userdomain.User, required userdomain.Role) Result {
	if !tenantReady || state == sessiondomain.Pending {
		return Result{Decision: Pending}
	}
	if state != sessiondomain.Authenticated {
		u = nil
	}
	if !rbac.HasRole(u, required) {
		return Result{Decision: Redirect, Target: PublicRoute}
	}
	return Result{Decision: Allow}
}
