package middleware

import (
	"context"

	"github.com/careassist/careassist/internal/session"
	sessiondomain "github.com/careassist/careassist/internal/session/domain"
	tenantdomain "github.com/careassist/careassist/internal/tenant/domain"
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

type contextKey struct{ name string }

var (
	orgKey     = contextKey{"organization"}
	sessionKey = contextKey{"session"}
)

// TenantInfo is the settled outcome of the tenant pipeline for one request.
type TenantInfo struct {
	// Org is always non-nil once the pipeline ran; it falls back to the
	// default organization on any load failure.
	Org *tenantdomain.Organization
	// Diagnostic carries the load failure reason for optional display; nil
	// when the load succeeded or the slug was simply unknown.
	Diagnostic error
}

// SessionInfo is the settled outcome of the session pipeline for one request.
type SessionInfo struct {
	State sessiondomain.State
	// User is non-nil only for an Authenticated session.
	User *userdomain.User
	// Store is the request's session store, for handlers that mutate the
	// session (login, logout).
	Store *session.Store
}

// WithTenant returns a context carrying the resolved tenant.
func WithTenant(ctx context.Context, info TenantInfo) context.Context {
	return context.WithValue(ctx, orgKey, info)
}

// TenantFromContext returns the tenant info and true if the tenant pipeline
// ran for this request.
func TenantFromContext(ctx context.Context) (TenantInfo, bool) {
	v, ok := ctx.Value(orgKey).(TenantInfo)
	return v, ok
}

// WithSession returns a context carrying the request's session outcome.
func WithSession(ctx context.Context, info SessionInfo) context.Context {
	return context.WithValue(ctx, sessionKey, info)
}

// SessionFromContext returns the session info and true if the session
// pipeline ran for this request.
func SessionFromContext(ctx context.Context) (SessionInfo, bool) {
	v, ok := ctx.Value(sessionKey).(SessionInfo)
	return v, ok
}
