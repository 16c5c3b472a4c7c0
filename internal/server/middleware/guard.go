package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/careassist/careassist/internal/platform/guard"
	sessiondomain "github.com/careassist/careassist/internal/session/domain"
	telemetryotel "github.com/careassist/careassist/internal/telemetry/otel"
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// RequireRole protects a route subtree behind a minimum role. Anything short
// of an Authenticated session with a sufficient role is sent to the public
// route; an unsettled pipeline gets a neutral response rather than either the
// protected content or a denial. Decisions are reported to access, which may
// be nil.
func RequireRole(required userdomain.Role, access telemetryotel.AccessEmitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant, tenantOK := TenantFromContext(r.Context())

			state := sessiondomain.Unauthenticated
			var u *userdomain.User
			if sess, ok := SessionFromContext(r.Context()); ok {
				state = sess.State
				u = sess.User
			}

			res := guard.Evaluate(tenantOK, state, u, required)
			if access != nil {
				ev := telemetryotel.AccessEvent{
					Path:     r.URL.Path,
					Decision: res.Decision.String(),
				}
				if tenantOK && tenant.Org != nil {
					ev.OrgSlug = tenant.Org.Slug
				}
				if u != nil {
					ev.UserID = u.ID
					ev.Role = string(u.Role)
				}
				access.Emit(r.Context(), ev)
			}

			switch res.Decision {
			case guard.Allow:
				next.ServeHTTP(w, r)
			case guard.Redirect:
				log.Debug().
					Str("path", r.URL.Path).
					Str("required_role", string(required)).
					Msg("access denied, redirecting to public route")
				http.Redirect(w, r, res.Target, http.StatusSeeOther)
			default:
				// Tenant pipeline not mounted ahead of the guard; respond
				// neutrally instead of guessing.
				w.Header().Set("Retry-After", "1")
				http.Error(w, "authorization pending", http.StatusServiceUnavailable)
			}
		})
	}
}
