package middleware

import (
	"net/http"
	"time"

	"github.com/careassist/careassist/internal/kv"
	"github.com/careassist/careassist/internal/session"
	"github.com/careassist/careassist/internal/session/authapi"
	sessiondomain "github.com/careassist/careassist/internal/session/domain"
)

// Session builds the request's session store over the browser's cookies,
// loads any persisted session, and verifies it with the auth service before
// anything downstream may trust it. By the time a handler runs the session is
// settled: Authenticated or Unauthenticated, never Pending.
//
// A failed or unreachable verification clears the cookies on this response;
// the sign-out the session store performs fails closed.
func Session(auth authapi.Client, secureCookies bool, cookieTTL time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := session.NewStore(kv.NewCookie(w, r, secureCookies, cookieTTL), auth)
			if _, ok := store.LoadPersisted(); ok {
				store.Verify(r.Context())
			}

			info := SessionInfo{State: store.State(), Store: store}
			if info.State == sessiondomain.Authenticated {
				info.User = store.CurrentUser()
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), info)))
		})
	}
}
