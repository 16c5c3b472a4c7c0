// Package server assembles the HTTP surface of the site: tenant resolution,
// session verification, the JSON context endpoints the pages consume, and the
// role-guarded admin subtree. Page rendering itself lives elsewhere; handlers
// here only expose the data and decisions pages need.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/careassist/careassist/internal/server/middleware"
	"github.com/careassist/careassist/internal/session/authapi"
	telemetryotel "github.com/careassist/careassist/internal/telemetry/otel"
	tenantservice "github.com/careassist/careassist/internal/tenant/service"
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// Options configures the router.
type Options struct {
	Tenants       *tenantservice.ConfigStore
	Auth          authapi.Client
	SecureCookies bool
	CookieTTL     time.Duration
	// Access receives guard decisions on protected routes; nil disables
	// access auditing.
	Access telemetryotel.AccessEmitter
	// DevBackend, when non-nil, is mounted under /dev to serve the external
	// collaborator endpoints in-process for local development.
	DevBackend http.Handler
}

// New builds the site router. The tenant and session pipelines run
// independently per request; neither blocks on the other and each settles
// before any handler or guard consumes it.
func New(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth)

	if opts.DevBackend != nil {
		r.Mount("/dev", opts.DevBackend)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Tenant(opts.Tenants))
		r.Use(middleware.Session(opts.Auth, opts.SecureCookies, opts.CookieTTL))

		r.Get("/", handleHome)
		r.Get("/org/{slug}", handleHome)
		r.Get("/org/{slug}/*", handleHome)

		r.Route("/api", func(r chi.Router) {
			r.Get("/context", handleContext)
			r.Post("/login", handleLogin)
			r.Post("/register", handleRegister)
			r.Post("/logout", handleLogout)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(userdomain.RoleOrgAdmin, opts.Access))
				r.Get("/", handleAdminHome)
				r.Get("/branding", handleAdminHome)
				r.Get("/members", handleAdminHome)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(userdomain.RoleSuperAdmin, opts.Access))
				r.Get("/platform", handleAdminHome)
			})
		})
	})

	return otelhttp.NewHandler(r, "careassist")
}
