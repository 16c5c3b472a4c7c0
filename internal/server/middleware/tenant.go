package middleware

import (
	"net/http"

	"github.com/careassist/careassist/internal/tenant/resolver"
	tenantservice "github.com/careassist/careassist/internal/tenant/service"
)

// Tenant resolves the tenant slug from the request and loads the matching
// organization into the request context. It never fails the request: every
// failure path inside the config store degrades to the default organization,
// so downstream handlers always find a fully-populated tenant.
func Tenant(store *tenantservice.ConfigStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := resolver.Resolve(resolver.Context{
				Host:  r.Host,
				Path:  r.URL.Path,
				Query: r.URL.Query(),
			})
			org, diag := store.Load(r.Context(), slug)
			ctx := WithTenant(r.Context(), TenantInfo{Org: org, Diagnostic: diag})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
