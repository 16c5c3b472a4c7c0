package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/careassist/careassist/internal/branding"
	"github.com/careassist/careassist/internal/platform/rbac"
	"github.com/careassist/careassist/internal/server/middleware"
	"github.com/careassist/careassist/internal/session/authapi"
	sessiondomain "github.com/careassist/careassist/internal/session/domain"
	tenantdomain "github.com/careassist/careassist/internal/tenant/domain"
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// contextResponse is the per-request snapshot pages hydrate from: the current
// tenant's branding and effective features, plus the session outcome.
type contextResponse struct {
	OrgSlug      string            `json:"orgSlug"`
	Plan         string            `json:"plan"`
	Branding     branding.Branding `json:"branding"`
	Features     map[string]bool   `json:"features"`
	Session      string            `json:"session"`
	User         *userdomain.User  `json:"user,omitempty"`
	TenantError  string            `json:"tenantError,omitempty"`
	IsAdmin      bool              `json:"isAdmin"`
	IsSuperAdmin bool              `json:"isSuperAdmin"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	// Rendering is out of scope here; the shell page hydrates itself from
	// the same snapshot /api/context serves.
	handleContext(w, r)
}

func handleContext(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	org := tenant.Org
	if org == nil {
		org = tenantdomain.Default()
	}

	resp := contextResponse{
		OrgSlug:  org.Slug,
		Plan:     string(org.Plan),
		Branding: branding.Apply(org),
		Features: effectiveFeatures(org),
		Session:  sessiondomain.Unauthenticated.String(),
	}
	if tenant.Diagnostic != nil {
		resp.TenantError = tenant.Diagnostic.Error()
	}
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		resp.Session = sess.State.String()
		resp.User = sess.User
		resp.IsAdmin = isAdminUser(sess)
		resp.IsSuperAdmin = isSuperAdminUser(sess)
	}
	writeJSON(w, http.StatusOK, resp)
}

// effectiveFeatures resolves every feature named by either the organization
// or the default through the gate's fallback chain, so clients never reimplement
// the chain.
func effectiveFeatures(org *tenantdomain.Organization) map[string]bool {
	gate := branding.NewGate(org)
	out := make(map[string]bool)
	for name := range tenantdomain.Default().Features {
		out[name] = gate.Enabled(name)
	}
	if org.Features != nil {
		for name := range org.Features {
			out[name] = gate.Enabled(name)
		}
	}
	return out
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request"})
		return
	}
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session unavailable"})
		return
	}

	u, err := sess.Store.Login(r.Context(), req.Email, req.Password, currentOrgID(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request"})
		return
	}
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session unavailable"})
		return
	}

	u, err := sess.Store.Register(r.Context(), req.Email, req.Password, req.Name, currentOrgID(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		sess.Store.Logout()
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleAdminHome(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	sess, _ := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"page":    "admin",
		"orgSlug": tenant.Org.Slug,
		"user":    sess.User,
	})
}

func currentOrgID(r *http.Request) string {
	if tenant, ok := middleware.TenantFromContext(r.Context()); ok && tenant.Org != nil {
		return tenant.Org.ID
	}
	return ""
}

func isAdminUser(sess middleware.SessionInfo) bool {
	return rbac.IsAdmin(sess.User)
}

func isSuperAdminUser(sess middleware.SessionInfo) bool {
	return rbac.IsSuperAdmin(sess.User)
}

// writeAuthError maps a session-layer failure to a response: typed auth
// failures carry their message back for the form to display inline; anything
// else means the auth service itself misbehaved.
func writeAuthError(w http.ResponseWriter, err error) {
	var ae *authapi.AuthError
	if errors.As(err, &ae) {
		status := http.StatusUnauthorized
		if errors.Is(err, authapi.ErrEmailAlreadyRegistered) {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": ae.Message})
		return
	}
	log.Error().Err(err).Msg("auth service failure")
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "authentication service unavailable"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
