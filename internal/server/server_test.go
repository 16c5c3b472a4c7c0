package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/careassist/careassist/internal/devbackend"
	"github.com/careassist/careassist/internal/session/authapi"
	"github.com/careassist/careassist/internal/tenant/directory"
	tenantservice "github.com/careassist/careassist/internal/tenant/service"
)

// site assembles the full stack for one test: the dev backend as the external
// directory and auth services, the router in front, and a cookie-holding
// client standing in for one browser.
type site struct {
	t        *testing.T
	server   *httptest.Server
	upstream *httptest.Server
	client   *http.Client
}

func newSite(t *testing.T) *site {
	t.Helper()

	backend, err := devbackend.New()
	if err != nil {
		t.Fatalf("devbackend.New: %v", err)
	}
	upstream := httptest.NewServer(backend.Router())
	t.Cleanup(upstream.Close)

	tenants, err := tenantservice.NewConfigStore(
		directory.NewHTTPClient(upstream.URL, 2*time.Second), 16, time.Minute)
	if err != nil {
		t.Fatalf("NewConfigStore: %v", err)
	}
	t.Cleanup(tenants.Close)

	handler := New(Options{
		Tenants:   tenants,
		Auth:      authapi.NewHTTPClient(upstream.URL, 2*time.Second),
		CookieTTL: time.Hour,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &site{t: t, server: server, upstream: upstream, client: client}
}

// do sends a request with the given Host header, reusing the client's cookies.
func (s *site) do(method, path, host, body string) *http.Response {
	s.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, rd)
	if err != nil {
		s.t.Fatalf("NewRequest: %v", err)
	}
	req.Host = host
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (s *site) context(host, path string) contextResponse {
	s.t.Helper()
	resp := s.do(http.MethodGet, path, host, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.t.Fatalf("GET %s status = %d, want 200", path, resp.StatusCode)
	}
	var ctx contextResponse
	if err := json.NewDecoder(resp.Body).Decode(&ctx); err != nil {
		s.t.Fatalf("decode context: %v", err)
	}
	return ctx
}

func (s *site) login(host, email, password string) *http.Response {
	s.t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	return s.do(http.MethodPost, "/api/login", host, body)
}

func (s *site) mustLogin(host, email string) {
	s.t.Helper()
	resp := s.login(host, email, devbackend.SeedPassword)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		s.t.Fatalf("login %s status = %d, body %s", email, resp.StatusCode, b)
	}
}

func TestSite_Health(t *testing.T) {
	s := newSite(t)
	resp := s.do(http.MethodGet, "/healthz", "careassist.example.com", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSite_ContextForKnownTenant(t *testing.T) {
	s := newSite(t)
	ctx := s.context("duke.example.com", "/api/context")

	if ctx.OrgSlug != "duke" {
		t.Errorf("orgSlug = %q, want %q", ctx.OrgSlug, "duke")
	}
	if ctx.Plan != "enterprise" {
		t.Errorf("plan = %q, want %q", ctx.Plan, "enterprise")
	}
	if ctx.Branding.Name != "Duke Health" {
		t.Errorf("branding name = %q, want %q", ctx.Branding.Name, "Duke Health")
	}
	if ctx.Branding.PrimaryColor != "#001A57" || ctx.Branding.SecondaryColor != "#C84E00" {
		t.Errorf("colors = %q/%q, want duke's", ctx.Branding.PrimaryColor, ctx.Branding.SecondaryColor)
	}
	if !ctx.Features["payments"] {
		t.Error("payments should be enabled for duke")
	}
	if ctx.Session != "unauthenticated" {
		t.Errorf("session = %q, want unauthenticated", ctx.Session)
	}
	if ctx.TenantError != "" {
		t.Errorf("tenantError = %q, want empty", ctx.TenantError)
	}
}

func TestSite_ContextFallsBackPerFieldForPartialTenant(t *testing.T) {
	s := newSite(t)
	ctx := s.context("mayo.example.com", "/api/context")

	if ctx.OrgSlug != "mayo" {
		t.Fatalf("orgSlug = %q, want %q", ctx.OrgSlug, "mayo")
	}
	if ctx.Branding.Name != "Mayo Clinic" {
		t.Errorf("name = %q, want explicit value kept", ctx.Branding.Name)
	}
	if ctx.Branding.PrimaryColor != "#0057B8" {
		t.Errorf("primaryColor = %q, want explicit value kept", ctx.Branding.PrimaryColor)
	}
	if ctx.Branding.SecondaryColor != "#F59E0B" {
		t.Errorf("secondaryColor = %q, want default fallback", ctx.Branding.SecondaryColor)
	}
	if ctx.Branding.LogoURL != "/static/careassist-logo.svg" {
		t.Errorf("logoUrl = %q, want default fallback", ctx.Branding.LogoURL)
	}
	if ctx.Features["payments"] {
		t.Error("payments should fall back to the default (off)")
	}
	if !ctx.Features["wizard"] {
		t.Error("wizard should fall back to the default (on)")
	}
}

func TestSite_ContextUnknownTenantServesDefault(t *testing.T) {
	s := newSite(t)
	ctx := s.context("nowhere.example.com", "/api/context")

	if ctx.OrgSlug != "public" {
		t.Errorf("orgSlug = %q, want default", ctx.OrgSlug)
	}
	if ctx.Branding.Name != "CareAssist" {
		t.Errorf("name = %q, want default", ctx.Branding.Name)
	}
	// An unknown tenant is an expected outcome, not a failure.
	if ctx.TenantError != "" {
		t.Errorf("tenantError = %q, want empty", ctx.TenantError)
	}
}

func TestSite_ContextDirectoryUnreachableKeepsServing(t *testing.T) {
	s := newSite(t)
	s.upstream.Close()

	ctx := s.context("duke.example.com", "/api/context")
	if ctx.OrgSlug != "public" {
		t.Errorf("orgSlug = %q, want default when directory is down", ctx.OrgSlug)
	}
	if ctx.Branding.PrimaryColor != "#0F766E" {
		t.Errorf("primaryColor = %q, want default", ctx.Branding.PrimaryColor)
	}
	if ctx.TenantError == "" {
		t.Error("tenantError should carry a diagnostic when the directory is unreachable")
	}
}

func TestSite_QueryParamOverridesSubdomain(t *testing.T) {
	s := newSite(t)
	ctx := s.context("mayo.example.com", "/api/context?org=duke")
	if ctx.OrgSlug != "duke" {
		t.Errorf("orgSlug = %q, want query param to win", ctx.OrgSlug)
	}
}

func TestSite_PathPrefixSelectsTenant(t *testing.T) {
	s := newSite(t)
	ctx := s.context("www.example.com", "/org/mayo")
	if ctx.OrgSlug != "mayo" {
		t.Errorf("orgSlug = %q, want %q", ctx.OrgSlug, "mayo")
	}
}

func TestSite_LoginWrongPasswordRejected(t *testing.T) {
	s := newSite(t)
	resp := s.login("duke.example.com", "pat@duke.example", "not-the-password")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Error("error message should be present for the form to display")
	}

	ctx := s.context("duke.example.com", "/api/context")
	if ctx.Session != "unauthenticated" {
		t.Errorf("session = %q, failed login must not create one", ctx.Session)
	}
}

func TestSite_LoginEstablishesSession(t *testing.T) {
	s := newSite(t)
	s.mustLogin("duke.example.com", "pat@duke.example")

	ctx := s.context("duke.example.com", "/api/context")
	if ctx.Session != "authenticated" {
		t.Fatalf("session = %q, want authenticated", ctx.Session)
	}
	if ctx.User == nil || ctx.User.Email != "pat@duke.example" {
		t.Fatalf("user = %+v, want pat", ctx.User)
	}
	if ctx.IsAdmin || ctx.IsSuperAdmin {
		t.Error("viewer must not be admin")
	}
}

func TestSite_AdminGuard(t *testing.T) {
	t.Run("anonymous redirected", func(t *testing.T) {
		s := newSite(t)
		resp := s.do(http.MethodGet, "/admin", "duke.example.com", "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/" {
			t.Errorf("Location = %q, want %q", loc, "/")
		}
	})

	t.Run("viewer redirected", func(t *testing.T) {
		s := newSite(t)
		s.mustLogin("duke.example.com", "pat@duke.example")
		resp := s.do(http.MethodGet, "/admin", "duke.example.com", "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/" {
			t.Errorf("Location = %q, want %q", loc, "/")
		}
	})

	t.Run("org admin allowed", func(t *testing.T) {
		s := newSite(t)
		s.mustLogin("duke.example.com", "admin@duke.example")
		resp := s.do(http.MethodGet, "/admin", "duke.example.com", "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("org admin denied platform", func(t *testing.T) {
		s := newSite(t)
		s.mustLogin("duke.example.com", "admin@duke.example")
		resp := s.do(http.MethodGet, "/admin/platform", "duke.example.com", "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", resp.StatusCode)
		}
	})

	t.Run("super admin allowed platform", func(t *testing.T) {
		s := newSite(t)
		s.mustLogin("duke.example.com", "root@careassist.example")
		resp := s.do(http.MethodGet, "/admin/platform", "duke.example.com", "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})
}

func TestSite_TamperedTokenFailsClosed(t *testing.T) {
	s := newSite(t)
	s.mustLogin("duke.example.com", "admin@duke.example")

	// Replace the token with garbage while keeping the user snapshot.
	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/admin", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Host = "duke.example.com"
	for _, c := range s.client.Jar.Cookies(req.URL) {
		if c.Name == "careassist_token" {
			c.Value = "garbage"
		}
		req.AddCookie(c)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("GET /admin: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 after failed verification", resp.StatusCode)
	}
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == "careassist_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("failed verification should clear the persisted token")
	}
}

func TestSite_AuthServiceUnreachableFailsClosed(t *testing.T) {
	s := newSite(t)
	s.mustLogin("duke.example.com", "admin@duke.example")
	s.upstream.Close()

	resp := s.do(http.MethodGet, "/admin", "duke.example.com", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 when verification cannot reach the auth service", resp.StatusCode)
	}
}

func TestSite_RegisterConflictAndSuccess(t *testing.T) {
	s := newSite(t)

	resp := s.do(http.MethodPost, "/api/register", "duke.example.com",
		`{"email":"pat@duke.example","password":"Str0ng!pass","name":"Pat Again"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("register existing status = %d, want 409", resp.StatusCode)
	}

	resp = s.do(http.MethodPost, "/api/register", "duke.example.com",
		`{"email":"new@duke.example","password":"Str0ng!pass","name":"New Person"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("register new status = %d, body %s", resp.StatusCode, b)
	}

	ctx := s.context("duke.example.com", "/api/context")
	if ctx.Session != "authenticated" {
		t.Fatalf("session = %q, registration should sign in", ctx.Session)
	}
	if ctx.User == nil || ctx.User.Role != "viewer" {
		t.Errorf("user = %+v, new registrations start as viewers", ctx.User)
	}
}

func TestSite_LogoutClearsSession(t *testing.T) {
	s := newSite(t)
	s.mustLogin("duke.example.com", "pat@duke.example")

	resp := s.do(http.MethodPost, "/api/logout", "duke.example.com", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", resp.StatusCode)
	}

	ctx := s.context("duke.example.com", "/api/context")
	if ctx.Session != "unauthenticated" {
		t.Errorf("session = %q, want unauthenticated after logout", ctx.Session)
	}
	if ctx.User != nil {
		t.Errorf("user = %+v, want nil after logout", ctx.User)
	}
}

func TestSite_MalformedLoginBody(t *testing.T) {
	s := newSite(t)
	resp := s.do(http.MethodPost, "/api/login", "duke.example.com", `{not json`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
