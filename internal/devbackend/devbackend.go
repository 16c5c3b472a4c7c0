// Package devbackend serves the external collaborator endpoints in-process
// for local development: the organization directory and the auth service.
// Nothing persists; every restart reseeds and invalidates issued tokens. It
// must never be mounted in production, which config.Load enforces.
package devbackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/careassist/careassist/internal/security"
	"github.com/careassist/careassist/internal/tenant/directory"
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// SeedPassword is the password for every seeded development account.
const SeedPassword = "Horizon!Meds1"

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errEmailRegistered    = errors.New("email already registered")
)

type account struct {
	user         userdomain.User
	passwordHash string
	orgID        string
}

// Backend is the in-memory directory + auth service.
type Backend struct {
	mu       sync.Mutex
	orgs     map[string]*directory.Record // by slug
	accounts map[string]*account          // by email
	hasher   *security.Hasher
	tokens   *security.TokenProvider
}

// New returns a seeded Backend.
func New() (*Backend, error) {
	tokens, err := security.NewEphemeralTokenProvider("careassist-dev", "careassist-site", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	b := &Backend{
		orgs:     make(map[string]*directory.Record),
		accounts: make(map[string]*account),
		hasher:   security.NewHasher(4), // low cost; dev data only
		tokens:   tokens,
	}
	if err := b.seed(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) seed() error {
	b.orgs["duke"] = &directory.Record{
		ID:             "org-duke",
		Slug:           "duke",
		Name:           "Duke Health",
		LogoURL:        "https://cdn.careassist.example/duke.svg",
		PrimaryColor:   "#001A57",
		SecondaryColor: "#C84E00",
		Features:       map[string]bool{"wizard": true, "quiz": true, "reminders": true, "payments": true},
		Plan:           "enterprise",
	}
	b.orgs["mayo"] = &directory.Record{
		ID:           "org-mayo",
		Slug:         "mayo",
		Name:         "Mayo Clinic",
		PrimaryColor: "#0057B8",
		Plan:         "pro",
		// Remaining fields intentionally absent to exercise fallback.
	}

	seedUsers := []struct {
		email string
		name  string
		role  userdomain.Role
		orgID string
	}{
		{"pat@duke.example", "Pat Rivera", userdomain.RoleViewer, "org-duke"},
		{"casey@duke.example", "Casey Bell", userdomain.RoleEditor, "org-duke"},
		{"admin@duke.example", "Dana Whitfield", userdomain.RoleOrgAdmin, "org-duke"},
		{"admin@mayo.example", "Jordan Liu", userdomain.RoleOrgAdmin, "org-mayo"},
		{"root@careassist.example", "Sam Okafor", userdomain.RoleSuperAdmin, ""},
	}
	hash, err := b.hasher.Hash([]byte(SeedPassword))
	if err != nil {
		return err
	}
	for _, su := range seedUsers {
		b.accounts[su.email] = &account{
			user: userdomain.User{
				ID:    uuid.New().String(),
				Email: su.email,
				Name:  su.name,
				Role:  su.role,
			},
			passwordHash: hash,
			orgID:        su.orgID,
		}
	}
	return nil
}

// Router returns the HTTP surface matching the external interfaces the site
// consumes.
func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/organization", b.handleOrganization)
	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/register", b.handleRegister)
	r.Get("/auth/verify", b.handleVerify)
	return r
}

func (b *Backend) handleOrganization(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("slug")))
	b.mu.Lock()
	rec, ok := b.orgs[slug]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "organization not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	OrgID    string `json:"orgId"`
}

type authResponse struct {
	Token string           `json:"token"`
	User  *userdomain.User `json:"user"`
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	b.mu.Lock()
	acct, ok := b.accounts[email]
	b.mu.Unlock()
	if !ok || b.hasher.Compare(acct.passwordHash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": errInvalidCredentials.Error()})
		return
	}
	// An account is bound to its organization; super admins (and accounts
	// reached through the default tenant) may log in anywhere.
	if acct.orgID != "" && req.OrgID != "" && acct.orgID != req.OrgID {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": errInvalidCredentials.Error()})
		return
	}

	b.issue(w, acct)
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email"})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	hash, err := b.hasher.Hash([]byte(req.Password))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "hashing failed"})
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[email]; exists {
		b.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": errEmailRegistered.Error()})
		return
	}
	acct := &account{
		user: userdomain.User{
			ID:    uuid.New().String(),
			Email: email,
			Name:  strings.TrimSpace(req.Name),
			Role:  userdomain.RoleViewer, // new accounts start at the bottom
		},
		passwordHash: hash,
		orgID:        req.OrgID,
	}
	b.accounts[email] = acct
	b.mu.Unlock()

	b.issue(w, acct)
}

func (b *Backend) issue(w http.ResponseWriter, acct *account) {
	token, _, err := b.tokens.Issue(acct.user.ID, acct.orgID, string(acct.user.Role))
	if err != nil {
		log.Error().Err(err).Msg("devbackend: issue token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token issue failed"})
		return
	}
	u := acct.user
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: &u})
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	const prefix = "bearer "
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	token := strings.TrimSpace(header[len(prefix):])

	userID, err := b.tokens.Validate(token)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.accounts {
		if acct.user.ID == userID {
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	w.WriteHeader(http.StatusUnauthorized)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
