// Package session owns the persisted authentication state: the bearer token
// and the cached user snapshot. The Store is the sole writer of both; every
// other component reads through its accessors so there is exactly one answer
// to "who is logged in".
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/careassist/careassist/internal/kv"
	"github.com/careassist/careassist/internal/session/authapi"
	"github.com/careassist/careassist/internal/session/domain"
	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// Persisted storage keys. The pair is always written and cleared together;
// a token without a user snapshot (or vice versa) is treated as absent.
const (
	TokenKey = "careassist_token"
	UserKey  = "careassist_user"
)

// Store manages the session lifecycle:
//
//	Unauthenticated -> Pending          (LoadPersisted finds a token)
//	Pending         -> Authenticated    (Verify succeeds)
//	Pending         -> Unauthenticated  (Verify fails; state cleared)
//	Unauthenticated -> Authenticated    (Login/Register succeed)
//	any             -> Unauthenticated  (Logout)
//
// A persisted token is never trusted for privileged rendering before Verify
// has passed once in the current lifetime.
type Store struct {
	kv   kv.Store
	auth authapi.Client

	mu    sync.Mutex
	state domain.State
	token string
	user  *userdomain.User
}

// NewStore returns a Store over the given persistence backend and auth
// client. Call LoadPersisted before anything else.
func NewStore(store kv.Store, auth authapi.Client) *Store {
	return &Store{kv: store, auth: auth, state: domain.Unauthenticated}
}

// LoadPersisted reads the persisted session. Returns the session and true if
// a complete token+user pair was found; the session state is then Pending and
// must pass Verify before being trusted. An incomplete or corrupt pair is
// cleared and reported absent.
func (s *Store) LoadPersisted() (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, okToken := s.kv.Get(TokenKey)
	rawUser, okUser := s.kv.Get(UserKey)
	if !okToken || token == "" {
		if okUser {
			s.clearLocked()
		}
		return nil, false
	}
	if !okUser {
		s.clearLocked()
		return nil, false
	}

	var u userdomain.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil || u.Validate() != nil {
		log.Warn().Msg("discarding corrupt persisted session")
		s.clearLocked()
		return nil, false
	}

	s.token = token
	s.user = &u
	s.state = domain.Pending
	return &domain.Session{Token: token, User: &u}, true
}

// Verify checks the current token against the auth service. On success the
// session becomes Authenticated. On an invalid token, or on any transport
// failure, the session is cleared entirely: an expired token must never be
// left trusted, so verification fails closed and is not retried.
func (s *Store) Verify(ctx context.Context) bool {
	s.mu.Lock()
	token := s.token
	state := s.state
	s.mu.Unlock()

	if state == domain.Unauthenticated || token == "" {
		return false
	}

	ok, err := s.auth.Verify(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("session verification unreachable, signing out")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || !ok {
		s.clearLocked()
		return false
	}
	s.state = domain.Authenticated
	return true
}

// Login authenticates against the auth service. On success the token and
// user snapshot are persisted together and the session is Authenticated (the
// server's response is itself the proof of validity). On failure nothing is
// mutated and the typed error is returned for the form to display.
func (s *Store) Login(ctx context.Context, email, password, orgID string) (*userdomain.User, error) {
	res, err := s.auth.Login(ctx, email, password, orgID)
	if err != nil {
		return nil, err
	}
	return s.adopt(res)
}

// Register creates an account; contract mirrors Login.
func (s *Store) Register(ctx context.Context, email, password, name, orgID string) (*userdomain.User, error) {
	res, err := s.auth.Register(ctx, email, password, name, orgID)
	if err != nil {
		return nil, err
	}
	return s.adopt(res)
}

func (s *Store) adopt(res *authapi.LoginResult) (*userdomain.User, error) {
	raw, err := json.Marshal(res.User)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv.Set(TokenKey, res.Token)
	s.kv.Set(UserKey, string(raw))
	s.token = res.Token
	s.user = res.User
	s.state = domain.Authenticated
	return res.User, nil
}

// Logout clears the persisted pair and the in-memory snapshot from any state.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Token returns the current bearer token, absent when unauthenticated.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.Unauthenticated || s.token == "" {
		return "", false
	}
	return s.token, true
}

// CurrentUser returns the cached user snapshot, or nil. Callers must treat
// it as read-only.
func (s *Store) CurrentUser() *userdomain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// State returns the current lifecycle state.
func (s *Store) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) clearLocked() {
	s.kv.Delete(TokenKey)
	s.kv.Delete(UserKey)
	s.token = ""
	s.user = nil
	s.state = domain.Unauthenticated
}
