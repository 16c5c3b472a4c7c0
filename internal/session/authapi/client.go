// Package authapi provides the client for the external authentication
// service: login, registration, and bearer-token verification.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	userdomain "github.com/careassist/careassist/internal/user/domain"
)

// Sentinel errors; callers branch on these to shape user-facing messages.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
)

// AuthError is a typed failure from login or registration, carrying the
// human-readable message the form should display. It wraps one of the
// sentinel errors when the cause is recognized.
type AuthError struct {
	Message string
	cause   error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.cause }

// LoginResult is the auth service's response to a successful login or
// registration.
type LoginResult struct {
	Token string           `json:"token"`
	User  *userdomain.User `json:"user"`
}

// Client is the auth service surface the session store depends on.
type Client interface {
	Login(ctx context.Context, email, password, orgID string) (*LoginResult, error)
	Register(ctx context.Context, email, password, name, orgID string) (*LoginResult, error)
	// Verify reports whether the bearer token is valid. Any transport
	// failure is an error; the caller decides how to treat it (the session
	// store fails closed).
	Verify(ctx context.Context, token string) (bool, error)
}

// HTTPClient is the production Client over the auth service's REST endpoints.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns an auth client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	OrgID    string `json:"orgId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login authenticates email/password for the given org. Credential failures
// come back as an *AuthError wrapping ErrInvalidCredentials; transport and
// server failures as plain errors.
func (c *HTTPClient) Login(ctx context.Context, email, password, orgID string) (*LoginResult, error) {
	return c.post(ctx, "/auth/login", loginRequest{Email: email, Password: password, OrgID: orgID})
}

// Register creates an account and returns the same shape as Login. A 409
// yields an *AuthError wrapping ErrEmailAlreadyRegistered.
func (c *HTTPClient) Register(ctx context.Context, email, password, name, orgID string) (*LoginResult, error) {
	return c.post(ctx, "/auth/register", loginRequest{Email: email, Password: password, Name: name, OrgID: orgID})
}

func (c *HTTPClient) post(ctx context.Context, path string, body loginRequest) (*LoginResult, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("authapi: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("authapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authapi: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er)
		var cause error
		switch resp.StatusCode {
		case http.StatusConflict:
			cause = ErrEmailAlreadyRegistered
		case http.StatusUnauthorized, http.StatusBadRequest, http.StatusForbidden:
			cause = ErrInvalidCredentials
		default:
			return nil, fmt.Errorf("authapi: %s: unexpected status %d", path, resp.StatusCode)
		}
		msg := er.Error
		if msg == "" {
			msg = cause.Error()
		}
		return nil, &AuthError{Message: msg, cause: cause}
	}

	var out LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("authapi: decode response: %w", err)
	}
	if out.Token == "" || out.User == nil {
		return nil, fmt.Errorf("authapi: %s: incomplete response", path)
	}
	return &out, nil
}

// Verify checks the bearer token against GET /auth/verify. A 200 is valid;
// any other status is invalid; a transport failure is returned as an error.
func (c *HTTPClient) Verify(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/verify", nil)
	if err != nil {
		return false, fmt.Errorf("authapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("authapi: verify: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode == http.StatusOK, nil
}
