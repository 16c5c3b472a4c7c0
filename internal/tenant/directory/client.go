// Package directory provides the client for the external organization
// directory, the service of record for partner organization configuration.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNotFound is returned when the directory has no organization for a slug.
var ErrNotFound = errors.New("organization not found")

// Record is the raw organization payload returned by the directory. Optional
// fields are zero-valued when the directory omits them; the config store
// applies per-field fallback.
type Record struct {
	ID             string          `json:"id"`
	Slug           string          `json:"slug"`
	Name           string          `json:"name"`
	LogoURL        string          `json:"logoUrl"`
	PrimaryColor   string          `json:"primaryColor"`
	SecondaryColor string          `json:"secondaryColor"`
	Features       map[string]bool `json:"features"`
	Plan           string          `json:"plan"`
}

// Client fetches organization records by slug. Implementations must return
// ErrNotFound for unknown slugs so callers can distinguish a genuine miss from
// an upstream failure.
type Client interface {
	FetchBySlug(ctx context.Context, slug string) (*Record, error)
}

// HTTPClient is the production Client over GET /organization?slug=<slug>.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a directory client for the given base URL. Requests
// are instrumented with otelhttp and bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// FetchBySlug fetches the organization record for slug. Returns ErrNotFound
// on a 404, an error on any other non-200 response or transport failure.
func (c *HTTPClient) FetchBySlug(ctx context.Context, slug string) (*Record, error) {
	u := c.baseURL + "/organization?slug=" + url.QueryEscape(slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("directory: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory: fetch %q: %w", slug, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("directory: fetch %q: unexpected status %d", slug, resp.StatusCode)
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("directory: decode %q: %w", slug, err)
	}
	return &rec, nil
}
