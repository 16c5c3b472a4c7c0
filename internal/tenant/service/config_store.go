package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"

	"github.com/careassist/careassist/internal/tenant/directory"
	"github.com/careassist/careassist/internal/tenant/domain"
)

// ConfigStore loads tenant configuration by slug. Load never fails from the
// caller's point of view: every path yields a fully-populated Organization,
// degrading to the built-in default. The returned error is diagnostic only.
type ConfigStore struct {
	dir      directory.Client
	cache    *ristretto.Cache[string, *domain.Organization]
	cacheTTL time.Duration
}

// NewConfigStore returns a ConfigStore over the given directory client.
// maxCached bounds the in-process cache entry count; cacheTTL bounds staleness
// of a tenant's configuration after the directory record changes.
func NewConfigStore(dir directory.Client, maxCached int64, cacheTTL time.Duration) (*ConfigStore, error) {
	if maxCached <= 0 {
		maxCached = 1024
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *domain.Organization]{
		NumCounters: maxCached * 10,
		MaxCost:     maxCached,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("tenant cache: %w", err)
	}
	return &ConfigStore{dir: dir, cache: cache, cacheTTL: cacheTTL}, nil
}

// Close releases cache resources.
func (s *ConfigStore) Close() {
	s.cache.Close()
}

// Load returns the Organization for slug. The result is always non-nil and
// safe to use without further checks; callers that do not surface diagnostics
// may ignore the error entirely.
//
// The default slug short-circuits before any cache or network access, so the
// unconfigured path never depends on the directory being reachable. An
// unknown slug falls back silently (a typo'd subdomain must be unobservable
// to the visitor); any other failure falls back too, with the reason returned
// for optional diagnostic display.
func (s *ConfigStore) Load(ctx context.Context, slug string) (*domain.Organization, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" || slug == domain.DefaultSlug {
		return domain.Default(), nil
	}

	if org, ok := s.cache.Get(slug); ok {
		return org.Clone(), nil
	}

	rec, err := s.dir.FetchBySlug(ctx, slug)
	if errors.Is(err, directory.ErrNotFound) {
		log.Warn().Str("slug", slug).Msg("unknown tenant, serving default organization")
		return domain.Default(), nil
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("tenant load failed, serving default organization")
		return domain.Default(), fmt.Errorf("tenant %q unavailable: %w", slug, err)
	}

	org := mapRecord(slug, rec)
	s.cache.SetWithTTL(slug, org.Clone(), 1, s.cacheTTL)
	return org, nil
}

// mapRecord maps a raw directory record onto the Organization shape. Each
// optional field falls back independently to the default organization's
// value, so a partially-configured tenant still yields a fully-populated
// result.
func mapRecord(slug string, rec *directory.Record) *domain.Organization {
	def := domain.Default()

	org := &domain.Organization{
		ID:             rec.ID,
		Slug:           slug,
		Name:           rec.Name,
		LogoURL:        rec.LogoURL,
		PrimaryColor:   rec.PrimaryColor,
		SecondaryColor: rec.SecondaryColor,
		Plan:           domain.Plan(rec.Plan),
	}
	if rec.Slug != "" {
		org.Slug = strings.ToLower(rec.Slug)
	}
	if org.Name == "" {
		org.Name = def.Name
	}
	if org.LogoURL == "" {
		org.LogoURL = def.LogoURL
	}
	if org.PrimaryColor == "" {
		org.PrimaryColor = def.PrimaryColor
	}
	if org.SecondaryColor == "" {
		org.SecondaryColor = def.SecondaryColor
	}
	if org.Plan == "" {
		org.Plan = def.Plan
	}
	if rec.Features != nil {
		org.Features = make(map[string]bool, len(rec.Features))
		for k, v := range rec.Features {
			org.Features[k] = v
		}
	} else {
		org.Features = def.Features
	}
	return org
}
