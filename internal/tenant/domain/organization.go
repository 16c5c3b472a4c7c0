package domain

import "errors"

// DefaultSlug is the reserved slug for the built-in default organization,
// used whenever no tenant is resolved or tenant loading fails.
const DefaultSlug = "public"

// Organization is a partner tenant (hospital, payer, employer) with its own
// branding and feature configuration. Exactly one Organization is current for
// a given request; all consumers treat it as a read-only snapshot.
type Organization struct {
	// ID is empty only for the built-in default (no backing record).
	ID             string
	Slug           string
	Name           string
	LogoURL        string
	PrimaryColor   string
	SecondaryColor string
	Features       map[string]bool
	Plan           Plan
}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Default returns the built-in default organization. Every field a downstream
// consumer reads is populated, so callers never need nil-checks after fallback.
// Each call returns a fresh value; the feature map is not shared.
func Default() *Organization {
	return &Organization{
		ID:             "",
		Slug:           DefaultSlug,
		Name:           "CareAssist",
		LogoURL:        "/static/careassist-logo.svg",
		PrimaryColor:   "#0F766E",
		SecondaryColor: "#F59E0B",
		Features: map[string]bool{
			"wizard":    true,
			"quiz":      true,
			"reminders": true,
			"payments":  false,
		},
		Plan: PlanFree,
	}
}

// IsDefault reports whether the organization is the built-in default.
func (o *Organization) IsDefault() bool {
	return o.ID == "" && o.Slug == DefaultSlug
}

// Validate validates an organization loaded from the directory. Returns an
// error describing the first validation failure.
func (o *Organization) Validate() error {
	if o.Slug == "" {
		return errors.New("slug is required")
	}
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.PrimaryColor == "" || o.SecondaryColor == "" {
		return errors.New("colors must be populated")
	}
	if o.Features == nil {
		return errors.New("feature map must be populated")
	}
	return nil
}

// Clone returns a deep copy so cached organizations stay immutable snapshots.
func (o *Organization) Clone() *Organization {
	if o == nil {
		return nil
	}
	cp := *o
	if o.Features != nil {
		cp.Features = make(map[string]bool, len(o.Features))
		for k, v := range o.Features {
			cp.Features[k] = v
		}
	}
	return &cp
}
