// Package branding derives presentation variables and feature availability
// from the current organization.
package branding

import "github.com/careassist/careassist/internal/tenant/domain"

// Branding is the small set of presentation variables pages consume.
type Branding struct {
	Name           string `json:"name"`
	LogoURL        string `json:"logoUrl"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
}

// Apply derives Branding from org. Every field falls back to the default
// organization's value when empty, so consumers never see an empty color.
func Apply(org *domain.Organization) Branding {
	def := domain.Default()
	if org == nil {
		org = def
	}
	b := Branding{
		Name:           org.Name,
		LogoURL:        org.LogoURL,
		PrimaryColor:   org.PrimaryColor,
		SecondaryColor: org.SecondaryColor,
	}
	if b.Name == "" {
		b.Name = def.Name
	}
	if b.LogoURL == "" {
		b.LogoURL = def.LogoURL
	}
	if b.PrimaryColor == "" {
		b.PrimaryColor = def.PrimaryColor
	}
	if b.SecondaryColor == "" {
		b.SecondaryColor = def.SecondaryColor
	}
	return b
}

// Enabled reports whether the named feature is on for org. Lookup order:
// the organization's explicit value, then the default organization's value,
// then false. The middle step is what lets a new feature ship with a safe
// global default while remaining overridable per tenant.
func Enabled(org *domain.Organization, feature string) bool {
	if org != nil && org.Features != nil {
		if v, ok := org.Features[feature]; ok {
			return v
		}
	}
	if v, ok := domain.Default().Features[feature]; ok {
		return v
	}
	return false
}

// Gate is a feature lookup bound to one organization, handed to pages so they
// gate optional functionality without carrying the organization around.
type Gate struct {
	org *domain.Organization
}

// NewGate returns a Gate for org.
func NewGate(org *domain.Organization) Gate {
	return Gate{org: org}
}

// Enabled reports whether the named feature is on, with the same fallback
// chain as the package-level Enabled.
func (g Gate) Enabled(feature string) bool {
	return Enabled(g.org, feature)
}
