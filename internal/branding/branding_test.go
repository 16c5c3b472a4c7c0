package branding

import (
	"testing"

	"github.com/careassist/careassist/internal/tenant/domain"
)

func TestApply_ExplicitValues(t *testing.T) {
	org := &domain.Organization{
		ID:             "org-duke",
		Slug:           "duke",
		Name:           "Duke Health",
		LogoURL:        "https://cdn.example.com/duke.svg",
		PrimaryColor:   "#001A57",
		SecondaryColor: "#C84E00",
	}
	b := Apply(org)
	if b.Name != "Duke Health" || b.LogoURL != "https://cdn.example.com/duke.svg" {
		t.Errorf("identity not carried through: %+v", b)
	}
	if b.PrimaryColor != "#001A57" || b.SecondaryColor != "#C84E00" {
		t.Errorf("colors not carried through: %+v", b)
	}
}

func TestApply_FallsBackPerField(t *testing.T) {
	def := domain.Default()
	org := &domain.Organization{Slug: "duke", Name: "Duke Health"}
	b := Apply(org)
	if b.Name != "Duke Health" {
		t.Errorf("Name = %q", b.Name)
	}
	if b.PrimaryColor != def.PrimaryColor || b.SecondaryColor != def.SecondaryColor {
		t.Errorf("colors should fall back to default: %+v", b)
	}
	if b.LogoURL != def.LogoURL {
		t.Errorf("LogoURL should fall back to default: %+v", b)
	}
}

func TestApply_NilOrg(t *testing.T) {
	def := domain.Default()
	b := Apply(nil)
	if b.Name != def.Name || b.PrimaryColor != def.PrimaryColor {
		t.Errorf("nil org should produce default branding: %+v", b)
	}
}

func TestEnabled_FallbackChain(t *testing.T) {
	// The default org defines wizard=true and payments=false.
	tests := []struct {
		name    string
		org     *domain.Organization
		feature string
		want    bool
	}{
		{"explicit true", &domain.Organization{Features: map[string]bool{"payments": true}}, "payments", true},
		{"explicit false overrides default true", &domain.Organization{Features: map[string]bool{"wizard": false}}, "wizard", false},
		{"absent key inherits default true", &domain.Organization{Features: map[string]bool{}}, "wizard", true},
		{"absent key inherits default false", &domain.Organization{Features: map[string]bool{}}, "payments", false},
		{"absent everywhere is false", &domain.Organization{Features: map[string]bool{}}, "telehealth", false},
		{"nil feature map inherits default", &domain.Organization{}, "wizard", true},
		{"nil org inherits default", nil, "wizard", true},
		{"nil org unknown feature", nil, "telehealth", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Enabled(tt.org, tt.feature); got != tt.want {
				t.Errorf("Enabled(%q) = %v, want %v", tt.feature, got, tt.want)
			}
		})
	}
}

func TestGate_BindsOrganization(t *testing.T) {
	g := NewGate(&domain.Organization{Features: map[string]bool{"payments": true}})
	if !g.Enabled("payments") {
		t.Error("gate should report explicit true")
	}
	if !g.Enabled("wizard") {
		t.Error("gate should inherit default true for absent key")
	}
	if g.Enabled("telehealth") {
		t.Error("gate should report false for unknown feature")
	}
}
