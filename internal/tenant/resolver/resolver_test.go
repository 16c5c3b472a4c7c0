package resolver

import (
	"net/url"
	"testing"
)

func TestResolve_QueryOverrideWinsOverSubdomain(t *testing.T) {
	got := Resolve(Context{
		Host:  "mayo.example.com",
		Path:  "/",
		Query: url.Values{"org": []string{"duke"}},
	})
	if got != "duke" {
		t.Errorf("Resolve = %q, want %q", got, "duke")
	}
}

func TestResolve_QueryOverrideWinsOverPath(t *testing.T) {
	got := Resolve(Context{
		Host:  "example.com",
		Path:  "/org/mayo/start",
		Query: url.Values{"org": []string{"duke"}},
	})
	if got != "duke" {
		t.Errorf("Resolve = %q, want %q", got, "duke")
	}
}

func TestResolve_PathWinsOverSubdomain(t *testing.T) {
	got := Resolve(Context{
		Host:  "mayo.example.com",
		Path:  "/org/duke/start",
		Query: url.Values{},
	})
	if got != "duke" {
		t.Errorf("Resolve = %q, want %q", got, "duke")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		host  string
		path  string
		query string
		want  string
	}{
		{"subdomain", "duke.example.com", "/", "", "duke"},
		{"subdomain with port", "duke.example.com:8443", "/", "", "duke"},
		{"subdomain uppercased", "DUKE.Example.COM", "/", "", "duke"},
		{"ignored www", "www.example.com", "/", "", "public"},
		{"ignored app", "app.example.com", "/", "", "public"},
		{"ignored admin", "admin.example.com", "/", "", "public"},
		{"ignored api", "api.example.com", "/", "", "public"},
		{"ignored staging", "staging.example.com", "/", "", "public"},
		{"ignored dev", "dev.example.com", "/", "", "public"},
		{"two labels", "example.com", "/", "", "public"},
		{"bare localhost", "localhost", "/", "", "public"},
		{"localhost with port", "localhost:3000", "/", "", "public"},
		{"ipv4 literal", "127.0.0.1", "/", "", "public"},
		{"ipv4 with port", "127.0.0.1:8080", "/", "", "public"},
		{"ipv6 literal", "[::1]:8080", "/", "", "public"},
		{"empty host", "", "/", "", "public"},
		{"path slug", "localhost", "/org/duke/meds", "", "duke"},
		{"path slug no trailing segment", "localhost", "/org/duke", "", "duke"},
		{"path slug uppercased", "localhost", "/org/Duke/meds", "", "duke"},
		{"path prefix without slug", "localhost", "/org/", "", "public"},
		{"unrelated path", "localhost", "/organizations", "", "public"},
		{"query lowercased", "localhost", "/", "org=Duke", "duke"},
		{"query blank falls through", "duke.example.com", "/", "org=", "duke"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got := Resolve(Context{Host: tt.host, Path: tt.path, Query: q})
			if got != tt.want {
				t.Errorf("Resolve(%q, %q, %q) = %q, want %q", tt.host, tt.path, tt.query, got, tt.want)
			}
		})
	}
}

func TestResolve_NeverEmpty(t *testing.T) {
	hosts := []string{"", "localhost", "a.b", "x.y.z", "www.a.b", "10.0.0.1"}
	for _, h := range hosts {
		if got := Resolve(Context{Host: h, Query: url.Values{}}); got == "" {
			t.Errorf("Resolve with host %q returned empty slug", h)
		}
	}
}
