// Package resolver determines which tenant slug applies to a request. It is
// pure: no I/O, no failure modes, always a non-empty lowercase slug.
package resolver

import (
	"net"
	"net/url"
	"strings"

	"github.com/careassist/careassist/internal/tenant/domain"
)

// QueryParam is the query-string override used for local testing and
// impersonation (?org=<slug>).
const QueryParam = "org"

// PathPrefix is the path-based tenanting prefix (/org/<slug>/...).
const PathPrefix = "/org/"

// ignoredSubdomains are hostname first-labels that never name a tenant.
var ignoredSubdomains = map[string]bool{
	"www":     true,
	"app":     true,
	"admin":   true,
	"api":     true,
	"staging": true,
	"dev":     true,
}

// Context carries the request attributes tenant resolution inspects.
type Context struct {
	// Host is the request host, optionally with a port.
	Host string
	// Path is the URL path.
	Path string
	// Query is the parsed query string.
	Query url.Values
}

// Resolve returns the tenant slug for the given context. Precedence, first
// match wins: query override, /org/<slug> path prefix, subdomain, then the
// default slug. The order is a contract; callers rely on the query override
// beating production tenanting strategies.
func Resolve(c Context) string {
	if slug := strings.TrimSpace(c.Query.Get(QueryParam)); slug != "" {
		return strings.ToLower(slug)
	}

	if slug := pathSlug(c.Path); slug != "" {
		return slug
	}

	if slug := subdomainSlug(c.Host); slug != "" {
		return slug
	}

	return domain.DefaultSlug
}

// pathSlug extracts the slug from /org/<slug>/... paths, or "" if the path
// does not match.
func pathSlug(path string) string {
	if !strings.HasPrefix(path, PathPrefix) {
		return ""
	}
	rest := path[len(PathPrefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return strings.ToLower(strings.TrimSpace(rest))
}

// subdomainSlug extracts the first hostname label when the host has at least
// three labels and the first is not an infrastructure name. Bare hosts,
// localhost, and IP literals never resolve to a tenant.
func subdomainSlug(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	first := labels[0]
	if first == "" || ignoredSubdomains[first] {
		return ""
	}
	return first
}
