// Package tenant maps a request's host name to a tenant slug. The
// mapping is deterministic and pure so it can be unit tested without
// any network or database access; middleware turns the slug into a
// tenant row.
package tenant

import "strings"

// reserved subdomain labels that never name a tenant.
var reserved = map[string]bool{
	"www":   true,
	"api":   true,
	"admin": true,
	"app":   true,
}

// Resolve extracts the tenant slug from a host name. The rule: strip
// any port, lowercase, split on dots; with at least three labels and a
// leading label outside the reserved set, that label is the slug.
// Anything else (apex domain, reserved subdomain, bare host) is the
// platform/root context and resolves to no tenant.
func Resolve(host string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return "", false
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimSuffix(host, ".")
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", false
	}
	slug := labels[0]
	if slug == "" || reserved[slug] {
		return "", false
	}
	return slug, true
}
