package urlutil

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/amanahapps/guardian/internal/guard/domain"
)

// CanonicalDomain returns a rule domain in canonical form:
// - Lowercased, trimmed of surrounding whitespace
// - No scheme, no path, no port
// - No leading "www." and no trailing dots
// Rule sources and request hosts both pass through here so comparisons
// stay apples-to-apples.
func CanonicalDomain(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	if i := strings.IndexAny(name, "/?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "www.")
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// NormalizeHost extracts the canonical host from a URL or bare domain.
// Schemeless input is treated as https so bare domains parse. Returns
// domain.ErrMalformedURL when no host can be recovered; the classifier
// then falls through to keyword-only checking (or blocks, in strict mode).
func NormalizeHost(urlOrHost string) (string, error) {
	s := strings.TrimSpace(urlOrHost)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", domain.ErrMalformedURL)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: no host in %q", domain.ErrMalformedURL, urlOrHost)
	}
	return CanonicalDomain(host), nil
}

// MatchesDomain reports whether host (canonical) matches the rule domain
// (canonical) by exact match or as a subdomain. The dot separator is
// required for the suffix case so "notexample.com" never matches rule
// "example.com".
func MatchesDomain(host, rule string) bool {
	if host == "" || rule == "" {
		return false
	}
	if host == rule {
		return true
	}
	return strings.HasSuffix(host, "."+rule)
}

// ApexDomain returns the registrable domain (eTLD+1) for a canonical host,
// falling back to the host itself when the public suffix list cannot
// resolve it.
func ApexDomain(host string) string {
	apex, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return apex
}
