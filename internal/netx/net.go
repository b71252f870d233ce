// Package netx holds URL helpers shared by the asset cache agent and its
// network backends.
package netx

import (
	"fmt"
	"net/url"
	"strings"
)

// SameOrigin reports whether a and b share scheme, host and port.
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(a.Scheme, b.Scheme) &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}

// CacheKey returns the snapshot key for u: its path (at least "/") plus the
// raw query when present. Fragments never reach the network and are dropped.
func CacheKey(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		return p + "?" + u.RawQuery
	}
	return p
}

// Resolve resolves a manifest entry such as "./index.html" against base and
// rejects references that leave base's origin.
func Resolve(base *url.URL, ref string) (*url.URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", ref, err)
	}
	u := base.ResolveReference(r)
	if !SameOrigin(base, u) {
		return nil, fmt.Errorf("%q is outside origin %s", ref, base.Host)
	}
	u.Fragment = ""
	return u, nil
}
