package main

import (
	"net/url"
	"strings"
)

// matchCORSOrigin reports whether origin is allowed by patterns. A pattern
// is "*", an exact origin, or scheme://*.domain which admits any subdomain
// of domain (not domain itself) over the same scheme.
func matchCORSOrigin(origin string, patterns []string) bool {
	o, err := url.Parse(origin)
	if err != nil || o.Scheme == "" || o.Host == "" {
		return false
	}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
			continue
		case p == "*":
			return true
		case strings.EqualFold(strings.TrimRight(p, "/"), origin):
			return true
		}
		pu, err := url.Parse(p)
		if err != nil || !strings.HasPrefix(pu.Host, "*.") {
			continue
		}
		if !strings.EqualFold(pu.Scheme, o.Scheme) {
			continue
		}
		suffix := strings.ToLower(pu.Host[1:])
		host := strings.ToLower(o.Host)
		if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}
