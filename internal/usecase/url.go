package usecase

import (
	"net/url"
	"strings"
)

// NormalizeURL prefixes https:// when no scheme is present.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "http") {
		return trimmed
	}
	return "https://" + trimmed
}

// IsValidURL accepts anything that normalizes to a URL whose host has a dot.
func IsValidURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.Contains(host, ".")
}

// ExtractDomain returns the host of raw, or raw itself when it cannot be parsed.
func ExtractDomain(raw string) string {
	u, err := url.Parse(NormalizeURL(raw))
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.ToLower(u.Hostname())
}
