// Package profileurl recognizes and normalizes public LinkedIn profile URLs.
package profileurl

import (
	"net/url"
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`(?i)linkedin\.com/in/([^/?#]+)`)

// Username extracts the public identifier from anything that looks like a profile link.
func Username(raw string) (string, bool) {
	m := usernameRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	id := m[1]
	if dec, err := url.PathUnescape(id); err == nil {
		id = dec
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

// IsProfile reports whether raw is exactly a profile page (linkedin.com/in/<id>),
// not a post, job, company page, or a sub-page of a profile.
func IsProfile(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return len(segs) == 2 && strings.EqualFold(segs[0], "in") && segs[1] != ""
}

// Canonical returns https://www.linkedin.com/in/<id> for a profile URL, or "" if raw is not one.
func Canonical(raw string) string {
	if !IsProfile(raw) {
		return ""
	}
	id, ok := Username(raw)
	if !ok {
		return ""
	}
	return "https://www.linkedin.com/in/" + url.PathEscape(strings.ToLower(id))
}
