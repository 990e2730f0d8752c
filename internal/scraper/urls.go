package scraper

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

const (
	aboutSegment    = "about"
	defaultFilename = "index"
)

var disallowedFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// EnsureAbout rewrites a page URL so its path ends with the about segment.
// URLs already pointing there (with or without a trailing slash) are
// returned unchanged.
func EnsureAbout(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if strings.HasSuffix(strings.TrimRight(path, "/"), "/"+aboutSegment) {
		return raw
	}
	suffix := "/" + aboutSegment
	if strings.HasSuffix(path, "/") {
		suffix = aboutSegment
	}
	u.Path = path + suffix
	if u.RawPath != "" {
		u.RawPath += suffix
	}
	return u.String()
}

// SafeFilename derives a filesystem-safe name from the escaped URL path.
// Separators become underscores and anything outside [a-zA-Z0-9_-] is
// dropped, so percent escapes keep their hex digits.
func SafeFilename(raw string) string {
	var path string
	if u, err := url.Parse(raw); err == nil {
		path = u.EscapedPath()
	}
	name := strings.ReplaceAll(strings.Trim(path, "/"), "/", "_")
	name = disallowedFilenameChars.ReplaceAllString(name, "")
	if name == "" {
		return defaultFilename
	}
	return name
}

// IsJSONString reports whether v is a string holding valid JSON.
func IsJSONString(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return json.Valid([]byte(s))
}
