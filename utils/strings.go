// utils/strings.go - Input normalization helpers
package utils

import (
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashes   = regexp.MustCompile(`-{2,}`)
	playlistPath = regexp.MustCompile(`playlist[/:]([A-Za-z0-9]+)`)
)

// Slugify normalizes a string into a URL slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ExtractPlaylistID accepts a bare Spotify playlist ID, an open.spotify.com
// URL or a spotify: URI and returns the bare ID. Users paste all three.
func ExtractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	if m := playlistPath.FindStringSubmatch(input); len(m) == 2 {
		return m[1]
	}
	// Strip query parameters from partial URLs.
	if i := strings.IndexByte(input, '?'); i >= 0 {
		input = input[:i]
	}
	return input
}

// SanitizeInput trims whitespace and strips null bytes.
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
