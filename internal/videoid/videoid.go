// Package videoid extracts canonical YouTube video identifiers from URLs.
package videoid

import (
	"errors"
	"regexp"
)

// ErrNoVideoID is returned when no recognizable video identifier is present.
var ErrNoVideoID = errors.New("no YouTube video ID found in URL")

// patterns are tried in order; the first 11-character match anywhere in the
// input wins. The input does not need to be a well-formed URL beyond the
// recognized substring, so IDs embedded among tracking parameters still resolve.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
}

// Extract returns the 11-character video ID contained in url.
// Supports canonical watch URLs, youtu.be short links, and shorts URLs.
func Extract(url string) (string, error) {
	for _, pat := range patterns {
		if m := pat.FindStringSubmatch(url); len(m) == 2 {
			return m[1], nil
		}
	}
	return "", ErrNoVideoID
}
