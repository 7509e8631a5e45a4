// ABOUTME: Normalizes YouTube watch, short, shorts, live, and embed links
// ABOUTME: Produces the canonical https://www.youtube.com/embed/<id> form

package embed

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind is the provider recorded in module data.
const Kind = "youtube"

const canonicalPrefix = "https://www.youtube.com/embed/"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var shortHosts = map[string]bool{
	"youtu.be":     true,
	"www.youtu.be": true,
}

var longHosts = map[string]bool{
	"youtube.com":              true,
	"www.youtube.com":          true,
	"m.youtube.com":            true,
	"youtube-nocookie.com":     true,
	"www.youtube-nocookie.com": true,
}

// pathPrefixes carry the id as the next path segment on long-form hosts.
var pathPrefixes = []string{"embed", "shorts", "live"}

// Video is a recognized embeddable video.
type Video struct {
	ID       string
	URL      string // as entered, trimmed
	EmbedURL string
}

// Normalize recognizes raw as a supported video link. Scheme-less input is
// treated as https. It returns false for anything it cannot vouch for.
func Normalize(raw string) (Video, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Video{}, false
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Video{}, false
	}

	id, ok := extractID(u)
	if !ok {
		return Video{}, false
	}
	return Video{ID: id, URL: trimmed, EmbedURL: canonicalPrefix + id}, true
}

// EmbedURL is Normalize reduced to its canonical output.
func EmbedURL(raw string) (string, bool) {
	v, ok := Normalize(raw)
	return v.EmbedURL, ok
}

func extractID(u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())
	segments := pathSegments(u.Path)

	var id string
	switch {
	case shortHosts[host]:
		if len(segments) > 0 {
			id = segments[0]
		}
	case longHosts[host]:
		id = longFormID(u, segments)
	default:
		return "", false
	}

	if !idPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

func longFormID(u *url.URL, segments []string) string {
	if len(segments) >= 2 {
		for _, prefix := range pathPrefixes {
			if segments[0] == prefix {
				return segments[1]
			}
		}
	}
	return u.Query().Get("v")
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
