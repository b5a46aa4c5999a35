// Package embedlink normalizes arbitrary media URLs into embeddable player
// references. Pure functions, no state; malformed input passes through
// unchanged rather than erroring, so a worst-case result is a broken iframe
// and never an exception.
package embedlink

import (
	"net/url"
	"strings"
)

// Kind classifies a URL for embedding purposes.
type Kind string

const (
	KindVideo   Kind = "video"
	KindWebsite Kind = "website"
)

// DetectKind reports whether the URL points at a known video host. Anything
// unrecognized, including unparseable input, is a generic website.
func DetectKind(raw string) Kind {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return KindWebsite
	}
	switch host(u) {
	case "youtube.com", "youtu.be", "vimeo.com", "player.vimeo.com",
		"dailymotion.com", "dai.ly":
		return KindVideo
	default:
		return KindWebsite
	}
}

// ToEmbedURL rewrites a watch/share URL into its embeddable player form.
// Unrecognized formats pass through unchanged.
func ToEmbedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch host(u) {
	case "youtube.com":
		if id := youtubeID(u); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
	case "youtu.be":
		if id := firstPathSegment(u); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
	case "vimeo.com":
		if id := firstPathSegment(u); isDigits(id) {
			return "https://player.vimeo.com/video/" + id
		}
	case "dailymotion.com":
		if id := dailymotionID(u); id != "" {
			return "https://www.dailymotion.com/embed/video/" + id
		}
	case "dai.ly":
		if id := firstPathSegment(u); id != "" {
			return "https://www.dailymotion.com/embed/video/" + id
		}
	}
	return raw
}

func host(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func youtubeID(u *url.URL) string {
	segments := pathSegments(u)
	if len(segments) >= 2 {
		switch segments[0] {
		case "embed", "shorts", "live", "v":
			return segments[1]
		}
	}
	if u.Path == "/watch" || strings.HasPrefix(u.Path, "/watch") {
		return u.Query().Get("v")
	}
	return ""
}

func dailymotionID(u *url.URL) string {
	segments := pathSegments(u)
	if len(segments) >= 2 && segments[0] == "video" {
		return segments[1]
	}
	if len(segments) >= 3 && segments[0] == "embed" && segments[1] == "video" {
		return segments[2]
	}
	return ""
}

func pathSegments(u *url.URL) []string {
	var out []string
	for _, s := range strings.Split(u.EscapedPath(), "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstPathSegment(u *url.URL) string {
	segments := pathSegments(u)
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
