package embedlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectKind(t *testing.T) {
	cases := []struct {
		url  string
		want Kind
	}{
		{"https://www.youtube.com/watch?v=abc123", KindVideo},
		{"https://youtu.be/abc123", KindVideo},
		{"https://www.youtube.com/shorts/xyz", KindVideo},
		{"https://vimeo.com/12345678", KindVideo},
		{"https://www.dailymotion.com/video/x8abcd", KindVideo},
		{"https://dai.ly/x8abcd", KindVideo},
		{"https://example.com/page", KindWebsite},
		{"https://myyoutube.com.evil.test/watch", KindWebsite},
		{"not a url at all", KindWebsite},
		{"", KindWebsite},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectKind(tc.url), tc.url)
	}
}

func TestToEmbedURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123", "https://www.youtube.com/embed/abc123"},
		{"https://youtube.com/watch?v=abc123&t=30s", "https://www.youtube.com/embed/abc123"},
		{"https://youtu.be/abc123", "https://www.youtube.com/embed/abc123"},
		{"https://www.youtube.com/shorts/sh0rt", "https://www.youtube.com/embed/sh0rt"},
		{"https://www.youtube.com/embed/already", "https://www.youtube.com/embed/already"},
		{"https://vimeo.com/12345678", "https://player.vimeo.com/video/12345678"},
		{"https://www.dailymotion.com/video/x8abcd", "https://www.dailymotion.com/embed/video/x8abcd"},
		{"https://dai.ly/x8abcd", "https://www.dailymotion.com/embed/video/x8abcd"},
		// pass-through cases
		{"https://example.com/page", "https://example.com/page"},
		{"https://vimeo.com/about", "https://vimeo.com/about"},
		{"https://www.youtube.com/feed/subscriptions", "https://www.youtube.com/feed/subscriptions"},
		{"garbage input", "garbage input"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToEmbedURL(tc.in), tc.in)
	}
}

func TestNeverPanicsOnHostileInput(t *testing.T) {
	inputs := []string{
		"http://[::1]:namedport", // url.Parse error
		"://missing-scheme",
		"https://youtube.com/watch?v=",
		"https://vimeo.com/",
		"%%%%",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			DetectKind(in)
			ToEmbedURL(in)
		}, in)
	}
}
