package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestShouldSkipCachePath(t *testing.T) {
	patterns := []string{"/api/v1/uptime", "/api/v1/editor/*", " ", ""}

	assert.True(t, shouldSkipCachePath("/api/v1/uptime", patterns))
	assert.True(t, shouldSkipCachePath("/api/v1/editor/settings", patterns))
	assert.False(t, shouldSkipCachePath("/api/v1/books", patterns))
	assert.False(t, shouldSkipCachePath("/api/v1/uptime/extra", patterns))
}

func TestHasBypassTimestamp(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for query, want := range map[string]bool{
		"ts=1725000000": true,
		"t=1":           true,
		"page=2":        false,
		"":              false,
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/books?"+query, nil)
		assert.Equal(t, want, hasBypassTimestamp(c), query)
	}
}

func TestCacheBodyWriterStopsAtCap(t *testing.T) {
	w := &cacheBodyWriter{capBytes: 8}

	w.capture([]byte("abcd"))
	assert.Equal(t, "abcd", string(w.body))
	assert.False(t, w.overflow)

	w.capture([]byte("efghijkl"))
	assert.True(t, w.overflow, "a response past the cap is served but not cached")
	assert.Equal(t, "abcd", string(w.body))
}
