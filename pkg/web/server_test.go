package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(s *Server, host, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Host = host
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w.Code
}

func newPingServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s, err := NewServer(opts)
	require.NoError(t, err)
	s.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return s
}

func TestAllowedHosts(t *testing.T) {
	s := newPingServer(t, Options{AllowedHosts: `^(.+\.)?miau\.media`})

	assert.Equal(t, http.StatusOK, serve(s, "api.miau.media", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve(s, "miau.media", "10.0.0.1"))
	assert.Equal(t, http.StatusForbidden, serve(s, "evil.example", "10.0.0.1"))
}

func TestAnyHostWhenUnset(t *testing.T) {
	s := newPingServer(t, Options{})
	assert.Equal(t, http.StatusOK, serve(s, "localhost:3000", "10.0.0.1"))
}

func TestInvalidHostPattern(t *testing.T) {
	_, err := NewServer(Options{AllowedHosts: "("})
	assert.Error(t, err)
}

func TestRateLimitPerClient(t *testing.T) {
	s := newPingServer(t, Options{RateLimit: RateLimitConfig{Window: time.Hour, MaxRequests: 3, MaxClients: 16}})

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, serve(s, "h", "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(s, "h", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve(s, "h", "10.0.0.2"))
}

func TestRateLimitEvictsOldestClient(t *testing.T) {
	s := newPingServer(t, Options{RateLimit: RateLimitConfig{Window: time.Hour, MaxRequests: 1, MaxClients: 1}})

	require.Equal(t, http.StatusOK, serve(s, "h", "10.0.0.1"))
	require.Equal(t, http.StatusOK, serve(s, "h", "10.0.0.2"))
	// 10.0.0.1 was evicted, so its window starts over
	assert.Equal(t, http.StatusOK, serve(s, "h", "10.0.0.1"))
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	s := newPingServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/ping", nil)
	w = httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRequestLogWebhook(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	done := make(chan struct{}, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		done <- struct{}{}
	}))
	defer hook.Close()

	s := newPingServer(t, Options{WebhookURL: hook.URL, AllowedHosts: `^ok\.host$`})
	assert.Equal(t, http.StatusForbidden, serve(s, "bad.host", "10.0.0.9"))

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("webhook not called")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "Solicitud Sospechosa Rechazada")
	assert.Contains(t, bodies[0], "/ping")
}
