package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gopherblog/pkg/api"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(10, 0, 0, setupTestLogger())
	defer rl.Stop()

	assert.Equal(t, 1, rl.burst)
	assert.Equal(t, 10*time.Minute, rl.idle)

	// повторный Stop не паникует
	rl.Stop()
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(1, 3, time.Minute, setupTestLogger())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d within burst", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"), "burst exhausted")

	// другой IP имеет собственный bucket
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_ReserveReportsDelay(t *testing.T) {
	rl := NewRateLimiter(60, 1, time.Minute, setupTestLogger())
	defer rl.Stop()

	ok, delay := rl.Reserve("ip")
	require.True(t, ok)
	assert.Zero(t, delay)

	ok, delay = rl.Reserve("ip")
	require.False(t, ok)
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, time.Second)
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute, setupTestLogger())
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("192.168.1.1:1000").Code)
	// порт не влияет на ключ
	assert.Equal(t, http.StatusOK, send("192.168.1.1:2000").Code)

	limited := send("192.168.1.1:3000")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(limited.Body).Decode(&resp))
	assert.Equal(t, "Too Many Requests", resp.Error)

	assert.Equal(t, http.StatusOK, send("192.168.1.2:1000").Code)
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute, setupTestLogger())
	defer rl.Stop()

	rl.Allow("old")
	rl.Allow("fresh")

	rl.mu.Lock()
	rl.visitors["old"].lastSeen = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	rl.evictIdle(time.Now())

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "old")
	assert.Contains(t, rl.visitors, "fresh")
}

func TestRateLimiter_LogsExceeded(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	rl := NewRateLimiter(1, 1, time.Minute, logger)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "172.16.0.9:4000"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Contains(t, logBuf.String(), "Rate limit exceeded")
	assert.Contains(t, logBuf.String(), "172.16.0.9")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		want   string
	}{
		{name: "ipv4 with port", remote: "10.1.2.3:5555", want: "10.1.2.3"},
		{name: "ipv6 with port", remote: "[::1]:5555", want: "::1"},
		{name: "no port (set by RealIP)", remote: "203.0.113.7", want: "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
