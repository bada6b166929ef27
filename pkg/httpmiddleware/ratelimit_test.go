package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newLimited(t *testing.T, cfg RateLimitConfig) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return RateLimit(ctx, cfg)(okHandler())
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimit_Headers(t *testing.T) {
	h := newLimited(t, RateLimitConfig{Max: 5, Window: time.Minute})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requestFrom("192.168.1.1:1234"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := newLimited(t, RateLimitConfig{Max: 2, Window: time.Minute})

	for range 2 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, requestFrom("10.0.0.1:9999"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, requestFrom("10.0.0.1:9999"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate_limited","message":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	h := newLimited(t, RateLimitConfig{Max: 1, Window: time.Minute})

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, requestFrom(addr))
		assert.Equal(t, http.StatusOK, w.Code, addr)
	}
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	h := newLimited(t, RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("api_key") },
	})

	req := requestFrom("10.0.0.1:1")
	req.Header.Set("api_key", "a")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = requestFrom("10.0.0.1:1")
	req.Header.Set("api_key", "b")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimiter_SlidingWindow(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 4, Window: time.Minute})
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for i := range 4 {
		_, _, ok := l.take("k", start.Add(time.Duration(i)*time.Second))
		require.True(t, ok)
	}
	_, _, ok := l.take("k", start.Add(30*time.Second))
	assert.False(t, ok)

	// A quarter into the next window 3 of the previous 4 requests still count.
	next := start.Add(75 * time.Second)
	remaining, _, ok := l.take("k", next)
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	_, _, ok = l.take("k", next)
	assert.False(t, ok)

	// Two windows later the history is gone.
	_, _, ok = l.take("k", start.Add(3*time.Minute))
	assert.True(t, ok)
}

func TestLimiter_Evict(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Second})
	now := time.Now()
	l.take("a", now)
	l.evict(now.Add(3 * time.Second))
	assert.Empty(t, l.counters)
}

func TestClientIP(t *testing.T) {
	req := requestFrom("10.0.0.1:1234")
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req))
}
