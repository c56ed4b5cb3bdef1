package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(Config{RPS: 0.5, Burst: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	handler := RateLimitMiddleware(rl, UserOrIPKey(func(r *http.Request) string {
		return r.Header.Get("X-Test-User")
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(user, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/folders", nil)
		req.RemoteAddr = remote
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do("alice", "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusOK, do("alice", "10.0.0.2:1234").Code)

	rec := do("alice", "10.0.0.3:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())

	// Anonymous requests are keyed by IP and do not share alice's bucket.
	assert.Equal(t, http.StatusOK, do("", "10.0.0.1:1234").Code)
}

func TestClientIP(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req))
	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", ClientIP(req))
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(300*time.Millisecond))
	assert.Equal(t, 3, retryAfterSeconds(2100*time.Millisecond))
}
