package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// DefaultRetryAfterSeconds is the smallest Retry-After value sent with a 429.
const DefaultRetryAfterSeconds = 1

// KeyFunc picks the bucket for a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// UserOrIPKey keys by user id when userID returns one, else by client IP.
func UserOrIPKey(userID func(r *http.Request) string) KeyFunc {
	return func(r *http.Request) string {
		if id := userID(r); id != "" {
			return "user:" + id
		}
		return "ip:" + ClientIP(r)
	}
}

// ClientIP returns the remote address without its port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware enforces limiter per key. Over the limit it answers
// 429 with a JSON error and a Retry-After header, and does not consume a
// token. Allowed responses carry X-RateLimit-Remaining.
func RateLimitMiddleware(limiter *RateLimiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			lim := limiter.GetLimiter(k)
			now := time.Now()
			res := lim.ReserveN(now, 1)
			if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
				res.CancelAt(now)
				obs.From(r.Context()).Warn("rate_limited", "pkg", "ratelimit", "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			remaining := int(lim.TokensAt(now))
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(delay time.Duration) int {
	if delay == rate.InfDuration {
		return DefaultRetryAfterSeconds
	}
	secs := int(math.Ceil(delay.Seconds()))
	if secs < DefaultRetryAfterSeconds {
		return DefaultRetryAfterSeconds
	}
	return secs
}
