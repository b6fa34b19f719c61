package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alenadem/stonecart/pkg/response"
)

// limiter is a fixed-window per-client counter. One mutex guards the whole
// map; the critical section is a map lookup and an increment, which is cheap
// next to the request itself.
type limiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	counts  map[string]int
	resetAt time.Time
}

func newLimiter(max int, window time.Duration) *limiter {
	return &limiter{
		max:     max,
		window:  window,
		counts:  make(map[string]int),
		resetAt: time.Now().Add(window),
	}
}

// allow counts one request for key and reports whether it is within budget.
// Returns the seconds until the window resets for the Retry-After header.
func (l *limiter) allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.resetAt) {
		// Dropping the whole map also bounds memory; no janitor needed.
		l.counts = make(map[string]int)
		l.resetAt = now.Add(l.window)
	}

	l.counts[key]++
	retry := int(time.Until(l.resetAt).Seconds()) + 1
	return l.counts[key] <= l.max, retry
}

// clientKey picks the first hop of X-Forwarded-For when present, otherwise
// the raw remote address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	return r.RemoteAddr
}

// RateLimit caps each client at max requests per window.
//
//	r.Use(middleware.RateLimit(120, time.Minute))
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	lim := newLimiter(max, window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := lim.allow(clientKey(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
