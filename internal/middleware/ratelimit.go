package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// fixedWindow counts hits per key in windows of length per.
type fixedWindow struct {
	limit int
	per   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*window
	sweepAt time.Time
}

type window struct {
	hits int
	ends time.Time
}

func newFixedWindow(limit int, per time.Duration) *fixedWindow {
	return &fixedWindow{limit: limit, per: per, now: time.Now, windows: make(map[string]*window)}
}

// allow records a hit for key. When the key is over its limit it returns
// false and the time until the window resets.
func (f *fixedWindow) allow(key string) (bool, time.Duration) {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()

	if now.After(f.sweepAt) {
		for k, w := range f.windows {
			if now.After(w.ends) {
				delete(f.windows, k)
			}
		}
		f.sweepAt = now.Add(f.per)
	}
	w, ok := f.windows[key]
	if !ok || now.After(w.ends) {
		w = &window{ends: now.Add(f.per)}
		f.windows[key] = w
	}
	if w.hits >= f.limit {
		return false, w.ends.Sub(now)
	}
	w.hits++
	return true, 0
}

// rateLimitKey buckets authenticated callers by user and everyone else by IP.
func rateLimitKey(r *http.Request) string {
	if uid := UserIDFromContext(r.Context()); uid != "" {
		return "user:" + uid
	}
	return "ip:" + ClientIP(r)
}

// RateLimit allows limit requests per caller in each fixed window of length per.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	fw := newFixedWindow(limit, per)
	return rateLimit(fw)
}

func rateLimit(fw *fixedWindow) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := fw.allow(rateLimitKey(r))
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(wait/time.Second)+1))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests", "code": "rate_limited"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
