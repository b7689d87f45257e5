package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gyeh/cms-pricing/internal/apperr"
)

// tokenBucket is a classic token bucket: tokens refill continuously at
// perMinute/60 per second, capped at burst, and each request consumes
// one. No pack example imports a rate-limiting library, so this is
// hand-rolled — a small enough state machine that a dependency would
// not earn its keep.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	burst      float64
	refillRate float64 // tokens per second
	last       time.Time
}

func newTokenBucket(perMinute, burst int) *tokenBucket {
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{
		tokens:     float64(burst),
		burst:      float64(burst),
		refillRate: float64(perMinute) / 60.0,
		last:       time.Now(),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// rateLimiter keys a tokenBucket per API key (or per client IP when no
// key is presented), so one noisy caller cannot starve another.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	perMinute int
	burst     int
}

func newRateLimiter(perMinute, burst int) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*tokenBucket),
		perMinute: perMinute,
		burst:     burst,
	}
}

func (rl *rateLimiter) bucketFor(key string) *tokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = newTokenBucket(rl.perMinute, rl.burst)
		rl.buckets[key] = b
	}
	return b
}

func rateLimitMiddleware(perMinute, burst int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	rl := newRateLimiter(perMinute, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := bearerToken(r.Header.Get("Authorization"))
			if key == "" {
				key = r.RemoteAddr
			}
			if !rl.bucketFor(key).allow() {
				writeError(w, apperr.New(apperr.CodeForbidden, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
