// Package middleware contains HTTP middleware for the status API.
package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client address. A bucket lives
// for ttl after its client's last request.
type RateLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*cachedLimiter
	nextSweep time.Time
}

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithTTL sets how long an idle client's bucket is kept.
func WithTTL(ttl time.Duration) Option {
	return func(rl *RateLimiter) { rl.ttl = ttl }
}

// WithBurst overrides the bucket size.
func WithBurst(burst int) Option {
	return func(rl *RateLimiter) { rl.burst = burst }
}

// NewRateLimiter allows perSecond requests per client. Zero means unlimited.
func NewRateLimiter(perSecond float64, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		limit: rate.Limit(perSecond),
		burst: int(perSecond),
		ttl:   5 * time.Minute,
		now:   time.Now,

		limiters: make(map[string]*cachedLimiter),
	}
	if rl.burst < 1 {
		rl.burst = 1
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.limit > 0 && !rl.limiterFor(clientKey(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

func (rl *RateLimiter) limiterFor(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if !now.Before(rl.nextSweep) {
		rl.sweep(now)
		rl.nextSweep = now.Add(rl.ttl)
	}

	if cached, ok := rl.limiters[client]; ok && now.Before(cached.expiresAt) {
		cached.expiresAt = now.Add(rl.ttl)
		return cached.limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[client] = &cachedLimiter{
		limiter:   limiter,
		expiresAt: now.Add(rl.ttl),
	}
	return limiter
}

// sweep drops idle buckets. Caller holds rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for client, cached := range rl.limiters {
		if !now.Before(cached.expiresAt) {
			delete(rl.limiters, client)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
