package server

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// tokenBucket refills continuously at refillRate tokens per second up to capacity
type tokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
}

// take refills the bucket for the time elapsed since the last call and consumes
// one token if available. When empty it reports how long until the next token.
func (tb *tokenBucket) take(now time.Time) (bool, int, time.Duration) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens--
		return true, int(tb.tokens), 0
	}

	wait := time.Duration((1.0 - tb.tokens) / tb.refillRate * float64(time.Second))
	return false, 0, wait
}

// RateLimiter keeps one token bucket per client key
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	capacity   int
	refillRate float64
	now        func() time.Time
}

// NewRateLimiter allows requestsPerMinute sustained with bursts up to burst
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		capacity:   burst,
		refillRate: float64(requestsPerMinute) / 60.0,
		now:        time.Now,
	}
}

// Allow consumes a token for key. It returns whether the request may proceed,
// the tokens left and, when refused, how long the client should wait.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, exists := rl.buckets[key]
	if !exists {
		bucket = &tokenBucket{
			tokens:     float64(rl.capacity),
			capacity:   float64(rl.capacity),
			refillRate: rl.refillRate,
			lastRefill: now,
		}
		rl.buckets[key] = bucket
	}

	return bucket.take(now)
}

// RemoveIdle drops buckets unused for longer than maxIdle
func (rl *RateLimiter) RemoveIdle(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, bucket := range rl.buckets {
		if now.Sub(bucket.lastRefill) > maxIdle {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// StartCleanup removes idle buckets every interval until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.RemoveIdle(maxIdle)
			}
		}
	}()
}

// RateLimitMiddleware refuses requests over the limit with 429 and Retry-After.
// Clients are keyed by token subject, falling back to the remote address.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := Subject(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}

			allowed, remaining, wait := limiter.Allow(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.capacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				retryAfter := int(math.Ceil(wait.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn().
					Str("client", key).
					Int("retryAfter", retryAfter).
					Msg("Rate limit exceeded")

				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
