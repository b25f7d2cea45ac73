package auth

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
}

// RateLimitStore counts requests per key over a sliding window. The in-memory
// store suits single-instance deployments; multi-instance deployments share
// counters through the redis store.
type RateLimitStore interface {
	Take(ctx context.Context, key string, max int, window time.Duration) (Decision, error)
}

// MemoryStore keeps per-key request timestamps, pruning entries older than the
// window before each check.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

func (s *MemoryStore) Take(_ context.Context, key string, max int, window time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	windowStart := now.Add(-window)

	kept := s.hits[key][:0]
	for _, t := range s.hits[key] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	s.hits[key] = kept

	if len(kept) >= max {
		oldest := kept[0]
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: oldest.Add(window).Sub(now),
			Reset:      oldest.Add(window),
		}, nil
	}

	s.hits[key] = append(kept, now)
	return Decision{
		Allowed:   true,
		Remaining: max - len(s.hits[key]),
		Reset:     now.Add(window),
	}, nil
}

// RateLimiter wires a store into per-endpoint gin middleware.
type RateLimiter struct {
	store RateLimitStore
	log   *zap.Logger
}

func NewRateLimiter(store RateLimitStore, log *zap.Logger) *RateLimiter {
	return &RateLimiter{store: store, log: log}
}

// Limit gates an endpoint at max requests per window, keyed by client IP.
// Allowed requests carry quota headers; rejected ones get a 429 with
// retryAfter seconds. Store failures let the request through: availability
// over strict counting.
func (l *RateLimiter) Limit(name string, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := name + ":" + c.ClientIP()

		decision, err := l.store.Take(c.Request.Context(), key, max, window)
		if err != nil {
			l.log.Warn("rate limit store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds() + 0.999)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"message":    "too many requests, slow down",
				"retryAfter": retryAfter,
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", decision.Reset.UTC().Format(time.RFC3339))
		c.Next()
	}
}
