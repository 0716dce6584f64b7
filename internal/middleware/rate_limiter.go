package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/prathamanvekar/video-app/internal/config"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter tracks a token bucket per key (scope plus client IP).
// Idle keys are forgotten after the configured TTL.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration

	// NowFunc overrides the clock, mainly for tests.
	NowFunc func() time.Time
}

// NewKeyedRateLimiter allows cfg.Requests events per cfg.Window for each
// key, with cfg.Burst extra capacity.
func NewKeyedRateLimiter(cfg config.RateLimitConfig) *KeyedRateLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	return &KeyedRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:    cfg.Burst,
		ttl:      cfg.TTL,
	}
}

// Allow reports whether key may proceed now.
func (l *KeyedRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.gcLocked(now)

	return v.limiter.AllowN(now, 1)
}

// Len reports how many keys are tracked.
func (l *KeyedRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *KeyedRateLimiter) gcLocked(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, key)
		}
	}
}

func (l *KeyedRateLimiter) now() time.Time {
	if l.NowFunc != nil {
		return l.NowFunc()
	}
	return time.Now()
}
