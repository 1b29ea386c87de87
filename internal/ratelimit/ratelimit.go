package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// fixedWindowScript starts the window on the first hit only, so later hits
// never push the expiry out. A key left without a TTL gets one.
var fixedWindowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 or redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter is a fixed-window counter shared by every API instance
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	prefix      string
}

// NewRedisLimiter creates a RedisLimiter
func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration, prefix string) (*RedisLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if maxRequests <= 0 || window <= 0 {
		return nil, fmt.Errorf("maxRequests and window must be positive")
	}
	return &RedisLimiter{client: client, maxRequests: maxRequests, window: window, prefix: prefix}, nil
}

// Allow increments the key's counter for the current window
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	fullKey := l.prefix + "ratelimit:" + key

	count, err := fixedWindowScript.Run(ctx, l.client, []string{fullKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit counter unavailable: %w", err)
	}
	return count <= int64(l.maxRequests), nil
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps a token bucket per key in process memory.
// Buckets idle for longer than idleTTL are dropped on a later Allow.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter allows maxRequests per window per key
func NewLocalLimiter(maxRequests int, window time.Duration) *LocalLimiter {
	// an idle bucket is full again after one window
	idleTTL := window
	if idleTTL < time.Minute {
		idleTTL = time.Minute
	}
	return &LocalLimiter{
		buckets:   make(map[string]*bucket),
		limit:     rate.Every(window / time.Duration(maxRequests)),
		burst:     maxRequests,
		idleTTL:   idleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow consumes one token from the key's bucket
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1), nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*LocalLimiter)(nil)
)
