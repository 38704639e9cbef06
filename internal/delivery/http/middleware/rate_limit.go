package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"portfolio-contact-backend/internal/delivery/http/response"
	"portfolio-contact-backend/pkg/audit"
	"portfolio-contact-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for submission rate limiting
type RateLimitConfig struct {
	// Submissions per window; 0 disables the limiter
	Limit  int
	Window time.Duration
	// Key prefix for Redis (default: "contact:rl:")
	KeyPrefix string
	// Custom key extractor (default: client IP)
	KeyFunc func(*gin.Context) string
}

// Returns: [current_count, ttl_remaining]
var rateLimitScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`)

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

type rateLimiter struct {
	cfg    RateLimitConfig
	client *goredis.Client // nil uses the in-memory window only
	audit  *audit.Logger

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

// RateLimitMiddleware limits POST submissions per client. It counts in Redis when
// a client is given and falls back to an in-process window when Redis errors, so
// a Redis outage never blocks the contact form.
func RateLimitMiddleware(client *goredis.Client, cfg RateLimitConfig, auditLogger *audit.Logger) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "contact:rl:"
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	rl := &rateLimiter{cfg: cfg, client: client, audit: auditLogger, entries: map[string]*rateLimitEntry{}}
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Next()
		return
	}

	key := rl.cfg.KeyPrefix + rl.cfg.KeyFunc(c)
	now := time.Now()

	count, resetAt, err := rl.countRedis(c.Request.Context(), key, now)
	if err != nil {
		if rl.client != nil {
			logger.Log.Warn("Rate limit store unavailable, using local window", "error", err)
		}
		count, resetAt = rl.countLocal(key, now)
	}

	remaining := rl.cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))

	if count > rl.cfg.Limit {
		retryAfter := int(resetAt.Sub(now).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))

		rl.audit.Log(c.Request.Context(), audit.Event{
			Event:     audit.EventRateLimited,
			IP:        c.ClientIP(),
			RequestID: c.GetString(response.RequestIDKey),
			Details:   map[string]interface{}{"path": c.FullPath(), "count": count},
		})
		response.Error(c, http.StatusTooManyRequests, "Too many submissions. Please try again later.", nil)
		c.Abort()
		return
	}

	c.Next()
}

func (rl *rateLimiter) countRedis(ctx context.Context, key string, now time.Time) (int, time.Time, error) {
	if rl.client == nil {
		return 0, time.Time{}, fmt.Errorf("redis not configured")
	}
	vals, err := rateLimitScript.Run(ctx, rl.client, []string{key}, int(rl.cfg.Window.Seconds())).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}
	if len(vals) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	return int(vals[0]), now.Add(time.Duration(vals[1]) * time.Second), nil
}

func (rl *rateLimiter) countLocal(key string, now time.Time) (int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// drop expired windows while holding the lock; the map stays small
	for k, e := range rl.entries {
		if now.After(e.resetAt) {
			delete(rl.entries, k)
		}
	}

	entry, ok := rl.entries[key]
	if !ok {
		entry = &rateLimitEntry{resetAt: now.Add(rl.cfg.Window)}
		rl.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.resetAt
}
