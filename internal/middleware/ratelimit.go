package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimitConfig configures a fixed-window limiter keyed by client IP and route.
type RateLimitConfig struct {
	Enabled bool
	Max     int
	Window  time.Duration
	Prefix  string
}

var windowScript = redis.NewScript(`
	local n = redis.call('INCR', KEYS[1])
	if n == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return { n, redis.call('PTTL', KEYS[1]) }
`)

// RateLimit throttles credential endpoints. With no Redis client or when
// disabled it passes every request through; Redis errors fail open.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil || cfg.Max < 1 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}

	return func(c *gin.Context) {
		key := rateKey(cfg.Prefix, c.ClientIP(), c.Request.Method+" "+c.FullPath())
		vals, err := windowScript.Run(c.Request.Context(), rdb, []string{key}, cfg.Window.Milliseconds()).Int64Slice()
		if err != nil || len(vals) != 2 {
			logger.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		count, ttlMs := vals[0], vals[1]
		remaining := int64(cfg.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Max) {
			secs := (ttlMs + 999) / 1000
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
			return
		}
		c.Next()
	}
}

func rateKey(prefix, ip, route string) string {
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{prefix, "ip", ip, "route", route}, ":")
}
