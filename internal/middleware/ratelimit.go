package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"tourismcam/internal/models"
)

// FailPolicy decides what a route does when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoRedis = errors.New("rate limit: redis client is nil")

// Limit is a fixed-window quota for one route.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	Policy FailPolicy
	// Key picks the bucket. Nil means KeyByUser.
	Key func(c *fiber.Ctx) string
}

// KeyByIP buckets callers by remote address.
func KeyByIP(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyByUser buckets signed-in callers by user id and everyone else by IP.
// Mount it after AuthRequired so the id is set.
func KeyByUser(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
		return fmt.Sprintf("user:%d", uid)
	}
	return KeyByIP(c)
}

// Limiter counts requests per bucket in Redis. A disabled limiter allows
// everything and never touches Redis.
type Limiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewLimiter returns a limiter over rdb, which may be nil.
func NewLimiter(rdb *redis.Client, enabled bool) *Limiter {
	return &Limiter{rdb: rdb, enabled: enabled}
}

// Allow counts one request against name/key. When the quota is spent it also
// reports how long until the window resets.
func (l *Limiter) Allow(ctx context.Context, name, key string, max int, window time.Duration) (bool, time.Duration, error) {
	if !l.enabled {
		return true, 0, nil
	}
	if l.rdb == nil {
		return false, 0, errNoRedis
	}

	bucket := "rl:" + name + ":" + key
	n, err := l.rdb.Incr(ctx, bucket).Result()
	if err != nil {
		return false, 0, err
	}
	if n == 1 {
		l.rdb.Expire(ctx, bucket, window)
	}
	if n <= int64(max) {
		return true, 0, nil
	}

	retry, err := l.rdb.TTL(ctx, bucket).Result()
	if err != nil || retry < 0 {
		retry = window
	}
	return false, retry, nil
}

// Handler enforces rule on a route.
func (l *Limiter) Handler(rule Limit) fiber.Handler {
	key := rule.Key
	if key == nil {
		key = KeyByUser
	}
	return func(c *fiber.Ctx) error {
		allowed, retry, err := l.Allow(c.UserContext(), rule.Name, key(c), rule.Max, rule.Window)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit check failed",
				slog.String("limit", rule.Name), slog.String("error", err.Error()))
			if rule.Policy == FailClosed {
				return models.Respond(c, models.NewUnavailableError("Rate limiting is temporarily unavailable"))
			}
			return c.Next()
		}
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			return models.Respond(c, models.NewRateLimitedError("Too many requests. Please slow down."))
		}
		return c.Next()
	}
}
