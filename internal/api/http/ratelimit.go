package http

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/kconnect-service/internal/config"
	apperrors "github.com/spec-kit/kconnect-service/pkg/util"
)

// tokenBucketScript refills capacity tokens every interval_ms and takes one.
// It returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local interval_ms = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + intervals)
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

type limitDecision struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

// rateLimiter decides whether one more request for key is allowed.
type rateLimiter interface {
	take(ctx context.Context, key string) (limitDecision, error)
}

type redisLimiter struct {
	client *redis.Client
	cfg    config.RateLimitConfig
}

func (l *redisLimiter) take(ctx context.Context, key string) (limitDecision, error) {
	vals, err := tokenBucketScript.Run(ctx, l.client, []string{key},
		time.Now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillInterval.Milliseconds(),
		int64(l.cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return limitDecision{}, err
	}
	if len(vals) != 3 {
		return limitDecision{}, fmt.Errorf("unexpected limiter result %v", vals)
	}
	return limitDecision{
		allowed:    vals[0] == 1,
		remaining:  vals[1],
		retryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter keeps one token bucket per key in process memory.
type localLimiter struct {
	cfg     config.RateLimitConfig
	mu      sync.Mutex
	clients map[string]*localClient
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	return &localLimiter{cfg: cfg, clients: map[string]*localClient{}}
}

func (l *localLimiter) take(_ context.Context, key string) (limitDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	client, ok := l.clients[key]
	if !ok {
		client = &localClient{limiter: rate.NewLimiter(rate.Every(l.cfg.RefillInterval), l.cfg.Capacity)}
		l.clients[key] = client
		l.gcLocked(now)
	}
	client.lastSeen = now

	if !client.limiter.AllowN(now, 1) {
		return limitDecision{retryAfter: l.cfg.RefillInterval}, nil
	}
	return limitDecision{allowed: true, remaining: int64(client.limiter.TokensAt(now))}, nil
}

func (l *localLimiter) gcLocked(now time.Time) {
	if len(l.clients) < 1000 {
		return
	}
	cutoff := now.Add(-l.cfg.TTL)
	for key, client := range l.clients {
		if client.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// RateLimit limits requests per client IP and route. Redis holds the buckets
// when available so limits are shared across instances; when redis errors the
// in-process limiter decides instead.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	local := newLocalLimiter(cfg)
	var shared rateLimiter
	if rdb != nil {
		shared = &redisLimiter{client: rdb, cfg: cfg}
	}

	return func(c *fiber.Ctx) error {
		key := cfg.Prefix + ":" + c.Method() + ":" + c.Path() + ":" + c.IP()

		var (
			decision limitDecision
			err      error
		)
		if shared != nil {
			decision, err = shared.take(c.UserContext(), key)
			if err != nil {
				logger.Warn("redis rate limiter unavailable", zap.Error(err))
			}
		}
		if shared == nil || err != nil {
			decision, _ = local.take(c.UserContext(), key)
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.remaining, 10))
		if !decision.allowed {
			secs := int(math.Ceil(decision.retryAfter.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			logger.Info("rate limit exceeded", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return apperrors.NewTooManyRequests("rate limit exceeded")
		}
		return c.Next()
	}
}
