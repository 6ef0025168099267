// Package ratelimit implements per-endpoint-class sliding window limits keyed
// by client identity, backed by Redis sorted sets.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/coursehub-api/pkg/config"
)

// Class groups endpoints that share a window/threshold pair.
type Class string

const (
	ClassAuth    Class = "auth"
	ClassPayment Class = "payment"
	ClassAPI     Class = "api"
	ClassContact Class = "contact"
)

// Rule is a threshold over a sliding window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result describes the outcome of a single attempt.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether an attempt identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, class Class, key string) (Result, error)
}

// RulesFromConfig maps the configured thresholds onto the four classes.
func RulesFromConfig(cfg config.RateLimitConfig) map[Class]Rule {
	return map[Class]Rule{
		ClassAuth:    {Limit: cfg.AuthLimit, Window: cfg.AuthWindow},
		ClassPayment: {Limit: cfg.PaymentLimit, Window: cfg.PaymentWindow},
		ClassAPI:     {Limit: cfg.APILimit, Window: cfg.APIWindow},
		ClassContact: {Limit: cfg.ContactLimit, Window: cfg.ContactWindow},
	}
}

// slidingWindowScript keeps one sorted-set member per accepted attempt scored
// by its timestamp in milliseconds. Entries older than the window are evicted
// before counting; rejected attempts are not recorded.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
if count < limit then
  redis.call("ZADD", key, now, ARGV[4])
  redis.call("PEXPIRE", key, window)
  return {1, limit - count - 1, 0}
end
local retry = window
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] then
  retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// RedisLimiter is the production Limiter.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	rules  map[Class]Rule
	now    func() time.Time
}

// NewRedisLimiter constructs a limiter over client with the given rules.
func NewRedisLimiter(client redis.Scripter, prefix string, rules map[Class]Rule) *RedisLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix, rules: rules, now: time.Now}
}

// WithClock overrides the time source.
func (l *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	l.now = now
	return l
}

// Allow records the attempt when it fits the window and reports the outcome.
// Classes without a rule, or with a non-positive limit, are never limited.
func (l *RedisLimiter) Allow(ctx context.Context, class Class, key string) (Result, error) {
	rule, ok := l.rules[class]
	if !ok || rule.Limit <= 0 || rule.Window <= 0 {
		return Result{Allowed: true}, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	nowMs := l.now().UnixMilli()
	windowMs := rule.Window.Milliseconds()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())
	redisKey := fmt.Sprintf("%s:%s:%s", l.prefix, class, key)

	raw, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey}, nowMs, windowMs, rule.Limit, member).Result()
	if err != nil {
		return Result{Allowed: true, Limit: rule.Limit}, fmt.Errorf("rate limit %s: %w", class, err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return Result{Allowed: true, Limit: rule.Limit}, fmt.Errorf("unexpected limiter response shape: %T", raw)
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	retryMs, _ := values[2].(int64)
	if allowed == 0 && retryMs < 1 {
		retryMs = 1
	}

	return Result{
		Allowed:    allowed == 1,
		Limit:      rule.Limit,
		Remaining:  int(remaining),
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}, nil
}

type disabled struct{}

// Disabled returns a Limiter that admits everything. It stands in when no
// counter store is configured.
func Disabled() Limiter {
	return disabled{}
}

func (disabled) Allow(context.Context, Class, string) (Result, error) {
	return Result{Allowed: true}, nil
}
