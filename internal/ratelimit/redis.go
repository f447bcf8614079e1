package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local used = redis.call("INCR", KEYS[1])
if used == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return used
`)

// RedisLimiter is a fixed-window limiter shared across server instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter. The prefix namespaces keys so
// several deployments can share one Redis database.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: strings.TrimSpace(prefix)}
}

// Allow consumes one slot from the key's current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error) {
	if l == nil || l.client == nil || limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	start := now.Truncate(window).Unix()
	reset := time.Unix(start, 0).Add(window).UTC()

	redisKey := fmt.Sprintf("%s:%d", key, start)
	if l.prefix != "" {
		redisKey = l.prefix + ":" + redisKey
	}

	ttl := int(window/time.Second) + 1
	used, errEval := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, ttl).Int64()
	if errEval != nil {
		return Result{}, errEval
	}
	if used > int64(limit) {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	return Result{Allowed: true, Remaining: limit - int(used), Reset: reset}, nil
}
