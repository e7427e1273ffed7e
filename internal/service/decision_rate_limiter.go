package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDecisionAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// DecisionRateLimiter limita cuantas decisiones por ventana se puntuan para una historia.
type DecisionRateLimiter interface {
	Allow(ctx context.Context, storyID string) bool
}

type redisDecisionRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// NewRedisDecisionRateLimiter devuelve nil si no hay cliente o el limite es 0.
func NewRedisDecisionRateLimiter(client *redis.Client, window time.Duration, max int) DecisionRateLimiter {
	if client == nil || max <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return &redisDecisionRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "persona:rl:",
	}
}

// Allow falla abierto si Redis no responde.
func (l *redisDecisionRateLimiter) Allow(ctx context.Context, storyID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key := strings.TrimSpace(storyID)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisDecisionAllowScript, []string{l.prefix + key}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
