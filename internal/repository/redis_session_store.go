package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"persona-engine/internal/domain"
)

// Guarda el snapshot solo si no retrocede en decision_count.
const redisPersistScript = `
local current = redis.call("HGET", KEYS[1], "decision_count")
if current and tonumber(current) > tonumber(ARGV[2]) then
  return 0
end
redis.call("HSET", KEYS[1], "snapshot", ARGV[1], "decision_count", ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call("EXPIRE", KEYS[1], ARGV[3])
end
return 1
`

type redisHashClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSessionStore guarda cada sesion como hash "persona:session:{story_id}".
type RedisSessionStore struct {
	client redisHashClient
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if client == nil {
		return nil
	}
	return &RedisSessionStore{
		client: client,
		prefix: "persona:session:",
		ttl:    ttl,
	}
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisSessionStore) Persist(ctx context.Context, storyID string, snapshot domain.SessionSnapshot) error {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return err
	}
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	seconds := int(s.ttl.Seconds())
	err = s.client.Eval(ctx, redisPersistScript, []string{s.key(id)}, string(payload), snapshot.Session.DecisionCount, seconds).Err()
	if err != nil {
		return storeError("redis persist", id, err)
	}
	return nil
}

func (s *RedisSessionStore) Load(ctx context.Context, storyID string) (domain.SessionSnapshot, error) {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	raw, err := s.client.HGet(ctx, s.key(id), "snapshot").Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionSnapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SessionSnapshot{}, storeError("redis load", id, err)
	}
	return decodeSnapshot(raw)
}

func (s *RedisSessionStore) Delete(ctx context.Context, storyID string) error {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return storeError("redis delete", id, err)
	}
	return nil
}
