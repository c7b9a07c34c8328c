package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per user under "prefs:<user id>".
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// ConnectRedis dials addr and checks the connection with PING.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	slog.InfoContext(ctx, "Connected to Redis", "addr", addr)
	return client, nil
}

func redisKey(userID string) string {
	return "prefs:" + userID
}

func (r *RedisStore) Get(ctx context.Context, userID string) (Preferences, error) {
	if userID == "" {
		return nil, ErrEmptyUser
	}
	vals, err := r.client.HGetAll(ctx, redisKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	out := Preferences{}
	for k, v := range vals {
		out[k] = v
	}
	return out, nil
}

func (r *RedisStore) Set(ctx context.Context, userID string, prefs Preferences) error {
	if userID == "" {
		return ErrEmptyUser
	}
	if len(prefs) == 0 {
		return nil
	}
	key := redisKey(userID)

	var set []any
	var del []string
	for k, v := range prefs {
		if v == "" {
			del = append(del, k)
			continue
		}
		set = append(set, k, v)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, key, set...)
		}
		if len(del) > 0 {
			pipe.HDel(ctx, key, del...)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write preferences: %w", err)
	}
	return nil
}
