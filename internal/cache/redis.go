package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "mysked:cache:"
	redisTagPrefix = "mysked:tag:"
)

// Redis keeps entries in Redis. Each tag is a set of the keys stored with it.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis server at addr.
func NewRedis(addr, password string, db int) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting cached response: %w", err)
	}
	return value, true, nil
}

// Set stores value under key and adds key to the tag's set. Redis expiries
// have second resolution, so shorter TTLs are rejected.
func (r *Redis) Set(ctx context.Context, key, tag string, value []byte, ttl time.Duration) error {
	if ttl < time.Second {
		return fmt.Errorf("cache ttl %s is below one second", ttl)
	}
	tagKey := redisTagPrefix + tag
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+key, value, ttl)
		pipe.SAdd(ctx, tagKey, key)
		pipe.Expire(ctx, tagKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing cached response: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, tag string) error {
	tagKey := redisTagPrefix + tag
	keys, err := r.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return fmt.Errorf("listing tagged responses: %w", err)
	}

	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, redisKeyPrefix+k)
	}
	del = append(del, tagKey)
	if err := r.client.Del(ctx, del...).Err(); err != nil {
		return fmt.Errorf("deleting tagged responses: %w", err)
	}
	return nil
}
