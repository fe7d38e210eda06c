package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "access"

// Redis is a Store backed by a shared Redis instance, for hosts that run
// several processes against the same workspace data.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client. The caller owns the client lifecycle.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}
	return client, nil
}

func redisKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, namespace, key)
}

// Get loads and decodes the entry, reporting a miss on absence or expiry.
func (r *Redis) Get(ctx context.Context, namespace, key string, dest interface{}) (bool, error) {
	payload, err := r.client.Get(ctx, redisKey(namespace, key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: get %s/%s: %w", namespace, key, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("cache: decode %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

// Set stores value under (namespace, key) with a native Redis TTL.
func (r *Redis) Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache: ttl must be positive, got %s", ttl)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s/%s: %w", namespace, key, err)
	}
	if err := r.client.Set(ctx, redisKey(namespace, key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Invalidate deletes the key from every known namespace.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	keys := make([]string, 0, len(Namespaces()))
	for _, ns := range Namespaces() {
		keys = append(keys, redisKey(ns, key))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", key, err)
	}
	return nil
}

// InvalidateAll removes every entry under the engine prefix.
func (r *Redis) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, redisKeyPrefix+":*", 100).Result()
		if err != nil {
			return fmt.Errorf("cache: scan: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: invalidate all: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Cleanup is a no-op: Redis evicts expired keys natively.
func (r *Redis) Cleanup(ctx context.Context) (int, error) {
	return 0, nil
}
