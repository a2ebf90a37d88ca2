package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/japb1998/contacts/internal/config"
)

// Redis stores values under prefix:namespace:generation:key. Invalidate bumps
// the namespace generation so stale keys are never read again and expire on
// their own.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects using the REDIS_* settings and pings the server.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "contacts"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) Key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(r.prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func (r *Redis) generation(ctx context.Context, namespace string) (string, error) {
	gen, err := r.client.Get(ctx, r.Key(namespace, "gen")).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (r *Redis) dataKey(ctx context.Context, namespace, key string) (string, error) {
	gen, err := r.generation(ctx, namespace)
	if err != nil {
		return "", err
	}
	return r.Key(namespace, "g"+gen, key), nil
}

func (r *Redis) Get(ctx context.Context, namespace, key string, dst any) (bool, error) {
	k, err := r.dataKey(ctx, namespace, key)
	if err != nil {
		return false, err
	}

	data, err := r.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	gen, err := r.generation(ctx, namespace)
	if err != nil {
		return err
	}
	return r.SetAt(ctx, namespace, gen, key, value, ttl)
}

func (r *Redis) Version(ctx context.Context, namespace string) (string, error) {
	return r.generation(ctx, namespace)
}

// SetAt writes under the generation it was given. After an Invalidate that
// key is no longer read and simply expires.
func (r *Redis) SetAt(ctx context.Context, namespace, version, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, r.Key(namespace, "g"+version, key), data, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, namespace, key string) error {
	k, err := r.dataKey(ctx, namespace, key)
	if err != nil {
		return err
	}
	return r.client.Del(ctx, k).Err()
}

func (r *Redis) Invalidate(ctx context.Context, namespace string) error {
	return r.client.Incr(ctx, r.Key(namespace, "gen")).Err()
}
