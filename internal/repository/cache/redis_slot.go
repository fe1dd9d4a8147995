package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisSlot struct {
	key string
	rdb *redis.Client
}

func NewRedisSlot(rdb *redis.Client, key string) *RedisSlot {
	return &RedisSlot{key: key, rdb: rdb}
}

// NewRedisSlotFromURL accepts a redis:// URL or a bare host:port.
func NewRedisSlotFromURL(url, key string) (*RedisSlot, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		if url == "" {
			return nil, fmt.Errorf("redis cache backend needs REDIS_URL: %w", err)
		}
		opt = &redis.Options{Addr: url}
	}
	return NewRedisSlot(redis.NewClient(opt), key), nil
}

func (s *RedisSlot) Get(ctx context.Context) ([]byte, bool, error) {
	blob, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return blob, true, nil
}

func (s *RedisSlot) Set(ctx context.Context, blob []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key, blob, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisSlot) Delete(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisSlot) Close() error {
	return s.rdb.Close()
}

func (s *RedisSlot) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
