package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "continental:rl:"

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
	Scan(context.Context, uint64, string, int64) *redis.ScanCmd
}

// RedisStorage keeps limiter counters in Redis so every instance shares them.
type RedisStorage struct {
	store   cmdable
	closer  func() error
	timeout time.Duration
	prefix  string
}

var _ fiber.Storage = (*RedisStorage)(nil)

// NewRedis parses url, pings the server and returns the storage.
func NewRedis(ctx context.Context, url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStorage{store: raw, closer: raw.Close, timeout: 2 * time.Second, prefix: keyNamespace}, nil
}

func newWithStore(store cmdable) *RedisStorage {
	return &RedisStorage{store: store, timeout: 2 * time.Second, prefix: keyNamespace}
}

// Namespaced shares the connection under another key prefix, e.g. for CSRF
// tokens. Closing the returned storage is a no-op.
func (s *RedisStorage) Namespaced(prefix string) *RedisStorage {
	return &RedisStorage{store: s.store, timeout: s.timeout, prefix: prefix}
}

func (s *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns nil, nil for a missing key as fiber.Storage requires.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	val, err := s.store.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.store.Set(ctx, s.prefix+key, val, exp).Err()
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.store.Del(ctx, s.prefix+key).Err()
}

// Reset drops only keys under this storage's namespace.
func (s *RedisStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()
	var cursor uint64
	for {
		keys, next, err := s.store.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.store.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *RedisStorage) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
