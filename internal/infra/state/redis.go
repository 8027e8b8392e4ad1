package state

import (
	"context"
	"time"

	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var (
	_ repository.StateStore  = (*RedisStore)(nil)
	_ repository.RateLimiter = (*RedisRateLimiter)(nil)
)

// RedisStore backs the StateStore port with Redis, for deployments that
// run more than one bot instance against the same state.
type RedisStore struct {
	cli *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.RedisConfig) (*RedisStore, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{cli: cli}, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.cli.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.cli.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", domain.ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.cli.Del(ctx, key).Err()
}

func (s *RedisStore) Close() error { return s.cli.Close() }

// RedisRateLimiter counts calls per key in fixed windows (INCR + EXPIRE
// on first hit).
type RedisRateLimiter struct {
	cli *redis.Client
}

func NewRedisRateLimiter(store *RedisStore) *RedisRateLimiter {
	return &RedisRateLimiter{cli: store.cli}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.cli.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.cli.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}
