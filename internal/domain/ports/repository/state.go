package repository

import (
	"context"
	"time"
)

// StateStore is process-wide key/value state: debug-mode flags, admin
// overrides. The default backing store is an in-process map; a Redis
// implementation exists so multi-instance deployments can share state
// behind the same interface.
type StateStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns domain.ErrNotFound for absent keys.
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// RateLimiter bounds how often a user may run a command. Allow reports
// whether the call identified by key fits inside limit per window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
