// Package state provides the process-wide key/value store and the per-user
// rate limiter behind the repository ports. The memory backend is the
// default; the Redis backend exists so a multi-instance deployment can
// share the same state without touching callers.
package state

import (
	"context"
	"sync"
	"time"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/ports/repository"
)

var _ repository.StateStore = (*MemoryStore)(nil)

type memEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is a mutex-guarded map with lazy TTL eviction.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), now: time.Now}
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return "", domain.ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

var _ repository.RateLimiter = (*MemoryRateLimiter)(nil)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter counts calls per key in fixed windows, mirroring the
// INCR+EXPIRE scheme of the Redis limiter.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]rateWindow
	now     func() time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{windows: make(map[string]rateWindow), now: time.Now}
}

func (r *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	w, ok := r.windows[key]
	if !ok || now.After(w.resetAt) {
		w = rateWindow{count: 0, resetAt: now.Add(window)}
	}
	w.count++
	r.windows[key] = w
	return w.count <= limit, nil
}
