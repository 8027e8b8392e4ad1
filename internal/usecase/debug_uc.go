package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/ports/repository"
)

// Compile-time check
var _ DebugService = (*debugUC)(nil)

// DebugService toggles per-user debug mode: when enabled, job replies
// carry token, cost and timing diagnostics. Flags live behind the
// StateStore port, so swapping the memory backend for Redis shares them
// across instances without touching callers.
type DebugService interface {
	SetDebug(ctx context.Context, userID string, on bool) error
	IsDebug(ctx context.Context, userID string) bool
}

const debugKeyPrefix = "debug:"

type debugUC struct {
	store repository.StateStore
	ttl   time.Duration
	log   *zerolog.Logger
}

// NewDebugService builds the service. ttl bounds how long a debug flag
// survives without being re-enabled; zero means no expiry.
func NewDebugService(store repository.StateStore, ttl time.Duration, logger *zerolog.Logger) DebugService {
	l := logger.With().Str("component", "DebugService").Logger()
	return &debugUC{store: store, ttl: ttl, log: &l}
}

func (d *debugUC) SetDebug(ctx context.Context, userID string, on bool) error {
	key := debugKeyPrefix + userID
	if !on {
		return d.store.Del(ctx, key)
	}
	return d.store.Set(ctx, key, "1", d.ttl)
}

func (d *debugUC) IsDebug(ctx context.Context, userID string) bool {
	v, err := d.store.Get(ctx, debugKeyPrefix+userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			d.log.Debug().Err(err).Str("user_id", userID).Msg("debug flag lookup failed")
		}
		return false
	}
	return v == "1"
}
