// Package sched runs the background janitor. Job state is in-memory and
// disposable; the filesystem residue (workspaces, outputs, logs,
// archives) is what actually accumulates, so retention is enforced here.
package sched

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/infra/metrics"
)

// CleanupWorker periodically removes per-job directories and archives
// older than the configured retention.
type CleanupWorker struct {
	interval  time.Duration
	retention time.Duration
	paths     config.PathsConfig
	log       *zerolog.Logger
	now       func() time.Time
}

func NewCleanupWorker(paths config.PathsConfig, logger *zerolog.Logger) *CleanupWorker {
	l := logger.With().Str("component", "CleanupWorker").Logger()
	return &CleanupWorker{
		interval:  paths.CleanupInterval,
		retention: paths.Retention,
		paths:     paths,
		log:       &l,
		now:       time.Now,
	}
}

func (w *CleanupWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("starting cleanup worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping cleanup worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.SweepOnce()
			if err != nil {
				w.log.Error().Err(err).Msg("cleanup sweep error")
			}
			if n > 0 {
				metrics.AddRetentionRemovals(n)
				w.log.Info().Int("removed", n).Msg("expired job data removed")
			}
		}
	}
}

// SweepOnce removes expired top-level entries from every base directory
// and reports how many were deleted. A missing base is not an error; the
// first real failure is returned after the sweep finishes.
func (w *CleanupWorker) SweepOnce() (int, error) {
	cutoff := w.now().Add(-w.retention)
	removed := 0
	var firstErr error

	for _, base := range []string{
		w.paths.WorkspaceBase,
		w.paths.OutputBase,
		w.paths.ArchiveBase,
		w.paths.LogBase,
	} {
		if base == "" {
			continue
		}
		entries, err := os.ReadDir(base)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			// Directory mtimes move whenever children change, so an
			// actively used user dir never looks expired.
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.RemoveAll(filepath.Join(base, e.Name())); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			removed++
		}
	}
	return removed, firstErr
}
