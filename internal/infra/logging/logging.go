// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"telegram-ai-forge/internal/config"

	"github.com/rs/zerolog"
)

// New builds the process logger from config. Level accepts the zerolog
// names (trace, debug, info, warn, error); format is "json" or "console".
// Sampling thins repeated lines outside dev.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	out := io.Writer(os.Stdout)
	if strings.ToLower(cfg.Format) == "console" || dev {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	base := zerolog.New(out).With().Timestamp().Logger()

	if cfg.Sampling && !dev {
		// Keep the first 100 lines, then 1 in every 100.
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

type ctxKey string

const (
	ctxTraceID ctxKey = "trace_id"
	ctxUserID  ctxKey = "user_id"
	ctxJobID   ctxKey = "job_id"
)

// With attaches common context fields such as trace_id, user_id and job_id.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v := ctx.Value(ctxTraceID); v != nil {
		l = l.Str("trace_id", v.(string))
	}
	if v := ctx.Value(ctxUserID); v != nil {
		l = l.Str("user_id", v.(string))
	}
	if v := ctx.Value(ctxJobID); v != nil {
		l = l.Str("job_id", v.(string))
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration emits paired start/finish trace lines with the elapsed time.
// Usage: defer logging.TraceDuration(logger, "PipelineUC.Run")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		elapsed := time.Since(start)
		logger.Trace().Str("method", name).Dur("duration", elapsed).Msg("finish")
	}
}

// Context helpers used by the HTTP middleware and the bot gateway.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxUserID, id)
}
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxJobID, id)
}
