package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUserAlreadyQueued = errors.New("user already has a generation in progress")
	ErrQueueClosed       = errors.New("generation queue is closed")
	ErrNoProvider        = errors.New("no LLM provider configured for model")
	ErrEmptyCompletion   = errors.New("LLM returned an empty completion")
)

// ParseError reports LLM output that could not be recovered as JSON after
// all fix-up passes. Fatal for the issuing call.
type ParseError struct {
	ResponseLen int
	Offset      int64 // character offset reported by the JSON parser, -1 when unknown
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable LLM response (%d chars, offset %d): %v", e.ResponseLen, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a parsed result that violates the codegen output
// contract. Violations carries one entry per broken rule; the result is
// rejected as a whole, never partially accepted.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("codegen result rejected: %s", strings.Join(e.Violations, "; "))
}

// ExternalCallError reports a failed LLM provider call (network, auth,
// provider-side error). Provider and Model identify the failing target.
type ExternalCallError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s call failed (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }

// QueueItemError reports a queued job whose execution failed. It is
// caught at the queue-loop level and logged with the run duration; the
// loop proceeds to the next item so one user's failure never starves
// others.
type QueueItemError struct {
	UserID string
	JobID  string
	TookMs int64
	Err    error
}

func (e *QueueItemError) Error() string {
	return fmt.Sprintf("queued job %s (user %s) failed after %dms: %v", e.JobID, e.UserID, e.TookMs, e.Err)
}

func (e *QueueItemError) Unwrap() error { return e.Err }

// PackagingError reports a failed packaging step, the workspace copy or
// the zip build. Callers treat it as non-fatal: the job still completes
// with materialized files.
type PackagingError struct {
	Path string
	Err  error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("packaging %s failed: %v", e.Path, e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }
