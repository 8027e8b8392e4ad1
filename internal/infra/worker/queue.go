package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/infra/metrics"
)

// Item is one heavyweight generation job waiting for the serialized slot.
type Item struct {
	UserID     string
	Username   string // display name for queue views; may be empty
	JobID      string
	Label      string // short human-readable description for status views
	EnqueuedAt time.Time
	Execute    func(ctx context.Context) error
}

// QueueEntry is a read-only view of one queued or active item.
type QueueEntry struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	JobID      string    `json:"job_id"`
	Label      string    `json:"label"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Active     bool      `json:"active"`
}

// GenerationQueue serializes heavyweight generation jobs: one FIFO queue,
// one processing flag, one active item, process-wide. It is the only
// mutual-exclusion point in the system. Enqueue triggers the drain
// goroutine when it is not already running; the drain loop pops one item
// at a time, logs execution failures without stopping, and exits once
// the queue is empty.
type GenerationQueue struct {
	log *zerolog.Logger

	mu         sync.Mutex
	ctx        context.Context
	pending    []*Item
	active     *Item
	processing bool
	closed     bool
	wg         sync.WaitGroup
}

func NewGenerationQueue(logger *zerolog.Logger) *GenerationQueue {
	l := logger.With().Str("component", "GenerationQueue").Logger()
	return &GenerationQueue{log: &l, ctx: context.Background()}
}

// Start installs the context handed to every Execute call. Items queued
// before Start run against context.Background().
func (q *GenerationQueue) Start(ctx context.Context) {
	q.mu.Lock()
	q.ctx = ctx
	q.mu.Unlock()
}

// Enqueue admits an item and kicks the drain loop if idle. A user with a
// pending or active item is rejected with ErrUserAlreadyQueued.
func (q *GenerationQueue) Enqueue(item *Item) error {
	if item == nil || item.Execute == nil {
		return domain.ErrInvalidArgument
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return domain.ErrQueueClosed
	}
	if q.userQueuedLocked(item.UserID) {
		q.mu.Unlock()
		metrics.IncQueueAdmissionRejected()
		return domain.ErrUserAlreadyQueued
	}
	item.EnqueuedAt = time.Now()
	q.pending = append(q.pending, item)
	depth := len(q.pending)
	startDrain := !q.processing
	if startDrain {
		q.processing = true
		q.wg.Add(1)
	}
	q.mu.Unlock()

	metrics.SetQueueDepth(depth)
	q.log.Info().Str("user_id", item.UserID).Str("job_id", item.JobID).Int("depth", depth).Msg("job queued")

	if startDrain {
		go q.drain()
	}
	return nil
}

func (q *GenerationQueue) drain() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if q.closed || len(q.pending) == 0 {
			dropped := len(q.pending)
			q.pending = nil
			q.active = nil
			q.processing = false
			q.mu.Unlock()
			if dropped > 0 {
				q.log.Warn().Int("dropped", dropped).Msg("queue closed with pending jobs")
			}
			return
		}
		item := q.pending[0]
		q.pending = q.pending[1:]
		q.active = item
		ctx := q.ctx
		depth := len(q.pending)
		q.mu.Unlock()

		metrics.SetQueueDepth(depth)
		metrics.ObserveQueueWait(time.Since(item.EnqueuedAt).Milliseconds())

		q.runItem(ctx, item)

		q.mu.Lock()
		q.active = nil
		q.mu.Unlock()
	}
}

// runItem executes one item, converting failures and panics into logged
// QueueItemErrors so the loop always survives.
func (q *GenerationQueue) runItem(ctx context.Context, item *Item) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().
				Interface("panic", r).
				Str("job_id", item.JobID).
				Int64("took_ms", time.Since(start).Milliseconds()).
				Msg("queued job panicked")
		}
	}()

	if err := item.Execute(ctx); err != nil {
		itemErr := &domain.QueueItemError{
			UserID: item.UserID,
			JobID:  item.JobID,
			TookMs: time.Since(start).Milliseconds(),
			Err:    err,
		}
		q.log.Error().Err(itemErr).Str("user_id", item.UserID).Msg("queued job failed")
		return
	}
	q.log.Info().
		Str("job_id", item.JobID).
		Int64("took_ms", time.Since(start).Milliseconds()).
		Msg("queued job finished")
}

// Close stops admission and waits for the drain loop to finish the
// active item. Pending items are dropped; queue state is reconstructible
// and never durable.
func (q *GenerationQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
	metrics.SetQueueDepth(0)
}

// HasUserInQueue reports whether the user owns the active item or any
// pending one. Used as admission control ahead of Enqueue's own check.
func (q *GenerationQueue) HasUserInQueue(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.userQueuedLocked(userID)
}

func (q *GenerationQueue) userQueuedLocked(userID string) bool {
	if q.active != nil && q.active.UserID == userID {
		return true
	}
	for _, it := range q.pending {
		if it.UserID == userID {
			return true
		}
	}
	return false
}

// Position reports where a user stands: 0 means active, 1 means next in
// line, -1 means absent.
func (q *GenerationQueue) Position(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active != nil && q.active.UserID == userID {
		return 0
	}
	for i, it := range q.pending {
		if it.UserID == userID {
			return i + 1
		}
	}
	return -1
}

// Len returns the number of pending items, excluding the active one.
func (q *GenerationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Snapshot returns the active item (first, when present) followed by the
// pending items in order.
func (q *GenerationQueue) Snapshot() []QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueueEntry, 0, len(q.pending)+1)
	if q.active != nil {
		out = append(out, entryOf(q.active, true))
	}
	for _, it := range q.pending {
		out = append(out, entryOf(it, false))
	}
	return out
}

func entryOf(it *Item, active bool) QueueEntry {
	return QueueEntry{
		UserID:     it.UserID,
		Username:   it.Username,
		JobID:      it.JobID,
		Label:      it.Label,
		EnqueuedAt: it.EnqueuedAt,
		Active:     active,
	}
}
