// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Task is a unit of light work: status lookups, locale switches,
// debug toggles. Heavyweight generation never runs here; it goes
// through the GenerationQueue.
type Task func(ctx context.Context) error

// Pool fans Tasks out over a fixed set of workers. Submit never
// blocks; a saturated pool rejects instead of queueing unboundedly.
type Pool struct {
	log   *zerolog.Logger
	wg    sync.WaitGroup
	tasks chan Task
	done  chan struct{}
	size  int
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{
		log:   &l,
		tasks: make(chan Task, workers*4),
		done:  make(chan struct{}),
		size:  workers,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case task := <-p.tasks:
			if task == nil {
				continue
			}
			p.runTask(ctx, id, task)
		}
	}
}

// runTask isolates one task so a panic kills the task, not the worker.
func (p *Pool) runTask(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Interface("panic", r).
				Int("worker", id).
				Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Error().Err(err).Int("worker", id).Msg("task failed")
	}
}

func (p *Pool) Stop() {
	close(p.done)
	p.wg.Wait()
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return errors.New("worker queue full")
	}
}
