package application

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/infra/worker"
	"telegram-ai-forge/internal/usecase"
)

// DeliverFunc receives the finished pipeline outcome on the executor
// goroutine. err is the pipeline error, if any; outcome is nil on
// failure.
type DeliverFunc func(ctx context.Context, outcome *usecase.PipelineOutcome, err error)

// SubmissionTicket tells the caller what happened to a generation request.
type SubmissionTicket struct {
	Job      *model.Job
	Decision model.RoutingDecision
	// Queued is true when the job went through the FIFO queue rather
	// than the concurrent pool.
	Queued bool
	// Position is the queue position at submission time (0 = running
	// now); meaningful only when Queued is true.
	Position int
}

// BotFacade composes the generation usecases into the high-level
// operations the Telegram adapter and the web handlers call. It owns
// admission routing: heavyweight jobs go through the FIFO queue one at
// a time per user, light jobs run concurrently on the pool.
type BotFacade struct {
	Pipeline usecase.GenerationPipeline
	Jobs     usecase.JobManager
	Debug    usecase.DebugService
	Queue    GenerationQueueIface
	Pool     WorkerPoolIface

	twoStage bool
	log      *zerolog.Logger
}

func NewBotFacade(
	pipeline usecase.GenerationPipeline,
	jobs usecase.JobManager,
	debug usecase.DebugService,
	queue GenerationQueueIface,
	pool WorkerPoolIface,
	twoStage bool,
	logger *zerolog.Logger,
) *BotFacade {
	l := logger.With().Str("component", "BotFacade").Logger()
	return &BotFacade{
		Pipeline: pipeline,
		Jobs:     jobs,
		Debug:    debug,
		Queue:    queue,
		Pool:     pool,
		twoStage: twoStage,
		log:      &l,
	}
}

// SubmitGeneration classifies the request, registers a job for it and
// hands execution to the queue or the pool depending on the routing
// decision. progress and deliver both run on the executor goroutine.
func (f *BotFacade) SubmitGeneration(ctx context.Context, input model.JobInput, progress usecase.ProgressFunc, deliver DeliverFunc) (*SubmissionTicket, error) {
	if strings.TrimSpace(input.UserMessage) == "" {
		return nil, domain.ErrInvalidArgument
	}

	job, decision := f.Pipeline.Prepare(input)
	f.Jobs.SetJobOutputToLogsDir(job)

	run := func(runCtx context.Context) error {
		outcome, runErr := f.Pipeline.Run(runCtx, job, progress)
		if deliver != nil {
			deliver(runCtx, outcome, runErr)
		}
		return runErr
	}

	ticket := &SubmissionTicket{Job: job, Decision: decision}

	if decision.Heavyweight {
		if f.Queue.HasUserInQueue(input.UserID) {
			f.Jobs.SetJobError(job, domain.ErrUserAlreadyQueued)
			return nil, domain.ErrUserAlreadyQueued
		}
		item := &worker.Item{
			UserID:   input.UserID,
			Username: input.Username,
			JobID:    job.ID,
			Label:    string(decision.ProjectType),
			Execute:  run,
		}
		if err := f.Queue.Enqueue(item); err != nil {
			f.Jobs.SetJobError(job, err)
			return nil, err
		}
		ticket.Queued = true
		ticket.Position = f.Queue.Position(input.UserID)
		f.log.Info().Str("job_id", job.ID).Str("user_id", input.UserID).
			Int("position", ticket.Position).Msg("job queued")
		return ticket, nil
	}

	if err := f.Pool.Submit(run); err != nil {
		f.Jobs.SetJobError(job, err)
		return nil, err
	}
	f.log.Info().Str("job_id", job.ID).Str("user_id", input.UserID).Msg("job submitted to pool")
	return ticket, nil
}

// LatestJob returns the most recently created job for the user, or
// domain.ErrNotFound when the user has none.
func (f *BotFacade) LatestJob(userID string) (*model.Job, error) {
	var mine []*model.Job
	for _, j := range f.Jobs.Snapshot() {
		if j.Input.UserID == userID {
			mine = append(mine, j)
		}
	}
	if len(mine) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(mine, func(i, k int) bool { return mine[i].CreatedAt.After(mine[k].CreatedAt) })
	return mine[0], nil
}

// Job returns a snapshot of a single job by id.
func (f *BotFacade) Job(jobID string) (*model.Job, error) {
	return f.Jobs.Get(jobID)
}

// QueueView returns the current queue contents, active item first.
func (f *BotFacade) QueueView() []worker.QueueEntry {
	return f.Queue.Snapshot()
}

// QueuePosition reports the user's place in line: 0 when active, n
// when n-1 jobs run first, -1 when absent.
func (f *BotFacade) QueuePosition(userID string) int {
	return f.Queue.Position(userID)
}

// Summarize aggregates the job's LLM metadata for status displays.
func (f *BotFacade) Summarize(job *model.Job) model.AggregatedLLMMetadata {
	return usecase.AggregateJobMetadata(job, f.twoStage, nil)
}

// SetDebug toggles verbose per-user diagnostics.
func (f *BotFacade) SetDebug(ctx context.Context, userID string, on bool) error {
	return f.Debug.SetDebug(ctx, userID, on)
}

// IsDebug reports whether verbose diagnostics are enabled for the user.
func (f *BotFacade) IsDebug(ctx context.Context, userID string) bool {
	return f.Debug.IsDebug(ctx, userID)
}
