// File: internal/usecase/job_uc.go
package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/config"
	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/model"
	"telegram-ai-forge/internal/infra/metrics"
)

// Compile-time check
var _ JobManager = (*jobUC)(nil)

// JobManager creates and tracks Job records. Status is advisory, not an
// enforced state machine; the pipeline owns each job and routes every
// mutation through the manager so observers can read consistent copies.
type JobManager interface {
	CreateJob(decision model.RoutingDecision, input model.JobInput) *model.Job
	SetJobOutputToLogsDir(job *model.Job)
	EnsureJobDirs(job *model.Job) error

	// WriteJobLog appends one ISO-8601-timestamped line to the job's log
	// file. Logging failures never propagate to the caller.
	WriteJobLog(job *model.Job, format string, args ...any)

	MarkStageStart(job *model.Job, stage string)
	MarkStageEnd(job *model.Job, stage string)
	UpdateJobStatus(job *model.Job, status model.JobStatus)

	RecordLLMCall(job *model.Job, meta model.LLMResponseMetadata)
	AddPolicyFlags(job *model.Job, flags []string)
	SetResult(job *model.Job, result *model.CodegenResult)
	SetJobError(job *model.Job, err error)

	// Get and Snapshot return copies; callers never see live state.
	Get(jobID string) (*model.Job, error)
	Snapshot() []*model.Job
}

type jobUC struct {
	paths config.PathsConfig
	log   *zerolog.Logger

	mu          sync.Mutex
	jobs        map[string]*model.Job
	stageStarts map[string]map[string]time.Time // job id -> stage -> start
}

func NewJobManager(paths config.PathsConfig, logger *zerolog.Logger) JobManager {
	l := logger.With().Str("component", "JobManager").Logger()
	return &jobUC{
		paths:       paths,
		log:         &l,
		jobs:        make(map[string]*model.Job),
		stageStarts: make(map[string]map[string]time.Time),
	}
}

func (m *jobUC) CreateJob(decision model.RoutingDecision, input model.JobInput) *model.Job {
	id := model.NewJobID()
	job := &model.Job{
		ID:          id,
		CreatedAt:   time.Now(),
		ProjectType: decision.ProjectType,
		Status:      model.JobStatusCreated,
		Input:       input,
		Paths: model.JobPaths{
			WorkspaceDir: filepath.Join(m.paths.WorkspaceBase, id),
			OutputDir:    filepath.Join(m.paths.OutputBase, id),
			LogPath:      filepath.Join(m.paths.LogBase, id+".log"),
		},
		Diagnostics: model.JobDiagnostics{
			StageTimings: make(map[string]int64),
		},
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.stageStarts[id] = make(map[string]time.Time)
	m.mu.Unlock()

	m.log.Info().Str("job_id", id).Str("project_type", string(decision.ProjectType)).Msg("job created")
	m.WriteJobLog(job, "job created (type=%s, user=%s)", decision.ProjectType, input.UserID)
	return job
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

func sanitizeSegment(s string) string {
	if s == "" {
		return "_"
	}
	return nonAlnum.ReplaceAllString(s, "_")
}

// SetJobOutputToLogsDir remaps the output directory under the log base
// using human-readable user/guild/channel segments, so operators can
// browse results without resolving opaque ids.
func (m *jobUC) SetJobOutputToLogsDir(job *model.Job) {
	user := job.Input.Username
	if user == "" {
		user = job.Input.UserID
	}
	guild := job.Input.GuildID
	if guild == "" {
		guild = "dm"
	}

	m.mu.Lock()
	job.Paths.OutputDir = filepath.Join(
		m.paths.LogBase,
		sanitizeSegment(user),
		sanitizeSegment(guild),
		sanitizeSegment(job.Input.ChannelID),
		job.ID,
	)
	out := job.Paths.OutputDir
	m.mu.Unlock()

	m.WriteJobLog(job, "output remapped to %s", out)
}

func (m *jobUC) EnsureJobDirs(job *model.Job) error {
	for _, dir := range []string{
		job.Paths.WorkspaceDir,
		job.Paths.OutputDir,
		filepath.Dir(job.Paths.LogPath),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure job dirs: %w", err)
		}
	}
	return nil
}

func (m *jobUC) WriteJobLog(job *model.Job, format string, args ...any) {
	line := fmt.Sprintf("%s %s\n",
		time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		fmt.Sprintf(format, args...),
	)
	f, err := os.OpenFile(job.Paths.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		m.log.Debug().Err(err).Str("job_id", job.ID).Msg("job log open failed")
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		m.log.Debug().Err(err).Str("job_id", job.ID).Msg("job log write failed")
	}
}

func (m *jobUC) MarkStageStart(job *model.Job, stage string) {
	m.mu.Lock()
	if starts := m.stageStarts[job.ID]; starts != nil {
		starts[stage] = time.Now()
	}
	m.mu.Unlock()
	m.WriteJobLog(job, "stage %s started", stage)
}

func (m *jobUC) MarkStageEnd(job *model.Job, stage string) {
	m.mu.Lock()
	starts := m.stageStarts[job.ID]
	start, ok := time.Time{}, false
	if starts != nil {
		start, ok = starts[stage]
		delete(starts, stage)
	}
	var elapsed int64
	if ok {
		elapsed = time.Since(start).Milliseconds()
		job.Diagnostics.StageTimings[stage] = elapsed
	}
	m.mu.Unlock()

	if !ok {
		// End without a start is logged, never an error.
		m.WriteJobLog(job, "stage %s finished (no start recorded)", stage)
		return
	}
	metrics.ObserveStage(stage, elapsed)
	m.WriteJobLog(job, "stage %s finished in %dms", stage, elapsed)
}

func (m *jobUC) UpdateJobStatus(job *model.Job, status model.JobStatus) {
	m.mu.Lock()
	old := job.Status
	job.Status = status
	m.mu.Unlock()

	m.log.Info().Str("job_id", job.ID).Str("from", string(old)).Str("to", string(status)).Msg("job status")
	m.WriteJobLog(job, "status %s -> %s", old, status)
}

func (m *jobUC) RecordLLMCall(job *model.Job, meta model.LLMResponseMetadata) {
	m.mu.Lock()
	job.Diagnostics.LLMCalls = append(job.Diagnostics.LLMCalls, meta)
	m.mu.Unlock()

	m.WriteJobLog(job, "llm call model=%s provider=%s tokens=%d latency=%dms success=%t",
		meta.Model, meta.Provider, meta.Usage.TotalTokens, meta.LatencyMs, meta.Success)
}

func (m *jobUC) AddPolicyFlags(job *model.Job, flags []string) {
	if len(flags) == 0 {
		return
	}
	m.mu.Lock()
	job.Diagnostics.PolicyFlags = append(job.Diagnostics.PolicyFlags, flags...)
	m.mu.Unlock()

	for _, f := range flags {
		m.WriteJobLog(job, "asset policy: %s", f)
	}
}

func (m *jobUC) SetResult(job *model.Job, result *model.CodegenResult) {
	m.mu.Lock()
	job.Result = result
	m.mu.Unlock()
}

func (m *jobUC) SetJobError(job *model.Job, err error) {
	m.mu.Lock()
	job.LastError = err.Error()
	job.Status = model.JobStatusFailed
	m.mu.Unlock()

	m.WriteJobLog(job, "job failed: %v", err)
	m.log.Error().Err(err).Str("job_id", job.ID).Msg("job failed")
}

func (m *jobUC) Get(jobID string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

func (m *jobUC) Snapshot() []*model.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.Clone())
	}
	return out
}
