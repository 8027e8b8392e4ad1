package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type JobStatus string

const (
	JobStatusCreated   JobStatus = "created"
	JobStatusGenerated JobStatus = "generated"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
)

// JobInput is the request as received from the chat platform.
type JobInput struct {
	UserMessage string
	UserID      string
	GuildID     string // empty for direct messages
	ChannelID   string
	Username    string
}

// JobPaths holds every filesystem location a job touches.
type JobPaths struct {
	WorkspaceDir string
	OutputDir    string
	LogPath      string
}

// JobDiagnostics accumulates everything needed to explain a job after the
// fact without any in-memory state surviving: stage wall-clock timings,
// per-call LLM metadata and asset-policy rewrites.
type JobDiagnostics struct {
	StageTimings map[string]int64 // stage name -> elapsed ms
	LLMCalls     []LLMResponseMetadata
	PolicyFlags  []string
}

// Job is one end-to-end unit of work turning a request into generated
// files. A job has exactly one logical owner for its lifetime; observers
// get copies via Clone.
type Job struct {
	ID          string
	CreatedAt   time.Time
	ProjectType ProjectType
	Status      JobStatus
	Input       JobInput
	Paths       JobPaths
	Diagnostics JobDiagnostics
	Result      *CodegenResult
	LastError   string
}

// NewJobID returns an opaque, URL-safe id ordered by creation time
// (millisecond timestamp + random payload).
func NewJobID() string {
	return strings.ToLower(ulid.Make().String())
}

// Clone returns a deep enough copy for read-only observers. The result
// pointer is shared intentionally: a CodegenResult is never mutated after
// validation.
func (j *Job) Clone() *Job {
	cp := *j
	cp.Diagnostics.StageTimings = make(map[string]int64, len(j.Diagnostics.StageTimings))
	for k, v := range j.Diagnostics.StageTimings {
		cp.Diagnostics.StageTimings[k] = v
	}
	cp.Diagnostics.LLMCalls = append([]LLMResponseMetadata(nil), j.Diagnostics.LLMCalls...)
	cp.Diagnostics.PolicyFlags = append([]string(nil), j.Diagnostics.PolicyFlags...)
	return &cp
}
