// Package jobs defines the background run jobs triggered from the web app,
// so a long consolidation does not block an HTTP request.
package jobs

import (
	"context"
	"time"
)

// RunKind selects which pipeline a run job executes.
type RunKind string

const (
	// RunKindPnl is a full multi-tenant P&L consolidation.
	RunKindPnl RunKind = "pnl"
	// RunKindNetIncome collects only the per-tenant net income lines.
	RunKindNetIncome RunKind = "net_income"
)

// JobStatus represents the current status of a run job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// RunJob is one queued pipeline run.
type RunJob struct {
	JobID string  `json:"job_id"`
	Kind  RunKind `json:"kind"`

	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains failure details when Status is failed.
	Error string `json:"error,omitempty"`

	// RowCount and ArtifactPath are filled by the handler on success.
	RowCount     int    `json:"row_count"`
	ArtifactPath string `json:"artifact_path,omitempty"`
}

// Publisher enqueues run jobs.
type Publisher interface {
	PublishRun(ctx context.Context, job *RunJob) error
	Close() error
}

// Consumer executes queued run jobs.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one run job. The handler may mutate the job's result
// fields; a returned error marks the job failed.
type JobHandler func(ctx context.Context, job *RunJob) error

// JobStore tracks run job state for the status endpoints.
type JobStore interface {
	SaveJob(ctx context.Context, job *RunJob) error
	GetJob(ctx context.Context, jobID string) (*RunJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*RunJob, error)
}

// JobFilter restricts ListJobs results.
type JobFilter struct {
	Kind   RunKind
	Status JobStatus
	Limit  int
}
