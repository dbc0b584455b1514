package jobs

import (
	"context"
	"time"

	"github.com/lumenai/lumen-agent/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeReconcileExpense represents an analytical-row backfill job,
	// enqueued when the analytical write failed after a successful
	// operational write.
	JobTypeReconcileExpense JobType = "reconcile_expense"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ReconcileExpenseJob carries the full logical content of a transaction whose
// analytical row is missing. The operational record already exists; the job
// only re-attempts the analytical append.
type ReconcileExpenseJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// RecordID is the operational store record the missing row belongs to.
	RecordID string `json:"record_id"`

	// Transaction is the record content to append to the analytical store.
	Transaction domain.Transaction `json:"transaction"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ReconcileExpenseJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ReconcileExpenseJob) GetType() JobType {
	return JobTypeReconcileExpense
}

// GetStatus implements the Job interface.
func (j *ReconcileExpenseJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	// PublishReconcileExpense publishes an analytical backfill job.
	PublishReconcileExpense(ctx context.Context, job *ReconcileExpenseJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
// It is what makes operational/analytical divergence observable: a record that
// exists operationally but not analytically has a job here until reconciled.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ReconcileExpenseJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ReconcileExpenseJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ReconcileExpenseJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// RecordID filters jobs by operational record ID.
	RecordID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
