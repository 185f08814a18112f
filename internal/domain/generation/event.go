package generation

import (
	"time"

	"github.com/google/uuid"
	"github.com/uniedit/reelgen/internal/model"
)

// EventType identifies a scheduler event.
type EventType string

const (
	EventBatchStarted   EventType = "batch_started"
	EventJobFinished    EventType = "job_finished"
	EventBatchCompleted EventType = "batch_completed"
	EventCooldown       EventType = "cooldown"
	EventRunFinished    EventType = "run_finished"
)

// Event is one progress emission of a run.
type Event struct {
	Type         EventType            `json:"type"`
	RunID        uuid.UUID            `json:"run_id"`
	BatchIndex   int                  `json:"batch_index"`
	TotalBatches int                  `json:"total_batches"`
	Message      string               `json:"message"`
	Job          *model.GenerationJob `json:"job,omitempty"`
	Result       *BatchResult         `json:"result,omitempty"`
	Remaining    float64              `json:"remaining_seconds,omitempty"` // cooldown left
	Summary      *Summary             `json:"summary,omitempty"`
	At           time.Time            `json:"at"`
}

// BatchResult reports the outcome of one batch.
type BatchResult struct {
	BatchID         uuid.UUID             `json:"batch_id"`
	BatchIndex      int                   `json:"batch_index"`
	TotalBatches    int                   `json:"total_batches"`
	Succeeded       []model.MediaItem     `json:"succeeded"`
	FailedCount     int                   `json:"failed_count"`
	Jobs            []model.GenerationJob `json:"jobs"`
	ProgressMessage string                `json:"progress_message"`
}

// FailedRequests returns the requests of the failed jobs, in batch order.
func (r *BatchResult) FailedRequests() []model.GenerationRequest {
	var out []model.GenerationRequest
	for _, job := range r.Jobs {
		if job.Status == model.JobStatusFailed {
			out = append(out, job.Request)
		}
	}
	return out
}

// Summary aggregates a whole run.
type Summary struct {
	TotalBatches     int                       `json:"total_batches"`
	CompletedBatches int                       `json:"completed_batches"`
	TotalJobs        int                       `json:"total_jobs"`
	Succeeded        int                       `json:"succeeded"`
	Failed           int                       `json:"failed"`
	Stopped          bool                      `json:"stopped"`
	Skipped          int                       `json:"skipped"`
	FailedRequests   []model.GenerationRequest `json:"failed_requests,omitempty"`
}

// Partial reports whether any job failed or the run was stopped early.
func (s *Summary) Partial() bool {
	return s.Failed > 0 || s.Stopped
}

// Observer receives scheduler measurements.
type Observer interface {
	JobFinished(provider string, status model.JobStatus, took time.Duration)
	BatchFinished(provider string, succeeded, failed int)
	CooldownWaited(provider string, waited time.Duration)
}

type nopObserver struct{}

func (nopObserver) JobFinished(string, model.JobStatus, time.Duration) {}
func (nopObserver) BatchFinished(string, int, int)                     {}
func (nopObserver) CooldownWaited(string, time.Duration)               {}
