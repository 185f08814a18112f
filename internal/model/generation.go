package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a generation job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusGenerating JobStatus = "generating"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal checks if the status is terminal.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// GenerationRequest is one prompt to be turned into one media artifact.
// Params are provider specific and opaque to the scheduler.
type GenerationRequest struct {
	Prompt string         `json:"prompt"`
	Kind   MediaKind      `json:"kind,omitempty"`
	Model  string         `json:"model,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// GenerationJob is a single unit of work inside a batch.
type GenerationJob struct {
	ID        uuid.UUID         `json:"id"`
	Request   GenerationRequest `json:"request"`
	Status    JobStatus         `json:"status"`
	ResultURL string            `json:"result_url,omitempty"`
	Result    *MediaItem        `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	StartedAt time.Time         `json:"started_at,omitempty"`
	EndedAt   time.Time         `json:"ended_at,omitempty"`
}

// Batch is a fixed-size chunk of jobs executed concurrently.
type Batch struct {
	ID           uuid.UUID       `json:"id"`
	Jobs         []GenerationJob `json:"jobs"`
	BatchIndex   int             `json:"batch_index"`
	TotalBatches int             `json:"total_batches"`
}

// Project owns a media pool, a selection and an optional audio track.
type Project struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	AudioURL      string    `json:"audio_url,omitempty"`
	AudioDuration *float64  `json:"audio_duration,omitempty"` // seconds, nil when unknown
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
