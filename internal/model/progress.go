package model

import (
	"time"

	"github.com/google/uuid"
)

// Progress event types.
const (
	ProgressRunStarted     = "generation.run_started"
	ProgressBatchStarted   = "generation.batch_started"
	ProgressBatchCompleted = "generation.batch_completed"
	ProgressCooldown       = "generation.cooldown"
	ProgressRunFinished    = "generation.run_finished"
)

// ProgressEvent is the published form of a generation run's progress.
type ProgressEvent struct {
	ID           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	ProjectID    uuid.UUID  `json:"project_id"`
	RunID        uuid.UUID  `json:"run_id"`
	Provider     string     `json:"provider"`
	BatchIndex   int        `json:"batch_index"`
	TotalBatches int        `json:"total_batches"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	SetID        *uuid.UUID `json:"set_id,omitempty"`
	Remaining    float64    `json:"remaining_seconds,omitempty"`
	Message      string     `json:"message"`
	Timestamp    time.Time  `json:"timestamp"`
}

func (e *ProgressEvent) EventID() uuid.UUID    { return e.ID }
func (e *ProgressEvent) EventType() string     { return e.Type }
func (e *ProgressEvent) OccurredAt() time.Time { return e.Timestamp }

// PartitionKey keys the event by project so a project's runs stay ordered
// downstream.
func (e *ProgressEvent) PartitionKey() string { return e.ProjectID.String() }
