package inbound

import "github.com/uniedit/reelgen/internal/model"

// --- Request Types ---

// CreateProjectInput creates a project.
type CreateProjectInput struct {
	Name string `json:"name" binding:"required"`
}

// SetAudioInput attaches or clears the audio track. A nil duration is
// probed from the track when probing is enabled.
type SetAudioInput struct {
	AudioURL string   `json:"audio_url"`
	Duration *float64 `json:"duration,omitempty"`
}

// RefInput addresses one pool item.
type RefInput struct {
	Ref model.MediaRef `json:"ref" binding:"required"`
}

// SetSelectionInput replaces the whole selection.
type SetSelectionInput struct {
	Refs []model.MediaRef `json:"refs"`
}

// MoveSegmentInput moves one timeline segment.
type MoveSegmentInput struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// SegmentDurationInput overrides one segment's duration.
type SegmentDurationInput struct {
	Seconds *float64 `json:"seconds" binding:"required"`
}
