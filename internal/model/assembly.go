package model

import (
	"time"

	"github.com/google/uuid"
)

// AssemblyRequest is what video assembly receives: ordered timed segments
// plus the audio track.
type AssemblyRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	AudioURL  string    `json:"audio_url"`
	Segments  []Segment `json:"segments"`
}

// TotalDuration sums segment durations.
func (r *AssemblyRequest) TotalDuration() float64 {
	sum := 0.0
	for _, s := range r.Segments {
		sum += s.Duration
	}
	return sum
}

// AssemblyResult reports a submitted or finished render.
type AssemblyResult struct {
	JobID    string  `json:"job_id,omitempty"`
	Status   string  `json:"status"`
	VideoURL string  `json:"video_url,omitempty"`
	Duration float64 `json:"duration"`
}

// Assembly is the outcome of assembling a project timeline.
type Assembly struct {
	Result      *AssemblyResult `json:"result"`
	ManifestKey string          `json:"manifest_key,omitempty"`
	ManifestURL string          `json:"manifest_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
