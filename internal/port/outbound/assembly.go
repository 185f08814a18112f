package outbound

import (
	"context"

	"github.com/uniedit/reelgen/internal/model"
)

// AssemblerPort renders a timed segment list and an audio track into a video.
type AssemblerPort interface {
	// Assemble submits the segments for rendering.
	Assemble(ctx context.Context, req *model.AssemblyRequest) (*model.AssemblyResult, error)
}

// AudioProberPort reads the duration of an audio track.
type AudioProberPort interface {
	// Probe returns the duration in seconds.
	Probe(ctx context.Context, url string) (float64, error)
}
