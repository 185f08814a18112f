package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/uniedit/reelgen/internal/port/outbound"
)

// Prober reads audio durations with ffprobe.
type Prober struct {
	probe func(url string) (string, error)
}

// NewProber creates a new ffprobe-backed prober.
func NewProber() *Prober {
	return &Prober{probe: func(url string) (string, error) {
		return ffmpeg.Probe(url)
	}}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe returns the duration of the track at url in seconds.
func (p *Prober) Probe(ctx context.Context, url string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw, err := p.probe(url)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", url, err)
	}
	return ParseProbeDuration(raw)
}

// ParseProbeDuration extracts format.duration from ffprobe JSON output.
func ParseProbeDuration(raw string) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if out.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output has no duration")
	}
	d, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %v", d)
	}
	return d, nil
}

// Compile-time interface check
var _ outbound.AudioProberPort = (*Prober)(nil)
