package assembly

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

// FFmpegConfig configures local rendering.
type FFmpegConfig struct {
	Binary    string
	WorkDir   string
	Width     int
	Height    int
	FPS       int
	KeyPrefix string
	URLTTL    time.Duration
}

// DefaultFFmpegConfig returns a vertical 1080x1920 preset.
func DefaultFFmpegConfig() *FFmpegConfig {
	return &FFmpegConfig{
		Binary:    "ffmpeg",
		WorkDir:   os.TempDir(),
		Width:     1080,
		Height:    1920,
		FPS:       30,
		KeyPrefix: "renders",
		URLTTL:    24 * time.Hour,
	}
}

// FFmpegAssembler renders with the concat demuxer and uploads the result.
type FFmpegAssembler struct {
	config    *FFmpegConfig
	artifacts outbound.ArtifactStoragePort
	logger    *zap.Logger
}

// NewFFmpegAssembler creates a new local assembler.
func NewFFmpegAssembler(artifacts outbound.ArtifactStoragePort, config *FFmpegConfig, logger *zap.Logger) *FFmpegAssembler {
	if config == nil {
		config = DefaultFFmpegConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegAssembler{
		config:    config,
		artifacts: artifacts,
		logger:    logger.Named("ffmpeg"),
	}
}

// Assemble renders req synchronously.
func (a *FFmpegAssembler) Assemble(ctx context.Context, req *model.AssemblyRequest) (*model.AssemblyResult, error) {
	if len(req.Segments) == 0 {
		return nil, fmt.Errorf("assemble: no segments")
	}

	jobID := uuid.New().String()
	dir, err := os.MkdirTemp(a.config.WorkDir, "render-"+jobID)
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	listPath := filepath.Join(dir, "segments.txt")
	var list bytes.Buffer
	if err := WriteConcatList(&list, req.Segments); err != nil {
		return nil, err
	}
	if err := os.WriteFile(listPath, list.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("write concat list: %w", err)
	}

	outPath := filepath.Join(dir, "output.mp4")
	args := a.Args(listPath, req.AudioURL, outPath, req.TotalDuration())

	started := time.Now()
	cmd := exec.CommandContext(ctx, a.config.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 512))
	}

	a.logger.Info("Render finished",
		zap.String("job_id", jobID),
		zap.Int("segments", len(req.Segments)),
		zap.Duration("took", time.Since(started)),
	)

	result := &model.AssemblyResult{
		JobID:    jobID,
		Status:   "completed",
		Duration: req.TotalDuration(),
	}
	if a.artifacts == nil {
		return result, nil
	}

	url, err := a.upload(ctx, req.ProjectID, jobID, outPath)
	if err != nil {
		return nil, err
	}
	result.VideoURL = url
	return result, nil
}

// Args builds the ffmpeg command line for a concat list and an audio track.
func (a *FFmpegAssembler) Args(listPath, audioURL, outPath string, duration float64) []string {
	video := ffmpeg.Input(listPath, ffmpeg.KwArgs{
		"f":                  "concat",
		"safe":               "0",
		"protocol_whitelist": "file,http,https,tcp,tls",
	}).Video()
	audio := ffmpeg.Input(audioURL).Audio()

	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d,format=yuv420p",
		a.config.Width, a.config.Height, a.config.Width, a.config.Height, a.config.FPS,
	)

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outPath, ffmpeg.KwArgs{
		"vf":       filter,
		"c:v":      "libx264",
		"preset":   "fast",
		"c:a":      "aac",
		"b:a":      "192k",
		"t":        fmt.Sprintf("%.3f", duration),
		"movflags": "+faststart",
	}).OverWriteOutput().GetArgs()
}

func (a *FFmpegAssembler) upload(ctx context.Context, projectID uuid.UUID, jobID, outPath string) (string, error) {
	f, err := os.Open(outPath)
	if err != nil {
		return "", fmt.Errorf("open render: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat render: %w", err)
	}

	key := path.Join(a.config.KeyPrefix, projectID.String(), jobID+".mp4")
	if err := a.artifacts.Put(ctx, key, f, info.Size(), "video/mp4"); err != nil {
		return "", fmt.Errorf("upload render: %w", err)
	}
	return a.artifacts.GetPresignedURL(ctx, key, a.config.URLTTL)
}

// WriteConcatList writes an ffmpeg concat demuxer script. Each segment
// plays for its timed duration; the last entry is repeated so the demuxer
// honours its duration.
func WriteConcatList(w io.Writer, segments []model.Segment) error {
	if _, err := io.WriteString(w, "ffconcat version 1.0\n"); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	for _, s := range segments {
		if _, err := fmt.Fprintf(w, "file %s\nduration %.3f\n", quote(s.URL), s.Duration); err != nil {
			return fmt.Errorf("write concat list: %w", err)
		}
	}
	if n := len(segments); n > 0 {
		if _, err := fmt.Fprintf(w, "file %s\n", quote(segments[n-1].URL)); err != nil {
			return fmt.Errorf("write concat list: %w", err)
		}
	}
	return nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Compile-time interface check
var _ outbound.AssemblerPort = (*FFmpegAssembler)(nil)
