package mediaprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

// VideoConfig configures an asynchronous text-to-video endpoint.
type VideoConfig struct {
	Name            string
	BaseURL         string
	APIKey          string
	Model           string
	AspectRatio     string
	DefaultDuration float64
	PollInterval    time.Duration
	PollTimeout     time.Duration
}

// VideoGenerator submits a video task and polls it until it settles.
type VideoGenerator struct {
	client *http.Client
	config VideoConfig
}

// NewVideoGenerator creates a new polled video generator.
func NewVideoGenerator(client *http.Client, config VideoConfig) *VideoGenerator {
	if config.Name == "" {
		config.Name = "video"
	}
	if config.DefaultDuration <= 0 {
		config.DefaultDuration = 5
	}
	if config.AspectRatio == "" {
		config.AspectRatio = "9:16"
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 10 * time.Minute
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &VideoGenerator{client: client, config: config}
}

// Name returns the provider name.
func (g *VideoGenerator) Name() string {
	return g.config.Name
}

type videoSubmitRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	Duration    float64 `json:"duration"`
	AspectRatio string  `json:"aspect_ratio,omitempty"`
	Image       string  `json:"image,omitempty"`
}

type videoTask struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	VideoURL string  `json:"video_url,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Generate submits the prompt and waits for the rendered clip.
func (g *VideoGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.MediaItem, error) {
	duration := g.config.DefaultDuration
	if v, ok := req.Params["duration"].(float64); ok && v > 0 {
		duration = v
	}

	submit := &videoSubmitRequest{
		Model:       g.config.Model,
		Prompt:      req.Prompt,
		Duration:    duration,
		AspectRatio: stringParam(req.Params, "aspect_ratio", g.config.AspectRatio),
		Image:       stringParam(req.Params, "image", ""),
	}
	if req.Model != "" {
		submit.Model = req.Model
	}

	task, err := g.do(ctx, http.MethodPost, "/v1/videos/generations", submit)
	if err != nil {
		return nil, fmt.Errorf("submit video: %w", err)
	}
	if task.ID == "" {
		return nil, fmt.Errorf("submit video: no task id")
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.PollTimeout)
	defer cancel()

	ticker := time.NewTicker(g.config.PollInterval)
	defer ticker.Stop()

	for {
		switch task.Status {
		case "completed", "succeeded":
			if task.VideoURL == "" {
				return nil, fmt.Errorf("video task %s completed without url", task.ID)
			}
			if task.Duration > 0 {
				duration = task.Duration
			}
			return &model.MediaItem{
				URL:           task.VideoURL,
				Kind:          model.MediaKindVideo,
				FixedDuration: model.Float64(duration),
				Prompt:        req.Prompt,
			}, nil
		case "failed", "cancelled":
			return nil, fmt.Errorf("video task %s %s: %s", task.ID, task.Status, task.Error)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("poll video task %s: %w", task.ID, ctx.Err())
		case <-ticker.C:
		}

		next, err := g.do(ctx, http.MethodGet, "/v1/videos/generations/"+task.ID, nil)
		if err != nil {
			return nil, fmt.Errorf("poll video task %s: %w", task.ID, err)
		}
		if next.ID == "" {
			next.ID = task.ID
		}
		task = next
	}
}

func (g *VideoGenerator) do(ctx context.Context, method, path string, payload any) (*videoTask, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var task videoTask
	if err := json.Unmarshal(respBody, &task); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &task, nil
}

// Compile-time interface check
var _ outbound.MediaGeneratorPort = (*VideoGenerator)(nil)
