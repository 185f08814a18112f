// Package assembly renders timed segment lists into a video, either through
// a remote render service or a local ffmpeg binary.
package assembly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

// HTTPConfig configures a remote render service.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
}

// HTTPAssembler submits the segment list to a render service.
type HTTPAssembler struct {
	client *http.Client
	config HTTPConfig
}

// NewHTTPAssembler creates a new remote assembler.
func NewHTTPAssembler(client *http.Client, config HTTPConfig) *HTTPAssembler {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &HTTPAssembler{client: client, config: config}
}

type renderResponse struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	VideoURL string  `json:"video_url"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error"`
}

// Assemble posts the request and returns the render job as accepted.
func (a *HTTPAssembler) Assemble(ctx context.Context, req *model.AssemblyRequest) (*model.AssemblyResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/v1/renders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var render renderResponse
	if err := json.Unmarshal(respBody, &render); err != nil {
		return nil, fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		if render.Error != "" {
			return nil, fmt.Errorf("render service: %s", render.Error)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	duration := render.Duration
	if duration == 0 {
		duration = req.TotalDuration()
	}
	status := render.Status
	if status == "" {
		status = "submitted"
	}
	return &model.AssemblyResult{
		JobID:    render.ID,
		Status:   status,
		VideoURL: render.VideoURL,
		Duration: duration,
	}, nil
}

// Compile-time interface check
var _ outbound.AssemblerPort = (*HTTPAssembler)(nil)
