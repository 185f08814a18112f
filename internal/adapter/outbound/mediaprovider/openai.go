package mediaprovider

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

// OpenAIImageConfig configures an OpenAI-compatible image endpoint.
type OpenAIImageConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Size    string
	Quality string
	Style   string
}

// OpenAIImageGenerator generates one image per request through
// /v1/images/generations.
type OpenAIImageGenerator struct {
	client *http.Client
	config OpenAIImageConfig
}

// NewOpenAIImageGenerator creates a new OpenAI image generator with the given HTTP client.
func NewOpenAIImageGenerator(client *http.Client, config OpenAIImageConfig) *OpenAIImageGenerator {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com"
	}
	if config.Model == "" {
		config.Model = "dall-e-3"
	}
	if config.Size == "" {
		config.Size = "1024x1024"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &OpenAIImageGenerator{
		client: client,
		config: config,
	}
}

// Name returns the provider name.
func (g *OpenAIImageGenerator) Name() string {
	return g.config.Name
}

// openAIImageRequest represents an OpenAI image generation request.
type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Style          string `json:"style,omitempty"`
	ResponseFormat string `json:"response_format"`
}

// openAIImageResponse represents an OpenAI image generation response.
type openAIImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate generates a single image.
func (g *OpenAIImageGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.MediaItem, error) {
	openAIReq := &openAIImageRequest{
		Model:          g.config.Model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           stringParam(req.Params, "size", g.config.Size),
		Quality:        stringParam(req.Params, "quality", g.config.Quality),
		Style:          stringParam(req.Params, "style", g.config.Style),
		ResponseFormat: "url",
	}
	if req.Model != "" {
		openAIReq.Model = req.Model
	}

	body, err := json.Marshal(openAIReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
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

	var openAIResp openAIImageResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return nil, fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if openAIResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", openAIResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if len(openAIResp.Data) == 0 || openAIResp.Data[0].URL == "" {
		return nil, fmt.Errorf("openai returned no image")
	}

	return &model.MediaItem{
		URL:    openAIResp.Data[0].URL,
		Kind:   model.MediaKindImage,
		Prompt: req.Prompt,
	}, nil
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Compile-time interface check
var _ outbound.MediaGeneratorPort = (*OpenAIImageGenerator)(nil)
