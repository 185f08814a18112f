package main

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/timeline"
	"github.com/uniedit/reelgen/internal/model"
)

func TestReadPrompts(t *testing.T) {
	input := "a red fox\n\n  # skipped\n  a blue whale  \n"

	prompts, err := readPrompts(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{"a red fox", "a blue whale"}, prompts)
}

func TestRenderEvent(t *testing.T) {
	tests := []struct {
		name  string
		event generation.Event
		want  string
	}{
		{
			name:  "batch started",
			event: generation.Event{Type: generation.EventBatchStarted, Message: "Batch 1/2"},
			want:  "Batch 1/2",
		},
		{
			name:  "cooldown shows seconds left",
			event: generation.Event{Type: generation.EventCooldown, Message: "Cooling down", Remaining: 42},
			want:  "42s",
		},
		{
			name: "batch with failures",
			event: generation.Event{
				Type:    generation.EventBatchCompleted,
				Message: "Batch 1/2: 3 ok, 1 failed",
				Result:  &generation.BatchResult{FailedCount: 1},
			},
			want: "✗",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, renderEvent(tt.event), tt.want)
		})
	}

	assert.Empty(t, renderEvent(generation.Event{Type: generation.EventJobFinished}))
}

func TestRenderSummary(t *testing.T) {
	out := renderSummary(generation.Summary{
		TotalBatches:     2,
		CompletedBatches: 1,
		Succeeded:        4,
		Failed:           1,
		Stopped:          true,
		Skipped:          5,
		FailedRequests:   []model.GenerationRequest{{Prompt: "a blue whale"}},
	})

	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "5 requests skipped")
	assert.Contains(t, out, "retry: a blue whale")
}

func TestRenderTimeline(t *testing.T) {
	setID := uuid.New()
	entries := []model.ResolvedItem{
		{Ref: model.NewMediaRef(setID, 0), Item: model.MediaItem{Index: 0, URL: "https://cdn/a.png", Kind: model.MediaKindImage}},
		{Ref: model.NewMediaRef(setID, 1), Item: model.MediaItem{Index: 1, URL: "https://cdn/b.png", Kind: model.MediaKindImage}},
	}

	t.Run("with audio", func(t *testing.T) {
		target := 10.0
		out := renderTimeline(timeline.New(timeline.NewComposer(3), entries, &target, 3))

		assert.Contains(t, out, "https://cdn/a.png")
		assert.Contains(t, out, "https://cdn/b.png")
		assert.Contains(t, out, "of 10.00s audio")
	})

	t.Run("fallback", func(t *testing.T) {
		out := renderTimeline(timeline.New(timeline.NewComposer(3), entries, nil, 3))
		assert.Contains(t, out, "fallback lengths")
	})

	t.Run("empty", func(t *testing.T) {
		out := renderTimeline(timeline.New(timeline.NewComposer(3), nil, nil, 3))
		assert.Contains(t, out, "Timeline is empty")
	})
}
