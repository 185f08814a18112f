package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelgen/internal/model"
)

const tolerance = 1e-9

func image(url string) model.MediaItem {
	return model.MediaItem{URL: url, Kind: model.MediaKindImage}
}

func video(url string, seconds float64) model.MediaItem {
	return model.MediaItem{URL: url, Kind: model.MediaKindVideo, FixedDuration: model.Float64(seconds)}
}

func durations(timings []model.SegmentTiming) []float64 {
	out := make([]float64, len(timings))
	for i, t := range timings {
		out[i] = t.Duration
	}
	return out
}

func TestCompose(t *testing.T) {
	t.Run("images share what videos leave", func(t *testing.T) {
		items := []model.MediaItem{image("i0"), video("v0", 4), image("i1"), video("v1", 6), image("i2")}

		timings := Compose(items, 20)

		require.Len(t, timings, 5)
		assert.InDelta(t, 10.0/3, timings[0].Duration, tolerance)
		assert.InDelta(t, 4, timings[1].Duration, tolerance)
		assert.InDelta(t, 10.0/3, timings[2].Duration, tolerance)
		assert.InDelta(t, 6, timings[3].Duration, tolerance)
		assert.InDelta(t, 10.0/3, timings[4].Duration, tolerance)
		assert.InDelta(t, 20, Total(timings), tolerance)
	})

	t.Run("videos over target leave images at zero", func(t *testing.T) {
		items := []model.MediaItem{video("v0", 8), image("i0"), video("v1", 5), image("i1")}

		timings := Compose(items, 10)

		assert.Equal(t, []float64{8, 0, 5, 0}, durations(timings))
		for _, timing := range timings {
			assert.GreaterOrEqual(t, timing.Duration, 0.0)
		}
	})

	t.Run("videos exactly at target", func(t *testing.T) {
		timings := Compose([]model.MediaItem{video("v0", 10), image("i0")}, 10)
		assert.Equal(t, []float64{10, 0}, durations(timings))
	})

	t.Run("video without duration defaults to three seconds", func(t *testing.T) {
		items := []model.MediaItem{{URL: "v", Kind: model.MediaKindVideo}, image("i0")}

		timings := Compose(items, 10)

		assert.Equal(t, []float64{3, 7}, durations(timings))
	})

	t.Run("custom video default", func(t *testing.T) {
		items := []model.MediaItem{{URL: "v", Kind: model.MediaKindVideo}, image("i0")}

		timings := NewComposer(5).Compose(items, 10)

		assert.Equal(t, []float64{5, 5}, durations(timings))
	})

	t.Run("only videos", func(t *testing.T) {
		timings := Compose([]model.MediaItem{video("v0", 2), video("v1", 3)}, 30)
		assert.Equal(t, []float64{2, 3}, durations(timings))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Compose(nil, 30))
	})
}

func TestComposeFlat(t *testing.T) {
	items := []model.MediaItem{image("i0"), video("v0", 4), image("i1")}

	timings := ComposeFlat(items, 3)

	assert.Equal(t, []float64{3, 4, 3}, durations(timings))
}

func TestReorder(t *testing.T) {
	items := []model.MediaItem{image("i0"), image("i1"), video("v0", 4), image("i2")}
	target := 16.0

	moved, timings := Reorder(items, 2, 0, target)

	require.Len(t, moved, 4)
	assert.Equal(t, []string{"v0", "i0", "i1", "i2"}, []string{moved[0].URL, moved[1].URL, moved[2].URL, moved[3].URL})
	assert.Equal(t, []float64{4, 4, 4, 4}, durations(timings))
	assert.InDelta(t, target, Total(timings), tolerance)

	// input untouched
	assert.Equal(t, "i0", items[0].URL)
}

func TestMove(t *testing.T) {
	in := []string{"a", "b", "c", "d"}

	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward", 3, 1, []string{"a", "d", "b", "c"}},
		{"to end", 1, 3, []string{"a", "c", "d", "b"}},
		{"same", 2, 2, []string{"a", "b", "c", "d"}},
		{"out of range", 0, 9, []string{"a", "b", "c", "d"}},
		{"negative", -1, 0, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Move(in, tt.from, tt.to))
		})
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, in)
}
