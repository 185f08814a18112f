// Package timeline assigns durations to an ordered list of media items so
// that they fill an audio track.
package timeline

import "github.com/uniedit/reelgen/internal/model"

// DefaultVideoDuration is used for a video item without a fixed duration.
const DefaultVideoDuration = 3.0

// Composer reconciles item durations against a target length.
type Composer struct {
	videoDuration float64
}

// NewComposer creates a composer. A non-positive videoDuration falls back to
// DefaultVideoDuration.
func NewComposer(videoDuration float64) Composer {
	if videoDuration <= 0 {
		videoDuration = DefaultVideoDuration
	}
	return Composer{videoDuration: videoDuration}
}

// VideoDuration returns the fixed length of a video item.
func (c Composer) VideoDuration(item model.MediaItem) float64 {
	if item.FixedDuration == nil {
		if c.videoDuration <= 0 {
			return DefaultVideoDuration
		}
		return c.videoDuration
	}
	return max(0, *item.FixedDuration)
}

// Compose spreads whatever the videos leave of target evenly across the
// images. When the videos alone exceed target every image gets zero.
func (c Composer) Compose(items []model.MediaItem, target float64) []model.SegmentTiming {
	if len(items) == 0 {
		return []model.SegmentTiming{}
	}

	videoSum := 0.0
	images := 0
	for _, item := range items {
		if item.IsVideo() {
			videoSum += c.VideoDuration(item)
		} else {
			images++
		}
	}

	perImage := 0.0
	if images > 0 {
		perImage = max(0, target-videoSum) / float64(images)
	}

	out := make([]model.SegmentTiming, len(items))
	for i, item := range items {
		if item.IsVideo() {
			out[i] = model.SegmentTiming{Duration: c.VideoDuration(item)}
			continue
		}
		out[i] = model.SegmentTiming{Duration: perImage}
	}
	return out
}

// ComposeFlat is used when no target is known: images get perItem seconds,
// videos keep their own length.
func (c Composer) ComposeFlat(items []model.MediaItem, perItem float64) []model.SegmentTiming {
	out := make([]model.SegmentTiming, len(items))
	for i, item := range items {
		if item.IsVideo() {
			out[i] = model.SegmentTiming{Duration: c.VideoDuration(item)}
			continue
		}
		out[i] = model.SegmentTiming{Duration: max(0, perItem)}
	}
	return out
}

// Reorder moves the item at from to position to and recomposes every timing.
func (c Composer) Reorder(items []model.MediaItem, from, to int, target float64) ([]model.MediaItem, []model.SegmentTiming) {
	moved := Move(items, from, to)
	return moved, c.Compose(moved, target)
}

// Compose runs the default composer.
func Compose(items []model.MediaItem, target float64) []model.SegmentTiming {
	return NewComposer(DefaultVideoDuration).Compose(items, target)
}

// ComposeFlat runs the default composer in flat mode.
func ComposeFlat(items []model.MediaItem, perItem float64) []model.SegmentTiming {
	return NewComposer(DefaultVideoDuration).ComposeFlat(items, perItem)
}

// Reorder runs the default composer's Reorder.
func Reorder(items []model.MediaItem, from, to int, target float64) ([]model.MediaItem, []model.SegmentTiming) {
	return NewComposer(DefaultVideoDuration).Reorder(items, from, to, target)
}

// Move returns a copy of items with the element at from moved to index to.
// Out-of-range indexes return an unchanged copy.
func Move[T any](items []T, from, to int) []T {
	out := append([]T(nil), items...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moving := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moving
	return out
}

// Total sums timings.
func Total(timings []model.SegmentTiming) float64 {
	sum := 0.0
	for _, t := range timings {
		sum += t.Duration
	}
	return sum
}
