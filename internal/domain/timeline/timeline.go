package timeline

import "github.com/uniedit/reelgen/internal/model"

// Slot is one timed segment with its position on the track.
type Slot struct {
	Ref      model.MediaRef  `json:"ref"`
	Item     model.MediaItem `json:"item"`
	Duration float64         `json:"duration"`
	Start    float64         `json:"start"`
	Manual   bool            `json:"manual"`
}

// Timeline is an ordered, timed list of resolved items. It is a value:
// every operation returns a new Timeline.
type Timeline struct {
	composer Composer
	base     []model.ResolvedItem // selection order
	entries  []model.ResolvedItem
	timings  []model.SegmentTiming
	manual   []bool
	target   *float64
	fallback float64
}

// New composes entries against target. A nil target uses fallback seconds
// per image instead.
func New(composer Composer, entries []model.ResolvedItem, target *float64, fallback float64) Timeline {
	t := Timeline{
		composer: composer,
		base:     append([]model.ResolvedItem(nil), entries...),
		entries:  append([]model.ResolvedItem(nil), entries...),
		fallback: fallback,
	}
	if target != nil {
		t.target = model.Float64(max(0, *target))
	}
	return t.recompose()
}

// Len returns the number of segments.
func (t Timeline) Len() int { return len(t.entries) }

// Entries returns the items in order.
func (t Timeline) Entries() []model.ResolvedItem {
	return append([]model.ResolvedItem(nil), t.entries...)
}

// Timings returns the durations, index-aligned with Entries.
func (t Timeline) Timings() []model.SegmentTiming {
	return append([]model.SegmentTiming(nil), t.timings...)
}

// Refs returns the refs in timeline order.
func (t Timeline) Refs() []model.MediaRef {
	out := make([]model.MediaRef, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Ref
	}
	return out
}

// Target returns the target length, nil in flat mode.
func (t Timeline) Target() *float64 {
	if t.target == nil {
		return nil
	}
	return model.Float64(*t.target)
}

// Total sums the segment durations.
func (t Timeline) Total() float64 {
	return Total(t.timings)
}

// Overrun reports whether the videos alone are longer than the target.
func (t Timeline) Overrun() bool {
	if t.target == nil {
		return false
	}
	sum := 0.0
	for _, e := range t.entries {
		if e.Item.IsVideo() {
			sum += t.composer.VideoDuration(e.Item)
		}
	}
	return sum > *t.target
}

// Move relocates one segment and recomposes all timings. Manual durations
// are discarded.
func (t Timeline) Move(from, to int) Timeline {
	t.entries = Move(t.entries, from, to)
	return t.recompose()
}

// ResetOrder restores the order the timeline was built with, images first
// and videos after, and recomposes.
func (t Timeline) ResetOrder() Timeline {
	images := make([]model.ResolvedItem, 0, len(t.base))
	var videos []model.ResolvedItem
	for _, e := range t.base {
		if e.Item.IsVideo() {
			videos = append(videos, e)
			continue
		}
		images = append(images, e)
	}
	t.entries = append(images, videos...)
	return t.recompose()
}

// Replace swaps the item behind ref without touching any duration.
func (t Timeline) Replace(ref model.MediaRef, item model.MediaItem) Timeline {
	t.base = replaceItem(t.base, ref, item)
	t.entries = replaceItem(t.entries, ref, item)
	return t
}

// Prune drops the segments whose ref no longer resolves, keeping the current
// order. It recomposes and reports true only when something was dropped.
func (t Timeline) Prune(resolves func(model.MediaRef) bool) (Timeline, bool) {
	entries := keepResolved(t.entries, resolves)
	if len(entries) == len(t.entries) {
		return t, false
	}
	t.base = keepResolved(t.base, resolves)
	t.entries = entries
	return t.recompose(), true
}

// SetDuration overrides a single slot without touching the others.
// Out-of-range indexes are ignored and negative values clamp to zero.
func (t Timeline) SetDuration(index int, seconds float64) Timeline {
	if index < 0 || index >= len(t.timings) {
		return t
	}
	t.timings = t.Timings()
	t.manual = append([]bool(nil), t.manual...)
	t.timings[index] = model.SegmentTiming{Duration: max(0, seconds)}
	t.manual[index] = true
	return t
}

// WithTarget swaps the target length and recomposes.
func (t Timeline) WithTarget(target *float64) Timeline {
	t.target = nil
	if target != nil {
		t.target = model.Float64(max(0, *target))
	}
	return t.recompose()
}

// Segments returns the (url, kind, duration) triples for assembly.
func (t Timeline) Segments() []model.Segment {
	out := make([]model.Segment, len(t.entries))
	for i, e := range t.entries {
		out[i] = model.Segment{
			URL:      e.Item.URL,
			Kind:     e.Item.Kind,
			Duration: t.timings[i].Duration,
		}
	}
	return out
}

// Slots returns each segment with its start offset on the track.
func (t Timeline) Slots() []Slot {
	out := make([]Slot, len(t.entries))
	start := 0.0
	for i, e := range t.entries {
		out[i] = Slot{
			Ref:      e.Ref,
			Item:     e.Item,
			Duration: t.timings[i].Duration,
			Start:    start,
			Manual:   t.manual[i],
		}
		start += t.timings[i].Duration
	}
	return out
}

func (t Timeline) recompose() Timeline {
	items := make([]model.MediaItem, len(t.entries))
	for i, e := range t.entries {
		items[i] = e.Item
	}
	if t.target != nil {
		t.timings = t.composer.Compose(items, *t.target)
	} else {
		t.timings = t.composer.ComposeFlat(items, t.fallback)
	}
	t.manual = make([]bool, len(t.entries))
	return t
}

func replaceItem(entries []model.ResolvedItem, ref model.MediaRef, item model.MediaItem) []model.ResolvedItem {
	out := append([]model.ResolvedItem(nil), entries...)
	for i := range out {
		if out[i].Ref == ref {
			out[i].Item = item
		}
	}
	return out
}

func keepResolved(entries []model.ResolvedItem, resolves func(model.MediaRef) bool) []model.ResolvedItem {
	out := make([]model.ResolvedItem, 0, len(entries))
	for _, e := range entries {
		if resolves(e.Ref) {
			out = append(out, e)
		}
	}
	return out
}
