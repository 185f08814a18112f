package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaKind represents the kind of a generated media item.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// Valid reports whether the kind is known.
func (k MediaKind) Valid() bool {
	return k == MediaKindImage || k == MediaKindVideo
}

// MediaItem is a single generated artifact inside a MediaSet.
// Video items carry a fixed duration; image items do not.
type MediaItem struct {
	Index         int       `json:"index"`
	URL           string    `json:"url"`
	Kind          MediaKind `json:"kind"`
	FixedDuration *float64  `json:"fixed_duration,omitempty"` // seconds
	Prompt        string    `json:"prompt,omitempty"`
}

// IsVideo reports whether the item is a video.
func (i MediaItem) IsVideo() bool {
	return i.Kind == MediaKindVideo
}

// MediaSet groups the successful items of one completed batch.
type MediaSet struct {
	ID           uuid.UUID   `json:"id"`
	SourcePrompt string      `json:"source_prompt"`
	Items        []MediaItem `json:"items"`
	Provider     string      `json:"provider"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

// Item returns the item at index, if present.
func (s MediaSet) Item(index int) (MediaItem, bool) {
	for _, item := range s.Items {
		if item.Index == index {
			return item, true
		}
	}
	return MediaItem{}, false
}

// MediaRef is a weak reference "setId:index" into the media pool.
type MediaRef string

// NewMediaRef builds a reference to item index of set setID.
func NewMediaRef(setID uuid.UUID, index int) MediaRef {
	return MediaRef(fmt.Sprintf("%s:%d", setID.String(), index))
}

// Parse splits the reference into its set id and item index.
func (r MediaRef) Parse() (uuid.UUID, int, error) {
	raw := string(r)
	sep := strings.LastIndex(raw, ":")
	if sep <= 0 || sep == len(raw)-1 {
		return uuid.Nil, 0, fmt.Errorf("malformed media ref %q", raw)
	}

	setID, err := uuid.Parse(raw[:sep])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("malformed media ref %q: %w", raw, err)
	}
	index, err := strconv.Atoi(raw[sep+1:])
	if err != nil || index < 0 {
		return uuid.Nil, 0, fmt.Errorf("malformed media ref %q: bad index", raw)
	}
	return setID, index, nil
}

// String implements fmt.Stringer.
func (r MediaRef) String() string {
	return string(r)
}

// ResolvedItem pairs a reference with the item it resolved to.
type ResolvedItem struct {
	Ref  MediaRef  `json:"ref"`
	Item MediaItem `json:"item"`
}

// SegmentTiming is the derived duration of one timeline slot.
type SegmentTiming struct {
	Duration float64 `json:"duration"` // seconds
}

// Segment is one (url, kind, duration) triple handed to video assembly.
type Segment struct {
	URL      string    `json:"url"`
	Kind     MediaKind `json:"kind"`
	Duration float64   `json:"duration"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
