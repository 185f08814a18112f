package studio

import "errors"

var (
	// ErrProjectNotFound is returned when a project does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrRunNotFound is returned when a generation run is unknown.
	ErrRunNotFound = errors.New("generation run not found")

	// ErrRunActive is returned when a project already has a run in flight.
	ErrRunActive = errors.New("generation run already in progress")

	// ErrNothingToRetry is returned when a run has no failed requests.
	ErrNothingToRetry = errors.New("no failed requests to retry")

	// ErrProviderNotFound is returned when no generator matches the request.
	ErrProviderNotFound = errors.New("generation provider not found")

	// ErrNoAudio is returned when assembling a project without audio.
	ErrNoAudio = errors.New("project has no audio track")

	// ErrEmptyTimeline is returned when assembling an empty timeline.
	ErrEmptyTimeline = errors.New("timeline is empty")

	// ErrSegmentOutOfRange is returned for a bad timeline index.
	ErrSegmentOutOfRange = errors.New("timeline segment index out of range")

	// ErrInvalidInput is returned when input is invalid.
	ErrInvalidInput = errors.New("invalid input")
)
