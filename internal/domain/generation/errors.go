package generation

import "errors"

var (
	// ErrNoRequests is returned when a run is started without requests.
	ErrNoRequests = errors.New("no generation requests")

	// ErrInvalidBatchSize is returned when the batch size is below one.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrEmptyPrompt is returned when a request has no prompt.
	ErrEmptyPrompt = errors.New("generation request has an empty prompt")

	// ErrJobPanicked is recorded on a job whose provider call panicked.
	ErrJobPanicked = errors.New("generation job panicked")
)
