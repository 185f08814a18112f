package pool

import "errors"

var (
	// ErrSetNotFound is returned when a media set is not in the pool.
	ErrSetNotFound = errors.New("media set not found")

	// ErrRefNotFound is returned when a media ref does not resolve.
	ErrRefNotFound = errors.New("media ref not found")
)
