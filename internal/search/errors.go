package search

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by Search matches exactly one of
// these (or a context error when the search was cancelled).
var (
	// ErrInvalidImage is returned for a nil, zero-dimension or undecodable source.
	ErrInvalidImage = errors.New("invalid image")

	// ErrInvalidTarget is returned when the target size is not positive.
	ErrInvalidTarget = errors.New("invalid target size")

	// ErrCodecFailure is returned when an encode call fails. The search is
	// aborted on the first failure; no quality is retried or skipped.
	ErrCodecFailure = errors.New("codec failure")

	// ErrNoViableQuality is returned when the search finished without
	// recording any candidate.
	ErrNoViableQuality = errors.New("no viable quality")
)

// CodecError records which quality probe failed.
type CodecError struct {
	Quality   Quality
	Iteration int
	Err       error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec failure at quality %.4f (iteration %d): %v", float64(e.Quality), e.Iteration, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCodecFailure) hold for every CodecError.
func (e *CodecError) Is(target error) bool { return target == ErrCodecFailure }
