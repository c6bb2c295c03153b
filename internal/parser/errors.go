package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrParseFailure is returned when the input is not a JSON object.
	ErrParseFailure = errors.New("parse failure")
	// ErrMissingField is returned when tempo or length is absent or invalid.
	ErrMissingField = errors.New("missing field")
	// ErrMalformedKeyframe marks a keyframe record that was skipped.
	ErrMalformedKeyframe = errors.New("malformed keyframe")
)

// KeyframeError describes why a keyframe record was skipped.
type KeyframeError struct {
	Index  int
	Reason string
}

func (e *KeyframeError) Error() string {
	return fmt.Sprintf("keyframe %d: %s", e.Index, e.Reason)
}

// Unwrap lets callers match the error with errors.Is(err, ErrMalformedKeyframe).
func (e *KeyframeError) Unwrap() error {
	return ErrMalformedKeyframe
}
