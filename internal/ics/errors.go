package ics

import (
	"errors"
	"fmt"
)

// ErrNoEvents is returned by callers that treat an empty decode result as
// a "no valid events found" condition. Decode itself never returns it.
var ErrNoEvents = errors.New("no valid events found")

// EncodingError reports that the batch could not be serialized.
// No partial document accompanies it.
type EncodingError struct {
	Count int // number of events in the failed batch
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ics encode %d event(s): %v", e.Count, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// ReadError reports that the input could not be read as text at all.
type ReadError struct {
	Source string // file name or URL, may be empty
	Err    error
}

func (e *ReadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("ics read: %v", e.Err)
	}
	return fmt.Sprintf("ics read %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
