package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSubmissionInFlight is returned when a submit arrives while another is still running.
var ErrSubmissionInFlight = errors.New("submission already in progress")

// ErrUnknownVariant is returned when a wizard is opened with an unregistered variant.
var ErrUnknownVariant = errors.New("unknown wizard variant")

// ErrUnknownField is returned when a field does not belong to the session's variant.
var ErrUnknownField = errors.New("unknown field")

// ValidationError reports required fields that were empty at submit time.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// SubmissionError wraps a failed lead submission (network error or non-2xx status).
type SubmissionError struct {
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("lead submission failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("lead submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
