package pipeline

import (
	"fmt"
)

// ValidationError reports malformed or guard-rejected input. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a duplicate or concurrent operation, e.g. a second
// generate request against a link that is already generating. The caller may
// retry once the current operation resolves.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure of the external script or speech provider.
// Retryable only through an explicit operator action; generation against paid
// provider APIs is never retried silently.
type UpstreamError struct {
	Operation string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IncompleteSegmentError blocks assembly while an enabled news segment still
// lacks audio.
type IncompleteSegmentError struct {
	SegmentID string
	Title     string
}

func (e *IncompleteSegmentError) Error() string {
	return fmt.Sprintf("segment %q has no audio yet", e.Title)
}

// NotFoundError reports a missing episode, news item, link, or segment.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// StaleWriteError reports a lost optimistic-locking race on an episode update.
type StaleWriteError struct {
	EpisodeID string
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("episode %s was modified concurrently", e.EpisodeID)
}
