package fault

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so the orchestrator can decide how a
// failed job is reported and persisted.
type Kind string

const (
	// KindValidation marks a bad or unsupported input URL. No remote call
	// was attempted.
	KindValidation Kind = "validation"
	// KindResolution marks exhaustion of every resolver mirror.
	KindResolution Kind = "resolution"
	// KindFetch marks exhaustion of every fetch strategy, or a payload
	// over the size limit.
	KindFetch Kind = "fetch"
	// KindProvider marks an explicit error payload from the speech backend.
	KindProvider Kind = "provider"
	// KindTimeout marks the poll attempt ceiling being exceeded.
	KindTimeout Kind = "timeout"
	// KindProtocol marks a response shape no variant matches.
	KindProtocol Kind = "protocol"
	// KindRefinement marks a refinement failure. Never fails the job.
	KindRefinement Kind = "refinement"
	// KindConfiguration marks a missing credential. Surfaced to the user
	// but not persisted to history.
	KindConfiguration Kind = "configuration"
	// KindPersistence marks a history write or delete failure.
	KindPersistence Kind = "persistence"
)

// Error is a classified pipeline failure with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a classified error with a user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a classification and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or KindProtocol when err carries
// none. A nil err has no kind and returns the empty string.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindProtocol
}

// MessageOf returns the user-facing message of err, falling back to
// err.Error() for unclassified errors and fallback for empty messages.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
