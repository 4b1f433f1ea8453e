// Package domainerrors provides coded errors shared by services and transports.
//
// Services return *Error values (optionally wrapping an underlying cause) so that
// transports can map outcomes without inspecting messages:
//
//	return dErrors.New(dErrors.CodeOutOfOrderEvent, "event timestamp precedes current status")
//	return dErrors.Wrap(err, dErrors.CodePersistence, "append duty status event")
//
// Callers test for an outcome with HasCode or Is.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error outcome.
type Code string

const (
	// Validation outcomes. Rejected synchronously, never retried automatically.
	CodeInvalidInput      Code = "invalid_input"
	CodeBadRequest        Code = "bad_request"
	CodeValidation        Code = "validation_error"
	CodeInvalidWindow     Code = "invalid_window"
	CodeUnsortedInput     Code = "unsorted_input"
	CodeOutOfOrderEvent   Code = "out_of_order_event"
	CodeRedundantStatus   Code = "redundant_status"
	CodeDuplicateSequence Code = "duplicate_sequence"

	// Infrastructure outcomes. Safe to retry with backoff.
	CodePersistence        Code = "persistence_error"
	CodeStorageUnavailable Code = "storage_unavailable"
	CodeTimeout            Code = "timeout"

	// Internal outcomes.
	CodeCacheInconsistency Code = "cache_inconsistency"
	CodeInvariantViolation Code = "invariant_violation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// Returns nil when err is nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias for HasCode kept for call sites that read better as a predicate.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost domain message, or "" for uncoded errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// Retryable reports whether the outcome is an infrastructure failure the caller may retry.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodePersistence, CodeStorageUnavailable, CodeTimeout:
		return true
	}
	return false
}

// IsValidation reports whether the outcome is an input rejection.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidInput, CodeBadRequest, CodeValidation, CodeInvalidWindow,
		CodeUnsortedInput, CodeOutOfOrderEvent, CodeRedundantStatus, CodeDuplicateSequence:
		return true
	}
	return false
}
