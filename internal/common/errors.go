// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy. Every failure that leaves a component is wrapped around one of these.
var (
	// ErrInvalidInput marks malformed or missing caller data. Fatal, surfaced immediately.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable marks missing storage or configuration. Fatal, not retried.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInferenceFailure marks an errored or unparseable semantic inference call.
	ErrInferenceFailure = errors.New("inference failure")
	// ErrMalformedContainer marks a document or spreadsheet that cannot be parsed at all.
	ErrMalformedContainer = &kindError{msg: "malformed container", kind: ErrInvalidInput}

	// ErrNotFound is returned by blob stores for unknown locators.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// kindError is a sentinel that also matches a broader taxonomy bucket.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// Kind returns the taxonomy bucket an error belongs to, or nil when it is unclassified.
func Kind(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput):
		return ErrInvalidInput
	case errors.Is(err, ErrInferenceFailure):
		return ErrInferenceFailure
	case errors.Is(err, ErrUpstreamUnavailable), errors.Is(err, ErrMissingConfig), errors.Is(err, ErrInvalidConfig):
		return ErrUpstreamUnavailable
	default:
		return nil
	}
}

// HTTPStatus maps an error onto the status code a transport should answer with.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case nil:
		if err == nil {
			return http.StatusOK
		}
		return http.StatusInternalServerError
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrInferenceFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// InvalidInput wraps a message into ErrInvalidInput.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
