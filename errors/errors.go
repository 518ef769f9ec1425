// Package errors provides standardized error handling for the heatspace
// dataspace client. It includes error classification, standard error
// variables, and helper functions for consistent error wrapping across the
// discovery, reading, and access-request paths.
package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes.
type ErrorClass int

const (
	// ErrorUnreachable represents network, DNS, or timeout failures.
	ErrorUnreachable ErrorClass = iota
	// ErrorUnauthorized represents operations requiring a prior login.
	ErrorUnauthorized
	// ErrorNotFound represents documents that are missing remotely.
	ErrorNotFound
	// ErrorUnparseable represents documents that do not match the expected shape.
	ErrorUnparseable
	// ErrorInvalid represents values present but failing type or range coercion.
	ErrorInvalid
	// ErrorConflict represents caller-level business rule violations.
	ErrorConflict
	// ErrorRejected represents a non-success HTTP status on a write.
	ErrorRejected
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorUnreachable:
		return "unreachable"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorNotFound:
		return "not_found"
	case ErrorUnparseable:
		return "unparseable"
	case ErrorInvalid:
		return "invalid"
	case ErrorConflict:
		return "conflict"
	case ErrorRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions.
var (
	// Read path errors
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrEmptySource       = errors.New("source contains no readings")
	ErrNoValidReadings   = errors.New("no valid readings in source")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrNoSubject         = errors.New("document has no subject")

	// Write path errors
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrInboxNotConfigured = errors.New("owner inbox not configured")

	// Caller-level business rules
	ErrAlreadyIntegrated = errors.New("source already integrated")
)

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class      ErrorClass
	Err        error
	Message    string
	Component  string
	Operation  string
	StatusCode int
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsUnreachable checks if an error is a network-level failure.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection", "network", "no such host", "unavailable"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsUnauthorized checks if an error requires a prior login.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorUnauthorized
	}
	return errors.Is(err, ErrNotLoggedIn)
}

// IsRejected checks if an error is a rejected write.
func IsRejected(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorRejected
	}
	return false
}

// IsRecoverable reports whether an error belongs to the classes the
// federated read path recovers from locally by treating the affected
// branch as absent: unreachable, not found, unparseable, and invalid.
// Unauthorized, conflict, and rejected errors must surface to the caller.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		switch ce.Class {
		case ErrorUnreachable, ErrorNotFound, ErrorUnparseable, ErrorInvalid:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrNoSubject) {
		return true
	}

	return IsUnreachable(err)
}

// Classify returns the error class for an error. Unclassified errors
// default to unreachable so the best-effort read path treats them as
// a missing branch rather than a hard failure.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorUnreachable
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	switch {
	case errors.Is(err, ErrNotLoggedIn):
		return ErrorUnauthorized
	case errors.Is(err, ErrDocumentNotFound):
		return ErrorNotFound
	case errors.Is(err, ErrNoSubject):
		return ErrorUnparseable
	case errors.Is(err, ErrNoValidReadings):
		return ErrorInvalid
	case errors.Is(err, ErrAlreadyIntegrated):
		return ErrorConflict
	}

	return ErrorUnreachable
}

// StatusCode returns the HTTP status carried by a rejected write, or 0.
func StatusCode(err error) int {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

// newClassified creates a new classified error.
// This is an internal helper - use the Wrap* functions instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapUnreachable wraps an error as a network-level failure with context.
func WrapUnreachable(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorUnreachable, wrappedErr, component, method, wrappedErr.Error())
}

// WrapNotFound wraps an error as a missing document with context.
func WrapNotFound(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorNotFound, wrappedErr, component, method, wrappedErr.Error())
}

// WrapUnparseable wraps an error as a malformed document with context.
func WrapUnparseable(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorUnparseable, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as a failed value coercion with context.
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// WrapUnauthorized wraps an error as requiring a prior login.
func WrapUnauthorized(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorUnauthorized, wrappedErr, component, method, wrappedErr.Error())
}

// Rejected creates an error for a write refused with a non-success HTTP
// status. The status code is preserved for callers via StatusCode.
func Rejected(component, method string, status int) error {
	err := fmt.Errorf("%s.%s: request rejected (%d)", component, method, status)
	return &ClassifiedError{
		Class:      ErrorRejected,
		Err:        err,
		Message:    err.Error(),
		Component:  component,
		Operation:  method,
		StatusCode: status,
	}
}

// UserMessage returns a short, user-facing message for an error: the
// message of the outermost classified error when available, otherwise
// a generic fallback string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Something went wrong. Please try again."
}
