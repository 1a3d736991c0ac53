package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classify adapter and pipeline failures. Wrap tags an error
// with one of these so the queue consumer can decide between redelivery and a
// terminal failure without inspecting adapter internals.
var (
	// ErrValidation marks malformed input to a synchronous call.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an unknown session, question, or document reference.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks missing or unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks infrastructure failures that queue redelivery may heal.
	ErrTransient = errors.New("transient failure")
	// ErrFatalResponse marks an adapter response that does not match its
	// expected schema. Never retried.
	ErrFatalResponse = errors.New("fatal response error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above; nil defaults to ErrTransient.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether queue redelivery can plausibly heal the error.
// Validation, not-found, configuration, and schema failures are terminal;
// everything else is treated as transient infrastructure trouble.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrFatalResponse):
		return false
	default:
		return true
	}
}

// FailureKind returns the taxonomy label for an error, for logging.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrFatalResponse):
		return "fatal_response"
	default:
		return "transient"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
