package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for different categories
var (
	// ErrUnknownTool - the model referenced a tool name that is not registered
	// (degrades to an error result turn, never fatal)
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool - a tool name was registered twice at startup
	ErrDuplicateTool = errors.New("duplicate tool")

	// ErrInvalidInput - tool arguments failed schema validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient - transient upstream failure (timeout, rate limit); retryable
	ErrTransient = errors.New("transient error")

	// ErrPermanent - permanent upstream failure (e.g. unknown ticker); never retried
	ErrPermanent = errors.New("permanent error")

	// ErrRoundLimit - the planner hit its per-turn round budget
	ErrRoundLimit = errors.New("round limit exceeded")

	// ErrEmptyConversation - final text requested before any round completed;
	// a programming-contract violation, not a runtime condition
	ErrEmptyConversation = errors.New("empty conversation")

	// ErrInvalidModelOutput - model returned malformed structured output
	ErrInvalidModelOutput = errors.New("invalid model output")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to a specific category.
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// UnknownTool wraps a message as an unknown tool error.
func UnknownTool(message string) error {
	return fmt.Errorf("%s: %w", message, ErrUnknownTool)
}

// InvalidInput wraps a message as a validation error.
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transient wraps a message as a retryable error.
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// Permanent wraps a message as a non-retryable error.
func Permanent(message string) error {
	return fmt.Errorf("%s: %w", message, ErrPermanent)
}

// Internal wraps a message as an internal error.
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// IsRetryable reports whether re-attempting the same call could
// plausibly succeed. Only transient upstream failures qualify;
// validation and unknown-tool errors never consume retry budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransient)
}
