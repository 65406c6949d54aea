package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MapUpstream maps errors coming back from external data sources and
// providers onto the kabu taxonomy so the retry layer can interpret them.
func MapUpstream(err error) error {
	if err == nil {
		return nil
	}

	// Propagate context cancellation as-is
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", ErrTransient)
	}

	// Already classified
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrPermanent) ||
		errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnknownTool) {
		return err
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "too many requests"), strings.Contains(errStr, "429"):
		return fmt.Errorf("rate limited: %w", ErrTransient)

	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return fmt.Errorf("request timeout: %w", ErrTransient)

	case strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"), strings.Contains(errStr, "unreachable"), strings.Contains(errStr, "eof"):
		return fmt.Errorf("network error: %w", ErrTransient)

	case strings.Contains(errStr, "service unavailable"), strings.Contains(errStr, "bad gateway"), strings.Contains(errStr, "internal server error"):
		return fmt.Errorf("upstream unavailable: %w", ErrTransient)

	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no tickers"), strings.Contains(errStr, "unknown symbol"), strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("resource not found: %w", ErrPermanent)

	case strings.Contains(errStr, "invalid input"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid request"):
		return fmt.Errorf("invalid request: %w", ErrInvalidInput)

	default:
		return fmt.Errorf("upstream failure: %w", ErrPermanent)
	}
}

// Category returns the taxonomy name for an error, for logging.
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnknownTool):
		return "ErrUnknownTool"
	case errors.Is(err, ErrDuplicateTool):
		return "ErrDuplicateTool"
	case errors.Is(err, ErrInvalidInput):
		return "ErrInvalidInput"
	case errors.Is(err, ErrTransient):
		return "ErrTransient"
	case errors.Is(err, ErrPermanent):
		return "ErrPermanent"
	case errors.Is(err, ErrRoundLimit):
		return "ErrRoundLimit"
	case errors.Is(err, ErrEmptyConversation):
		return "ErrEmptyConversation"
	case errors.Is(err, ErrInvalidModelOutput):
		return "ErrInvalidModelOutput"
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	default:
		return "Unknown"
	}
}
