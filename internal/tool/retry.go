package tool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/kabu/internal/model/contract"
)

// BackoffPolicy decides how long to wait before retry attempt n
// (1-based; attempt 1 is the first retry).
type BackoffPolicy interface {
	Delay(attempt int) time.Duration
}

// FixedBackoff waits the same interval between every attempt.
type FixedBackoff struct {
	Interval time.Duration
}

func (b FixedBackoff) Delay(int) time.Duration { return b.Interval }

// ExponentialBackoff doubles the base interval per attempt, capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Retrier wraps a Dispatcher with bounded retry for transient
// failures. Non-retryable outcomes (unknown tool, validation errors,
// permanent upstream failures) pass straight through without consuming
// any retry budget.
type Retrier struct {
	dispatcher  *Dispatcher
	maxAttempts int
	backoff     BackoffPolicy

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrier(dispatcher *Dispatcher, maxAttempts int, backoff BackoffPolicy) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff == nil {
		backoff = FixedBackoff{Interval: time.Second}
	}
	return &Retrier{
		dispatcher:  dispatcher,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       sleepContext,
	}
}

func (r *Retrier) Descriptors() []contract.ToolDef {
	return r.dispatcher.Descriptors()
}

// Dispatch always produces a result record; retry exhaustion and
// cancellation surface as error results, never as process faults.
func (r *Retrier) Dispatch(ctx context.Context, call *contract.ToolCall) *contract.ToolResult {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.dispatcher.Dispatch(ctx, call)
		if err == nil {
			return result
		}
		lastErr = err

		if ctx.Err() != nil {
			return errorResult(call, fmt.Errorf("canceled: %w", ctx.Err()))
		}
		if attempt == r.maxAttempts {
			break
		}

		delay := r.backoff.Delay(attempt)
		slog.Warn("Retrying tool call",
			"tool", call.Name,
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"delay", delay,
			"error", err)
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return errorResult(call, fmt.Errorf("canceled: %w", sleepErr))
		}
	}

	return errorResult(call, fmt.Errorf("retries exhausted: %w", lastErr))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
