package tool

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	"github.com/harunnryd/kabu/internal/model/contract"
)

func newTestRetrier(t *testing.T, maxAttempts int, backoff BackoffPolicy, tools ...Tool) (*Retrier, *[]time.Duration) {
	t.Helper()
	retrier := NewRetrier(newTestDispatcher(t, tools...), maxAttempts, backoff)

	var slept []time.Duration
	retrier.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return retrier, &slept
}

func TestRetrierDispatch_ExhaustsBudget(t *testing.T) {
	attempts := 0
	retrier, slept := newTestRetrier(t, 3, FixedBackoff{Interval: time.Second}, &stubTool{
		name: "stock_price",
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			attempts++
			return nil, kabuErrors.Transient("upstream returned 503")
		},
	})

	call := &contract.ToolCall{ID: "call_1", Name: "stock_price", Input: `{}`}
	result := retrier.Dispatch(context.Background(), call)

	assert.Equal(t, 3, attempts)
	assert.Len(t, *slept, 2)
	require.Equal(t, contract.StatusError, result.Status)
	assert.Contains(t, result.Error, "retries exhausted")
	assert.Contains(t, result.Error, "upstream returned 503")
}

func TestRetrierDispatch_SucceedsAfterTransient(t *testing.T) {
	attempts := 0
	retrier, _ := newTestRetrier(t, 3, FixedBackoff{Interval: time.Second}, &stubTool{
		name: "stock_price",
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			attempts++
			if attempts < 2 {
				return nil, kabuErrors.Transient("timeout")
			}
			return json.RawMessage(`{"price":101.5}`), nil
		},
	})

	call := &contract.ToolCall{ID: "call_2", Name: "stock_price", Input: `{}`}
	result := retrier.Dispatch(context.Background(), call)

	assert.Equal(t, 2, attempts)
	assert.Equal(t, contract.StatusOK, result.Status)
	assert.JSONEq(t, `{"price":101.5}`, string(result.Payload))
}

func TestRetrierDispatch_NonRetryableConsumesNoBudget(t *testing.T) {
	attempts := 0
	retrier, slept := newTestRetrier(t, 3, FixedBackoff{Interval: time.Second}, &stubTool{
		name: "find_ticker",
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			attempts++
			return nil, kabuErrors.Permanent("resource not found")
		},
	})

	call := &contract.ToolCall{ID: "call_3", Name: "find_ticker", Input: `{}`}
	result := retrier.Dispatch(context.Background(), call)

	assert.Equal(t, 1, attempts)
	assert.Empty(t, *slept)
	assert.Equal(t, contract.StatusError, result.Status)
	assert.Contains(t, result.Error, "resource not found")
}

func TestRetrierDispatch_UnknownToolPassesThrough(t *testing.T) {
	retrier, slept := newTestRetrier(t, 3, FixedBackoff{Interval: time.Second}, &stubTool{name: "stock_price"})

	call := &contract.ToolCall{ID: "call_4", Name: "missing", Input: `{}`}
	result := retrier.Dispatch(context.Background(), call)

	assert.Empty(t, *slept)
	assert.Equal(t, contract.StatusError, result.Status)
	assert.Contains(t, result.Error, "unknown tool")
}

func TestRetrierDispatch_CancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	retrier, _ := newTestRetrier(t, 5, FixedBackoff{Interval: time.Second}, &stubTool{
		name: "stock_news",
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			attempts++
			cancel()
			return nil, kabuErrors.Transient("connection reset")
		},
	})

	call := &contract.ToolCall{ID: "call_5", Name: "stock_news", Input: `{}`}
	result := retrier.Dispatch(ctx, call)

	assert.Equal(t, 1, attempts)
	assert.Equal(t, contract.StatusError, result.Status)
	assert.Contains(t, result.Error, "canceled")
}

func TestExponentialBackoff_DoublesAndCaps(t *testing.T) {
	backoff := ExponentialBackoff{Base: time.Second, Max: 5 * time.Second}

	assert.Equal(t, time.Second, backoff.Delay(1))
	assert.Equal(t, 2*time.Second, backoff.Delay(2))
	assert.Equal(t, 4*time.Second, backoff.Delay(3))
	assert.Equal(t, 5*time.Second, backoff.Delay(4))
	assert.Equal(t, 5*time.Second, backoff.Delay(10))
}
