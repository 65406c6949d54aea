package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	"github.com/harunnryd/kabu/internal/model/contract"
)

func newTestDispatcher(t *testing.T, tools ...Tool) *Dispatcher {
	t.Helper()
	registry := NewRegistry()
	registry.MustRegister(tools...)
	return NewDispatcher(registry)
}

func TestDispatcherDispatch_OK(t *testing.T) {
	dispatcher := newTestDispatcher(t, &stubTool{
		name: "stock_price",
		parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"ticker": map[string]interface{}{"type": "string"}},
			"required":   []interface{}{"ticker"},
		},
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			return json.RawMessage(`{"price":190.5}`), nil
		},
	})

	call := &contract.ToolCall{ID: "call_1", Name: "stock_price", Input: `{"ticker":"AMD"}`}
	result, err := dispatcher.Dispatch(context.Background(), call)

	require.NoError(t, err)
	assert.Equal(t, contract.StatusOK, result.Status)
	assert.Equal(t, "call_1", result.ToolCallID)
	assert.JSONEq(t, `{"price":190.5}`, string(result.Payload))
}

func TestDispatcherDispatch_UnknownTool(t *testing.T) {
	dispatcher := newTestDispatcher(t, &stubTool{name: "stock_price"})

	call := &contract.ToolCall{ID: "call_2", Name: "fourier_patterns", Input: `{}`}
	result, err := dispatcher.Dispatch(context.Background(), call)

	// Unknown tools degrade to an error result, never an error return.
	require.NoError(t, err)
	assert.Equal(t, contract.StatusError, result.Status)
	assert.Equal(t, "call_2", result.ToolCallID)
	assert.Contains(t, result.Error, "unknown tool")

	// Dispatching the same bad call again yields the same outcome.
	again, err := dispatcher.Dispatch(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, result.Error, again.Error)
}

func TestDispatcherDispatch_ValidationFailure(t *testing.T) {
	executed := false
	dispatcher := newTestDispatcher(t, &stubTool{
		name: "stock_price",
		parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"ticker": map[string]interface{}{"type": "string"}},
			"required":   []interface{}{"ticker"},
		},
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			executed = true
			return nil, nil
		},
	})

	call := &contract.ToolCall{ID: "call_3", Name: "stock_price", Input: `{}`}
	result, err := dispatcher.Dispatch(context.Background(), call)

	require.NoError(t, err)
	assert.Equal(t, contract.StatusError, result.Status)
	assert.Contains(t, result.Error, "invalid input")
	assert.False(t, executed)
}

func TestDispatcherDispatch_TransientFailureReturnsError(t *testing.T) {
	dispatcher := newTestDispatcher(t, &stubTool{
		name: "stock_news",
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			return nil, kabuErrors.Transient("rate limited")
		},
	})

	call := &contract.ToolCall{ID: "call_4", Name: "stock_news", Input: `{}`}
	result, err := dispatcher.Dispatch(context.Background(), call)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, kabuErrors.IsRetryable(err))
}

func TestDispatcherDispatch_PermanentFailureDegrades(t *testing.T) {
	dispatcher := newTestDispatcher(t, &stubTool{
		name: "find_ticker",
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			return nil, kabuErrors.Permanent(`no tickers found for "xyzzy"`)
		},
	})

	call := &contract.ToolCall{ID: "call_5", Name: "find_ticker", Input: `{}`}
	result, err := dispatcher.Dispatch(context.Background(), call)

	require.NoError(t, err)
	assert.Equal(t, contract.StatusError, result.Status)
	assert.Contains(t, result.Error, "no tickers found")
}

func TestDispatcherDispatch_UnclassifiedErrorIsMapped(t *testing.T) {
	dispatcher := newTestDispatcher(t, &stubTool{
		name: "stock_details",
		execute: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			return nil, assert.AnError
		},
	})

	call := &contract.ToolCall{ID: "call_6", Name: "stock_details", Input: `{}`}
	result, err := dispatcher.Dispatch(context.Background(), call)

	// assert.AnError carries no transient markers, so it lands in the
	// permanent bucket and degrades to a result.
	require.NoError(t, err)
	assert.Equal(t, contract.StatusError, result.Status)
}
