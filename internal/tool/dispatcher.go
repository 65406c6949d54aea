package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	"github.com/harunnryd/kabu/internal/logger"
	"github.com/harunnryd/kabu/internal/model/contract"
)

// Dispatcher resolves a requested tool call against the registry,
// validates its arguments, and runs the handler.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

func (d *Dispatcher) Descriptors() []contract.ToolDef {
	if d == nil || d.registry == nil {
		return nil
	}
	return d.registry.Descriptors()
}

// Dispatch runs one tool call to completion. Unknown tools, bad
// arguments, and permanent handler failures all degrade to an error
// result so the conversation can continue; the returned error is
// non-nil only for transient failures the retry layer may re-attempt
// (and for context cancellation).
func (d *Dispatcher) Dispatch(ctx context.Context, call *contract.ToolCall) (*contract.ToolResult, error) {
	name := NormalizeToolName(call.Name)

	t, ok := d.registry.Get(name)
	if !ok {
		slog.Warn("Requested tool is not registered", "tool", name, "trace_id", logger.GetTraceID(ctx))
		return errorResult(call, kabuErrors.UnknownTool(name)), nil
	}

	input := json.RawMessage(call.Input)
	if err := ValidateInput(t.Parameters(), input); err != nil {
		slog.Warn("Tool input validation failed", "tool", name, "error", err)
		return errorResult(call, err), nil
	}

	start := time.Now()
	traceID := logger.GetTraceID(ctx)
	slog.Info("Executing tool", "tool", name, "trace_id", traceID)

	payload, err := t.Execute(ctx, input)

	duration := time.Since(start)
	if err != nil {
		mapped := kabuErrors.MapUpstream(err)
		slog.Error("Tool execution failed",
			"tool", name,
			"category", kabuErrors.Category(mapped),
			"error", err,
			"duration", duration,
			"trace_id", traceID)

		if kabuErrors.IsRetryable(mapped) || ctx.Err() != nil {
			return nil, mapped
		}
		return errorResult(call, mapped), nil
	}

	slog.Info("Tool execution success", "tool", name, "duration", duration, "trace_id", traceID)
	return &contract.ToolResult{
		ToolCallID: call.ID,
		Name:       name,
		Status:     contract.StatusOK,
		Payload:    payload,
	}, nil
}

func errorResult(call *contract.ToolCall, err error) *contract.ToolResult {
	return &contract.ToolResult{
		ToolCallID: call.ID,
		Name:       NormalizeToolName(call.Name),
		Status:     contract.StatusError,
		Error:      err.Error(),
	}
}
