package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	"github.com/harunnryd/kabu/internal/logger"
	"github.com/harunnryd/kabu/internal/model/contract"
)

const degradedAnswer = "I wasn't able to finish answering within the allowed number of tool rounds. " +
	"The partial results gathered so far are kept in this conversation; please narrow the question and try again."

// ModelClient is the single contract the planner requires from the
// language-model collaborator: full history plus tool catalog in, one
// assistant turn (optionally carrying tool calls) out.
type ModelClient interface {
	Complete(ctx context.Context, messages []contract.Message, tools []contract.ToolDef) (*contract.CompletionResponse, error)
}

// ToolDispatcher is what the planner needs from the dispatch side.
// *tool.Retrier satisfies it.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, call *contract.ToolCall) *contract.ToolResult
	Descriptors() []contract.ToolDef
}

// Planner drives the per-user-turn orchestration loop: model round,
// tool dispatches, model round again, until the model answers without
// tool calls or the round budget runs out.
type Planner struct {
	model     ModelClient
	tools     ToolDispatcher
	maxRounds int
	system    string
}

func NewPlanner(model ModelClient, tools ToolDispatcher, maxRounds int, systemPrompt string) *Planner {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Planner{
		model:     model,
		tools:     tools,
		maxRounds: maxRounds,
		system:    systemPrompt,
	}
}

// RunTurn appends the user turn and loops model rounds until a final
// answer. Tool calls are dispatched sequentially in the order the
// model emitted them; each result turn is appended before the next
// dispatch so later calls in the same round already see it. Every tool
// call is answered by exactly one tool turn before the next model
// round.
func (p *Planner) RunTurn(ctx context.Context, conv *Conversation, input string) (string, error) {
	conv.Append(contract.Message{Role: contract.RoleUser, Content: input})

	traceID := logger.GetTraceID(ctx)
	catalog := p.tools.Descriptors()

	for round := 1; round <= p.maxRounds; round++ {
		resp, err := p.model.Complete(ctx, p.promptMessages(conv), catalog)
		if err != nil {
			return "", kabuErrors.Wrap(err, "model round failed")
		}

		assistant := contract.Message{
			Role:      contract.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		ensureCallIDs(assistant.ToolCalls)
		conv.Append(assistant)

		if len(resp.ToolCalls) == 0 {
			slog.Debug("Turn complete", "rounds", round, "trace_id", traceID)
			return StripThinking(resp.Content), nil
		}

		slog.Info("Model requested tools", "round", round, "count", len(resp.ToolCalls), "trace_id", traceID)
		for _, call := range assistant.ToolCalls {
			result := p.tools.Dispatch(ctx, call)
			conv.Append(result.Message())
		}
	}

	// Round budget exhausted. Degrade the turn, never the process:
	// history keeps every intermediate turn and the loop ends with a
	// best-effort assistant answer.
	slog.Warn("Round limit exceeded",
		"max_rounds", p.maxRounds,
		"category", kabuErrors.Category(kabuErrors.ErrRoundLimit),
		"trace_id", traceID)
	conv.Append(contract.Message{Role: contract.RoleAssistant, Content: degradedAnswer})
	return degradedAnswer, nil
}

// promptMessages prepends the system prompt to the replayed history.
// The system turn is not part of the conversation log itself.
func (p *Planner) promptMessages(conv *Conversation) []contract.Message {
	history := conv.Snapshot()
	if p.system == "" {
		return history
	}
	messages := make([]contract.Message, 0, len(history)+1)
	messages = append(messages, contract.Message{Role: contract.RoleSystem, Content: p.system})
	return append(messages, history...)
}

// ensureCallIDs synthesizes correlation IDs for providers that omit
// them, so every result turn can still answer exactly one call.
func ensureCallIDs(calls []*contract.ToolCall) {
	for _, call := range calls {
		if call.ID == "" {
			call.ID = "call_" + uuid.NewString()
		}
	}
}
