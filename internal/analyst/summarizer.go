package analyst

import (
	"context"
	"encoding/json"
	"log/slog"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	"github.com/harunnryd/kabu/internal/model"
	"github.com/harunnryd/kabu/internal/model/contract"
	"github.com/harunnryd/kabu/internal/orchestrator"
)

// Summarizer condenses raw stock-data payloads into analyst prose via
// a dedicated model pass, so downstream consumers receive a readable
// digest instead of a wall of JSON.
type Summarizer struct {
	router    model.Router
	modelName string
	system    string
}

func NewSummarizer(router model.Router, modelName, systemPrompt string) *Summarizer {
	return &Summarizer{
		router:    router,
		modelName: modelName,
		system:    systemPrompt,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, sections json.RawMessage) (string, error) {
	pretty := sections
	if indented, err := indent(sections); err == nil {
		pretty = indented
	}

	req := contract.CompletionRequest{
		Model: s.modelName,
		Messages: []contract.Message{
			{Role: contract.RoleSystem, Content: s.system},
			{Role: contract.RoleUser, Content: "Here is the stock data as JSON. Summarize every section with its actual figures:\n" + string(pretty)},
		},
	}

	resp, err := s.router.Route(ctx, s.modelName, req)
	if err != nil {
		return "", kabuErrors.Wrap(err, "summarize stock data")
	}

	text := orchestrator.StripThinking(resp.Content)
	if text == "" {
		return "", kabuErrors.Permanent("model returned no content")
	}

	slog.Debug("Summarized tool payload", "model", s.modelName, "bytes_in", len(sections), "bytes_out", len(text))
	return text, nil
}

func indent(raw json.RawMessage) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}
