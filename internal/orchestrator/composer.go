package orchestrator

import (
	"strings"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	"github.com/harunnryd/kabu/internal/model/contract"
)

// FinalText extracts the displayable text of the last assistant turn.
// Calling it before any round has completed is a programming error,
// reported as ErrEmptyConversation.
func FinalText(conv *Conversation) (string, error) {
	turns := conv.Snapshot()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == contract.RoleAssistant {
			return StripThinking(turns[i].Content), nil
		}
	}
	return "", kabuErrors.ErrEmptyConversation
}

// StripThinking removes <think>...</think> blocks some local models
// (qwen family) emit before their visible answer.
func StripThinking(text string) string {
	for {
		start := strings.Index(text, "<think>")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], "</think>")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+end+len("</think>"):]
	}
	return strings.TrimSpace(text)
}
