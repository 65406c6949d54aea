package command

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/shlex"

	"github.com/harunnryd/kabu/internal/model/contract"
	"github.com/harunnryd/kabu/internal/orchestrator"
)

// Handler serves the reserved chat commands that bypass the
// orchestration loop entirely: tools, clear, quit, help.
type Handler struct {
	conversation *orchestrator.Conversation
	catalog      func() []contract.ToolDef
}

func NewHandler(conversation *orchestrator.Conversation, catalog func() []contract.ToolDef) *Handler {
	return &Handler{
		conversation: conversation,
		catalog:      catalog,
	}
}

func (h *Handler) CanHandle(input string) bool {
	switch firstToken(input) {
	case "tools", "clear", "quit", "exit", "help":
		return true
	}
	return false
}

// Execute runs a reserved command. quit reports whether the chat
// session should terminate.
func (h *Handler) Execute(input string) (msg string, quit bool) {
	cmd := firstToken(input)
	slog.Debug("Executing chat command", "cmd", cmd)

	switch cmd {
	case "quit", "exit":
		return "Goodbye!", true

	case "clear":
		h.conversation.Clear()
		return "Conversation history cleared.", false

	case "tools":
		return h.toolList(), false

	case "help":
		return helpText, false

	default:
		return fmt.Sprintf("Unknown command: %s", cmd), false
	}
}

func (h *Handler) toolList() string {
	defs := h.catalog()
	if len(defs) == 0 {
		return "No tools registered."
	}

	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, def := range defs {
		fmt.Fprintf(&b, "  %-16s %s\n", def.Name, def.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

const helpText = "Commands:\n" +
	"  tools  list the available tools\n" +
	"  clear  reset the conversation history\n" +
	"  quit   exit the chat\n" +
	"Anything else is sent to the assistant."

func firstToken(input string) string {
	parts, err := shlex.Split(input)
	if err != nil {
		parts = strings.Fields(input)
	}
	if len(parts) != 1 {
		return ""
	}
	return strings.ToLower(parts[0])
}
