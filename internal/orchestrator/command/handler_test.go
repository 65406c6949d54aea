package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/kabu/internal/model/contract"
	"github.com/harunnryd/kabu/internal/orchestrator"
)

func newTestHandler(defs []contract.ToolDef) (*Handler, *orchestrator.Conversation) {
	conv := orchestrator.NewConversation()
	return NewHandler(conv, func() []contract.ToolDef { return defs }), conv
}

func TestHandlerCanHandle(t *testing.T) {
	handler, _ := newTestHandler(nil)

	assert.True(t, handler.CanHandle("tools"))
	assert.True(t, handler.CanHandle("  TOOLS  "))
	assert.True(t, handler.CanHandle("clear"))
	assert.True(t, handler.CanHandle("quit"))
	assert.True(t, handler.CanHandle("exit"))
	assert.True(t, handler.CanHandle("help"))

	// Reserved words inside a sentence go to the assistant.
	assert.False(t, handler.CanHandle("clear up the AMD situation"))
	assert.False(t, handler.CanHandle("what tools do you have?"))
	assert.False(t, handler.CanHandle("price of AAPL"))
}

func TestHandlerExecute_Quit(t *testing.T) {
	handler, _ := newTestHandler(nil)

	msg, quit := handler.Execute("quit")
	assert.True(t, quit)
	assert.NotEmpty(t, msg)

	_, quit = handler.Execute("exit")
	assert.True(t, quit)
}

func TestHandlerExecute_Clear(t *testing.T) {
	handler, conv := newTestHandler(nil)
	conv.Append(contract.Message{Role: contract.RoleUser, Content: "remember this"})
	require.Equal(t, 1, conv.Len())

	msg, quit := handler.Execute("clear")
	assert.False(t, quit)
	assert.Contains(t, msg, "cleared")
	assert.Equal(t, 0, conv.Len())
}

func TestHandlerExecute_Tools(t *testing.T) {
	handler, _ := newTestHandler([]contract.ToolDef{
		{Name: "find_ticker", Description: "Resolve a company name to a ticker."},
		{Name: "stock_price", Description: "Get the latest quote."},
	})

	msg, quit := handler.Execute("tools")
	assert.False(t, quit)
	assert.Contains(t, msg, "find_ticker")
	assert.Contains(t, msg, "stock_price")
	assert.Contains(t, msg, "Resolve a company name")
}

func TestHandlerExecute_ToolsEmpty(t *testing.T) {
	handler, _ := newTestHandler(nil)

	msg, _ := handler.Execute("tools")
	assert.Equal(t, "No tools registered.", msg)
}
