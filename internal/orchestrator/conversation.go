package orchestrator

import (
	"sync"

	"github.com/harunnryd/kabu/internal/model/contract"
)

// Conversation is the append-only turn log for one chat session. Turn
// order is semantically meaningful: the log is replayed verbatim to
// the model on every round. Clear is the only destructive mutation.
type Conversation struct {
	mu    sync.RWMutex
	turns []contract.Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

func (c *Conversation) Append(turn contract.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
}

// Snapshot returns a copy of the turn log. Mutating the returned slice
// does not affect the conversation.
func (c *Conversation) Snapshot() []contract.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]contract.Message, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Clear discards all history. This is the user-visible "clear"
// operation and must always be explicit, never implicit.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}
