package model

import (
	"context"

	"github.com/harunnryd/kabu/internal/model/contract"
)

// Client binds a router to a default model name and satisfies the
// planner's ModelClient contract.
type Client struct {
	router    Router
	modelName string
}

func NewClient(router Router, modelName string) *Client {
	return &Client{router: router, modelName: modelName}
}

func (c *Client) Complete(ctx context.Context, messages []contract.Message, tools []contract.ToolDef) (*contract.CompletionResponse, error) {
	req := contract.CompletionRequest{
		Model:    c.modelName,
		Messages: messages,
		Tools:    tools,
	}
	return c.router.Route(ctx, c.modelName, req)
}
