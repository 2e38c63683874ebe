package output

import (
	"context"

	"pa-agent/internal/domain/entity"
)

// LLMPort is a chat completion endpoint with tool calling.
type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Tools       []entity.ToolDefinition
	Temperature float32
	// MaxTokens caps the completion; zero leaves it to the provider.
	MaxTokens int
}

type ChatResponse struct {
	Message      entity.Message
	Usage        entity.TokenUsage
	FinishReason string
}
