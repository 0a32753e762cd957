package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/deskwise/deskwise/config"
)

// ChatMessage is a single turn in a conversation with the model. Role is one
// of "system", "user", "assistant" or "tool". Tool result messages carry the
// ToolCallID they answer; assistant messages may carry the calls they issued.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is a function invocation requested by the model. Arguments is the
// raw JSON string exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes a tool exposed to the model. Parameters is a JSON
// schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Completion is one model response: either plain text, tool calls, or both.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Provider abstracts a chat-completion backend.
type Provider interface {
	Chat(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (Completion, error)
}

// NewProvider builds the configured backend. The API key falls back to the
// conventional environment variable when the config leaves it empty.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("openai provider: api key not configured")
		}
		return newOpenAIClient(key, cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
