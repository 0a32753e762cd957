package generation

import (
	"context"
	"fmt"
	"log"

	"github.com/deskwise/deskwise/provider"
)

// Tool is a capability the agent loop can expose to the model. Invoke
// receives the raw JSON arguments string produced by the model.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Invoke(ctx context.Context, arguments string) (string, error)
}

// AgentLoop drives a model/tool conversation until the model answers with
// plain text. Each cycle is one model call; tool calls requested in a cycle
// are executed and their results appended before the next call.
type AgentLoop struct {
	Provider  provider.Provider
	Tools     []Tool
	MaxCycles int
	Logger    *log.Logger
}

// Run starts a conversation from the given system and user prompts and
// returns the model's first plain-text answer. Tool failures are reported
// back to the model as tool results rather than aborting the run; provider
// failures abort. When the cycle budget runs out before a text answer the
// run fails with ErrLoopLimit.
func (a *AgentLoop) Run(ctx context.Context, system, user string) (string, error) {
	logger := a.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	max := a.MaxCycles
	if max <= 0 {
		max = 10
	}

	specs := make([]provider.ToolSpec, 0, len(a.Tools))
	byName := make(map[string]Tool, len(a.Tools))
	for _, t := range a.Tools {
		specs = append(specs, provider.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
		byName[t.Name()] = t
	}

	messages := []provider.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	for cycle := 0; cycle < max; cycle++ {
		completion, err := a.Provider.Chat(ctx, messages, specs)
		if err != nil {
			return "", fmt.Errorf("model call failed on cycle %d: %w", cycle+1, err)
		}
		if len(completion.ToolCalls) == 0 {
			return completion.Text, nil
		}

		messages = append(messages, provider.ChatMessage{
			Role:      "assistant",
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			result := a.dispatch(ctx, byName, call, logger)
			messages = append(messages, provider.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}
	return "", ErrLoopLimit
}

func (a *AgentLoop) dispatch(ctx context.Context, byName map[string]Tool, call provider.ToolCall, logger *log.Logger) string {
	tool, ok := byName[call.Name]
	if !ok {
		logger.Printf("model requested unknown tool %q", call.Name)
		return fmt.Sprintf("error: unknown tool %q", call.Name)
	}
	out, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		logger.Printf("tool %s failed: %v", call.Name, err)
		return fmt.Sprintf("error: %v", err)
	}
	return out
}
