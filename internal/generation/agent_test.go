package generation

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/deskwise/deskwise/provider"
)

// scriptedProvider replays canned completions in order.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []provider.Completion
	err       error
	calls     int
	seen      [][]provider.ChatMessage
}

func (p *scriptedProvider) Chat(_ context.Context, messages []provider.ChatMessage, _ []provider.ToolSpec) (provider.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, append([]provider.ChatMessage(nil), messages...))
	if p.err != nil {
		return provider.Completion{}, p.err
	}
	if p.calls >= len(p.responses) {
		return provider.Completion{}, errors.New("scripted provider exhausted")
	}
	c := p.responses[p.calls]
	p.calls++
	return c, nil
}

type echoTool struct {
	name string
	err  error
}

func (t echoTool) Name() string               { return t.name }
func (t echoTool) Description() string        { return "echoes its arguments" }
func (t echoTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (t echoTool) Invoke(_ context.Context, arguments string) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return "echo: " + arguments, nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestAgentLoopReturnsTextImmediately(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Completion{{Text: "final answer"}}}
	loop := &AgentLoop{Provider: p, Logger: quietLogger()}

	out, err := loop.Run(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "final answer" {
		t.Fatalf("unexpected answer: %q", out)
	}
	if p.calls != 1 {
		t.Fatalf("expected 1 model call, got %d", p.calls)
	}
}

func TestAgentLoopExecutesToolsThenAnswers(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Completion{
		{ToolCalls: []provider.ToolCall{{ID: "call-1", Name: "echo", Arguments: `{"q":"hi"}`}}},
		{Text: "done"},
	}}
	loop := &AgentLoop{Provider: p, Tools: []Tool{echoTool{name: "echo"}}, Logger: quietLogger()}

	out, err := loop.Run(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "done" {
		t.Fatalf("unexpected answer: %q", out)
	}

	// The second call must carry the assistant tool request and its result.
	second := p.seen[1]
	last := second[len(second)-1]
	if last.Role != "tool" || last.ToolCallID != "call-1" {
		t.Fatalf("expected trailing tool message for call-1, got %+v", last)
	}
	if !strings.Contains(last.Content, "echo:") {
		t.Fatalf("tool result not threaded back: %q", last.Content)
	}
}

func TestAgentLoopFeedsToolErrorsBack(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Completion{
		{ToolCalls: []provider.ToolCall{{ID: "call-1", Name: "echo", Arguments: `{}`}}},
		{Text: "recovered"},
	}}
	loop := &AgentLoop{
		Provider: p,
		Tools:    []Tool{echoTool{name: "echo", err: errors.New("upstream 500")}},
		Logger:   quietLogger(),
	}

	out, err := loop.Run(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("tool failure must not abort the run: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("unexpected answer: %q", out)
	}
	second := p.seen[1]
	last := second[len(second)-1]
	if !strings.Contains(last.Content, "upstream 500") {
		t.Fatalf("tool error not reported to the model: %q", last.Content)
	}
}

func TestAgentLoopUnknownTool(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Completion{
		{ToolCalls: []provider.ToolCall{{ID: "call-1", Name: "nope", Arguments: `{}`}}},
		{Text: "ok"},
	}}
	loop := &AgentLoop{Provider: p, Logger: quietLogger()}

	if _, err := loop.Run(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("unknown tool must not abort the run: %v", err)
	}
	second := p.seen[1]
	last := second[len(second)-1]
	if !strings.Contains(last.Content, "unknown tool") {
		t.Fatalf("expected unknown-tool report, got %q", last.Content)
	}
}

func TestAgentLoopCycleLimit(t *testing.T) {
	var responses []provider.Completion
	for i := 0; i < 5; i++ {
		responses = append(responses, provider.Completion{
			ToolCalls: []provider.ToolCall{{ID: "c", Name: "echo", Arguments: `{}`}},
		})
	}
	p := &scriptedProvider{responses: responses}
	loop := &AgentLoop{Provider: p, Tools: []Tool{echoTool{name: "echo"}}, MaxCycles: 3, Logger: quietLogger()}

	_, err := loop.Run(context.Background(), "sys", "user")
	if !errors.Is(err, ErrLoopLimit) {
		t.Fatalf("expected ErrLoopLimit, got %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("expected exactly 3 model calls, got %d", p.calls)
	}
}

func TestAgentLoopProviderErrorPropagates(t *testing.T) {
	wrapped := errors.New("rate limited")
	p := &scriptedProvider{err: wrapped}
	loop := &AgentLoop{Provider: p, Logger: quietLogger()}

	_, err := loop.Run(context.Background(), "sys", "user")
	if !errors.Is(err, wrapped) {
		t.Fatalf("expected provider error to propagate, got %v", err)
	}
}
