package model

import (
	"context"
	"fmt"

	"github.com/howtimeschange/honolulu/core"
)

// ToolDefinition declaratively exposes a callable capability to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual capability exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// Request captures the normalized provider input produced by the loop.
type Request struct {
	Instructions string           `json:"instructions"` // System instructions for the model
	Contents     []core.Content   `json:"contents"`     // Conversation history converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
	MaxTokens    int64            `json:"max_tokens,omitempty"` // 0 means provider default
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// DeltaType discriminates streaming chunk variants. Tool call deltas for one
// invocation concatenate into a single parseable argument payload; the payload
// is only complete once the matching DeltaToolCallEnd arrives.
type DeltaType string

const (
	// DeltaText carries an incremental assistant text fragment.
	DeltaText DeltaType = "text"
	// DeltaToolCallStart opens a tool invocation (id and name known).
	DeltaToolCallStart DeltaType = "tool_call_start"
	// DeltaToolCallDelta carries an argument payload fragment.
	DeltaToolCallDelta DeltaType = "tool_call_delta"
	// DeltaToolCallEnd closes a tool invocation; Arguments holds the full payload.
	DeltaToolCallEnd DeltaType = "tool_call_end"
)

// Delta is one streaming chunk. Exactly the fields relevant to Type are set:
// Text for DeltaText, CallID/Name for the tool call variants and Arguments
// for delta (fragment) and end (complete payload) chunks.
type Delta struct {
	Type      DeltaType `json:"type"`
	Text      string    `json:"text,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Arguments string    `json:"arguments,omitempty"`
}

// Response is a (partial or final) chunk emitted by a provider. Partial
// responses carry a Delta; the final response carries the assembled Content,
// the finish reason and usage when the provider reports it.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Delta        *Delta       `json:"delta,omitempty"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "gemini", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Provider is the uniform interface the router and the loop drive generation
// through. Generate returns a response stream plus an error channel; a failure
// before the first response surfaces only on the error channel. Both channels
// are closed when generation finishes.
type Provider interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the provider implementation.
	Info() Info
}

// MockProvider is a scriptable in-memory Provider for tests and examples.
// Responses are matched against the text of the last content entry; scripted
// turns (text, tool calls or errors) take precedence and are consumed in order.
type MockProvider struct {
	info      Info
	responses map[string]string
	script    []MockTurn
	calls     int
}

// MockTurn is one scripted generation outcome.
type MockTurn struct {
	Text      string
	ToolCalls []core.FunctionCall
	Err       error
}

// NewMockProvider constructs a MockProvider with tool support enabled.
func NewMockProvider(name, provider string) *MockProvider {
	return &MockProvider{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Script appends turns consumed one per Generate call before prompt matching.
func (m *MockProvider) Script(turns ...MockTurn) { m.script = append(m.script, turns...) }

// Calls returns how many times Generate has been invoked.
func (m *MockProvider) Calls() int { return m.calls }

// Generate implements Provider; emits optional streaming chunks then the final response.
func (m *MockProvider) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 32)
	errCh := make(chan error, 1)
	m.calls++

	var turn *MockTurn
	if len(m.script) > 0 {
		t := m.script[0]
		m.script = m.script[1:]
		turn = &t
	}

	go func() {
		defer close(respCh)
		defer close(errCh)

		if turn != nil && turn.Err != nil {
			errCh <- turn.Err
			return
		}

		var full string
		var calls []core.FunctionCall
		if turn != nil {
			full = turn.Text
			calls = turn.ToolCalls
		} else {
			if len(req.Contents) == 0 {
				errCh <- fmt.Errorf("no contents provided")
				return
			}
			last := req.Contents[len(req.Contents)-1]
			inputText := last.Text()
			full = m.responses[inputText]
			if full == "" {
				full = fmt.Sprintf("Mock response to: %s", inputText)
			}
		}

		if req.Stream && full != "" {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Delta:   &Delta{Type: DeltaText, Text: string(r)},
				}:
				}
			}
		}

		parts := []core.Part{}
		if full != "" {
			parts = append(parts, core.TextPart{Text: full})
		}
		finish := "stop"
		for _, fc := range calls {
			if req.Stream {
				respCh <- Response{Partial: true, Delta: &Delta{Type: DeltaToolCallStart, CallID: fc.ID, Name: fc.Name}}
				respCh <- Response{Partial: true, Delta: &Delta{Type: DeltaToolCallDelta, CallID: fc.ID, Arguments: fc.Arguments}}
				respCh <- Response{Partial: true, Delta: &Delta{Type: DeltaToolCallEnd, CallID: fc.ID, Name: fc.Name, Arguments: fc.Arguments}}
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
		}
		if len(calls) > 0 {
			finish = "tool_calls"
		}

		respCh <- Response{
			Partial:      false,
			Content:      core.Content{Role: "assistant", Parts: parts},
			FinishReason: finish,
		}
	}()

	return respCh, errCh
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
