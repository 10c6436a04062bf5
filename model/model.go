package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/schoolmesh/core"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction describes the concrete function target of a tool call.
type ToolCallFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input built by capabilities.
type Request struct {
	// Instructions is the system prompt; providers place it wherever their
	// API expects it.
	Instructions string `json:"instructions"`
	// Messages is the conversation so far, oldest first. Agent messages are
	// sent as assistant turns, tool messages as tool results.
	Messages []core.Message  `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial
// responses carry one text delta; the single final response carries the
// complete message including any function calls.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by capabilities to drive generation.
//
// Generate returns a response channel and an error channel; both are closed
// when generation ends. At most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ProviderRole maps a message role onto the role names chat APIs use.
func ProviderRole(r core.Role) string {
	switch r {
	case core.RoleAgent:
		return "assistant"
	default:
		return string(r)
	}
}

// ResponseText renders a tool result as the plain text providers expect.
func ResponseText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fmt.Sprintf(`{"error":%q}`, fr.Error)
	}
	switch v := fr.Response.(type) {
	case nil:
		return "null"
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// MockModel is a lightweight in-memory Model useful for tests and for running
// the service without provider credentials.
type MockModel struct {
	info      Info
	responses map[string]string
	mu        sync.RWMutex
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: false,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[strings.ToLower(strings.TrimSpace(prompt))] = response
}

// Generate implements Model. It answers the last user message, word by word
// when streaming, then emits the complete final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		var input string
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if req.Messages[i].Role == core.RoleUser {
				input = req.Messages[i].Text()
				break
			}
		}
		if input == "" {
			errCh <- fmt.Errorf("no user message provided")
			return
		}

		m.mu.RLock()
		full := m.responses[strings.ToLower(strings.TrimSpace(input))]
		m.mu.RUnlock()
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", input)
		}

		if req.Stream {
			for _, chunk := range splitKeep(full) {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Message: core.NewMessage(core.RoleAgent, "", core.TextPart{Text: chunk}),
				}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{
			Message:      core.NewMessage(core.RoleAgent, "", core.TextPart{Text: full}),
			FinishReason: "stop",
		}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// splitKeep splits s after every space so the chunks concatenate back to s.
func splitKeep(s string) []string {
	parts := strings.SplitAfter(s, " ")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
