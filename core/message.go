package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the producer of a Message.
type Role string

const (
	// RoleUser marks messages written by the person talking to the system.
	RoleUser Role = "user"
	// RoleAgent marks messages produced by a capability.
	RoleAgent Role = "agent"
	// RoleSystem marks instruction messages passed to models.
	RoleSystem Role = "system"
	// RoleTool marks tool/function results fed back to models.
	RoleTool Role = "tool"
)

// Message is the routed unit exchanged between the router, capabilities and
// the session history. Author names the capability that produced an agent
// message and is empty for user messages. After creation a Message should be
// treated as immutable.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Author    string    `json:"author,omitempty"`
	Parts     []Part    `json:"parts"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and UTC timestamp.
func NewMessage(role Role, author string, parts ...Part) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Author:    author,
		Parts:     parts,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, "", TextPart{Text: text})
}

// NewAgentMessage creates an agent message with a single text part authored
// by the named capability.
func NewAgentMessage(author, text string) Message {
	return NewMessage(RoleAgent, author, TextPart{Text: text})
}

// NewFunctionCallMessage records an agent requesting one or more tool calls.
func NewFunctionCallMessage(author string, calls ...FunctionCall) Message {
	parts := make([]Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, FunctionCallPart{FunctionCall: c})
	}
	return NewMessage(RoleAgent, author, parts...)
}

// NewFunctionResponseMessage captures the outcome of a previously requested
// tool call. If err is non-nil its message is copied into the response.
func NewFunctionResponseMessage(author, id, name string, result any, err error) Message {
	fr := FunctionResponse{ID: id, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	return NewMessage(RoleTool, author, FunctionResponsePart{FunctionResponse: fr})
}

// NewID generates a new unique identifier.
func NewID() string { return uuid.NewString() }

// FirstText returns the first text part of the message. The boolean reports
// whether the message carries any text part at all.
func (m Message) FirstText() (string, bool) {
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			return tp.Text, true
		}
	}
	return "", false
}

// Text concatenates every text part in order.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// FunctionCalls returns the function call parts preserving their order.
func (m Message) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range m.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// FunctionResponses returns the function response parts preserving their order.
func (m Message) FunctionResponses() []FunctionResponse {
	var responses []FunctionResponse
	for _, p := range m.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}

// LastAgentMessage returns the most recent message with RoleAgent.
func LastAgentMessage(msgs []Message) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAgent {
			return msgs[i], true
		}
	}
	return Message{}, false
}
