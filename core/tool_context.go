package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/schoolmesh/logging"
)

// ToolContext provides a constrained surface for tool / function
// implementations invoked by a model-backed capability. Tools can read the
// household and history of the invocation but cannot touch the session.
type ToolContext struct {
	ctx            context.Context
	inv            *Invocation
	capability     string
	functionCallID string

	*loggerAdapter
}

// NewToolContext binds a tool call to its invocation.
func NewToolContext(ctx context.Context, inv *Invocation, capability, functionCallID string) *ToolContext {
	var logger logging.Logger
	if inv != nil && inv.loggerAdapter != nil {
		logger = inv.Logger()
	}
	return &ToolContext{
		ctx:            ctx,
		inv:            inv,
		capability:     capability,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// SessionID returns the session the tool runs for.
func (tc *ToolContext) SessionID() string { return tc.inv.SessionID }

// InvocationID returns the id of the capability invocation.
func (tc *ToolContext) InvocationID() string { return tc.inv.ID }

// Capability returns the name of the capability calling the tool.
func (tc *ToolContext) Capability() string { return tc.capability }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Household returns the read-only household snapshot.
func (tc *ToolContext) Household() Household { return tc.inv.Household }

// History returns a copy of the history preceding the current turn.
func (tc *ToolContext) History() []Message {
	return append([]Message(nil), tc.inv.History...)
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.ctx == nil || tc.inv == nil || tc.functionCallID == "" {
		return fmt.Errorf("invalid tool context")
	}
	return nil
}
