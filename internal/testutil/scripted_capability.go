package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/schoolmesh/core"
)

// ScriptedCapability is a capability that replays a fixed script: it emits
// Fragments, then either fails the stream with StreamErr or settles Final
// with the scripted transcript.
type ScriptedCapability struct {
	CapabilityName string
	Fragments      []string
	Final          []core.Message
	// LeaveFinalPending skips settling Final after a successful stream.
	LeaveFinalPending bool
	// StreamErr fails the reply after all fragments were emitted.
	StreamErr error
	// InvokeErr is returned from Invoke directly.
	InvokeErr error

	mu          sync.Mutex
	invocations []*core.Invocation
	emitErr     error
}

var _ core.Capability = (*ScriptedCapability)(nil)

// NewScriptedCapability returns a non-streaming capability answering text.
func NewScriptedCapability(name, text string) *ScriptedCapability {
	return &ScriptedCapability{
		CapabilityName: name,
		Final:          []core.Message{core.NewAgentMessage(name, text)},
	}
}

// Name returns the capability name.
func (s *ScriptedCapability) Name() string { return s.CapabilityName }

// Description returns a fixed description.
func (s *ScriptedCapability) Description() string { return "scripted " + s.CapabilityName }

// Invoke records inv and replays the script asynchronously.
func (s *ScriptedCapability) Invoke(ctx context.Context, inv *core.Invocation) (*core.Reply, error) {
	s.mu.Lock()
	s.invocations = append(s.invocations, inv)
	s.mu.Unlock()

	if s.InvokeErr != nil {
		return nil, s.InvokeErr
	}

	reply, w := core.NewReply(0)
	go func() {
		for _, f := range s.Fragments {
			if err := w.Emit(ctx, f); err != nil {
				s.mu.Lock()
				s.emitErr = err
				s.mu.Unlock()
				w.Fail(err)
				return
			}
		}
		if s.StreamErr != nil {
			w.Fail(s.StreamErr)
			return
		}
		w.CloseStream(nil)
		if !s.LeaveFinalPending {
			w.Resolve(s.Final...)
		}
	}()
	return reply, nil
}

// Calls returns how often Invoke was called.
func (s *ScriptedCapability) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invocations)
}

// LastInvocation returns the most recent invocation or nil.
func (s *ScriptedCapability) LastInvocation() *core.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.invocations) == 0 {
		return nil
	}
	return s.invocations[len(s.invocations)-1]
}

// EmitErr returns the error a blocked Emit reported, if any.
func (s *ScriptedCapability) EmitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitErr
}
