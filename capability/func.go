package capability

import (
	"context"

	"github.com/hupe1980/schoolmesh/core"
)

// Func adapts a plain Go function to a non-streaming capability. The
// function's result becomes the single agent message of the transcript.
type Func struct {
	name        string
	description string
	fn          func(ctx context.Context, inv *core.Invocation) (string, error)
}

var _ core.Capability = (*Func)(nil)

// NewFunc creates a function capability.
func NewFunc(name, description string, fn func(ctx context.Context, inv *core.Invocation) (string, error)) *Func {
	return &Func{name: name, description: description, fn: fn}
}

// Name returns the capability name.
func (f *Func) Name() string { return f.name }

// Description returns the capability description.
func (f *Func) Description() string { return f.description }

// Invoke runs the function in the background and resolves Final with its answer.
func (f *Func) Invoke(ctx context.Context, inv *core.Invocation) (*core.Reply, error) {
	reply, w := core.NewReply(0)
	go func() {
		text, err := f.fn(ctx, inv)
		if err != nil {
			w.Fail(err)
			return
		}
		w.CloseStream(nil)
		w.Resolve(core.NewAgentMessage(f.name, text))
	}()
	return reply, nil
}
