package assembler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmesh/core"
)

// streamReply emits fragments from a goroutine, then closes the stream with
// streamErr and (optionally) settles Final.
func streamReply(fragments []string, streamErr error, final []core.Message, resolve bool) *core.Reply {
	reply, w := core.NewReply(0)
	go func() {
		ctx := context.Background()
		for _, f := range fragments {
			if err := w.Emit(ctx, f); err != nil {
				return
			}
		}
		w.CloseStream(streamErr)
		if streamErr != nil {
			w.Reject(streamErr)
			return
		}
		if resolve {
			w.Resolve(final...)
		}
	}()
	return reply
}

func TestAssemble_StreamTakesPrecedence(t *testing.T) {
	fragments := []string{"Maya ", "is in ", "grade 4."}
	final := []core.Message{core.NewAgentMessage("grades", "something else entirely")}

	var seen []core.Fragment
	res, err := Assemble(context.Background(), streamReply(fragments, nil, final, true), func(o *Options) {
		o.OnFragment = func(f core.Fragment) { seen = append(seen, f) }
	})

	require.NoError(t, err)
	assert.Equal(t, strings.Join(fragments, ""), res.Text)
	assert.Equal(t, SourceStream, res.Source)
	assert.Equal(t, 3, res.Fragments)
	require.Len(t, seen, 3)
	for i, f := range seen {
		assert.Equal(t, i, f.Seq)
		assert.Equal(t, fragments[i], f.Text)
	}
}

func TestAssemble_StreamWithoutFinalResolution(t *testing.T) {
	// Final is never settled; a non-empty accumulator must not wait for it.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := Assemble(ctx, streamReply([]string{"hi"}, nil, nil, false))
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Text)
}

func TestAssemble_NoFragmentFallback(t *testing.T) {
	reply := core.ResolvedReply(core.NewAgentMessage("general", "X"))

	res, err := Assemble(context.Background(), reply)
	require.NoError(t, err)
	assert.Equal(t, "X", res.Text)
	assert.Equal(t, SourceFinal, res.Source)
}

func TestAssemble_EmptyFragmentsFallBackToFinal(t *testing.T) {
	final := []core.Message{core.NewAgentMessage("general", "from final")}

	res, err := Assemble(context.Background(), streamReply([]string{"", ""}, nil, final, true))
	require.NoError(t, err)
	assert.Equal(t, "from final", res.Text)
	assert.Equal(t, 2, res.Fragments)
}

func TestAssemble_UsesMostRecentAgentMessage(t *testing.T) {
	reply := core.ResolvedReply(
		core.NewAgentMessage("general", "first"),
		core.NewFunctionResponseMessage("general", "call-1", "lookup", "ok", nil),
		core.NewMessage(core.RoleAgent, "general", core.DataPart{Data: map[string]any{"k": 1}}, core.TextPart{Text: "second"}, core.TextPart{Text: "third"}),
		core.NewUserMessage("not an agent"),
	)

	res, err := Assemble(context.Background(), reply)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Text)
}

func TestAssemble_Sentinel(t *testing.T) {
	tests := []struct {
		name  string
		reply *core.Reply
	}{
		{"empty transcript", core.ResolvedReply()},
		{"no agent message", core.ResolvedReply(core.NewUserMessage("hello"))},
		{"agent without text part", core.ResolvedReply(core.NewFunctionCallMessage("grades", core.FunctionCall{ID: "1", Name: "lookup"}))},
		{"agent with empty text", core.ResolvedReply(core.NewAgentMessage("grades", ""))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Assemble(context.Background(), tt.reply)
			require.NoError(t, err)
			assert.Equal(t, NoResponse, res.Text)
			assert.Equal(t, SourceSentinel, res.Source)
			assert.NotEmpty(t, res.Text)
		})
	}
}

func TestAssemble_StreamFailureAfterFragments(t *testing.T) {
	boom := errors.New("provider dropped connection")

	res, err := Assemble(context.Background(), streamReply([]string{"one", "two"}, boom, nil, false), func(o *Options) {
		o.Capability = "events"
	})

	require.Error(t, err)
	assert.Empty(t, res.Text)
	assert.ErrorIs(t, err, boom)

	var ce *core.CapabilityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "events", ce.Capability)
}

func TestAssemble_FinalRejected(t *testing.T) {
	boom := errors.New("model not found")

	_, err := Assemble(context.Background(), core.FailedReply(boom))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestAssemble_CancelWhileStreaming(t *testing.T) {
	reply, w := core.NewReply(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	emitErr := make(chan error, 1)
	go func() {
		_ = w.Emit(context.Background(), "partial")
		<-done
		emitErr <- w.Emit(context.Background(), "too late")
	}()

	var states []State
	var err error
	go func() {
		defer close(done)
		_, err = Assemble(ctx, reply, func(o *Options) {
			o.OnFragment = func(core.Fragment) { cancel() }
			o.OnState = func(s State) { states = append(states, s) }
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("assemble did not return after cancellation")
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []State{StateAwaitingStream, StateFailed}, states)
	assert.ErrorIs(t, <-emitErr, core.ErrReplyDiscarded)
}

func TestAssemble_CancelWhileAwaitingFinal(t *testing.T) {
	reply, w := core.NewReply(0)
	w.CloseStream(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Assemble(ctx, reply)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAssemble_StateTransitions(t *testing.T) {
	var states []State
	_, err := Assemble(context.Background(), core.ResolvedReply(core.NewAgentMessage("a", "b")), func(o *Options) {
		o.OnState = func(s State) { states = append(states, s) }
	})
	require.NoError(t, err)
	assert.Equal(t, []State{StateAwaitingStream, StateStreamComplete, StateAwaitingFinal, StateDone}, states)
}
