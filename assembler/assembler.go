// Package assembler reduces a capability reply (fragment stream plus deferred
// final transcript) into one plain-text answer.
//
// The reduction has two tiers. Fragments are drained in arrival order into an
// accumulator; if it holds any text the accumulator is the answer and the
// final transcript is never consulted. Otherwise the final transcript is
// awaited and the first text part of its most recent agent message is used.
// When neither source yields text the NoResponse sentinel is returned.
package assembler

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/logging"
)

// NoResponse is the answer used when a capability produced no text at all.
const NoResponse = "No response was generated."

// Source records which tier produced an answer.
type Source string

const (
	// SourceStream means the answer is the concatenated fragment stream.
	SourceStream Source = "stream"
	// SourceFinal means the answer came from the final transcript.
	SourceFinal Source = "final"
	// SourceSentinel means neither tier yielded text.
	SourceSentinel Source = "sentinel"
)

// State names the phases of one assembly:
//
//	awaiting_stream -> stream_complete -> done
//	                                   -> awaiting_final -> done
//	any phase -> failed
type State string

const (
	StateAwaitingStream State = "awaiting_stream"
	StateStreamComplete State = "stream_complete"
	StateAwaitingFinal  State = "awaiting_final"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Result is the outcome of a successful assembly.
type Result struct {
	Text      string
	Source    Source
	Fragments int
}

// Options configures a single Assemble call.
type Options struct {
	// OnFragment observes every fragment in arrival order.
	OnFragment func(core.Fragment)
	// OnState observes state transitions.
	OnState func(State)
	// Capability names the producer, used in errors and logs.
	Capability string
	Logger     logging.Logger
}

// Assemble drains reply and returns the final answer.
//
// Errors:
//   - a stream that ends with an error fails the turn, fragments already
//     consumed are discarded
//   - when the accumulator is empty a rejected Final fails the turn
//   - ctx cancellation discards the reply and returns ctx.Err()
//
// Stream and Final failures are returned as *core.CapabilityError.
func Assemble(ctx context.Context, reply *core.Reply, optFns ...func(o *Options)) (Result, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	a := &assembly{opts: opts}
	res, err := a.run(ctx, reply)
	if err != nil {
		a.transition(StateFailed)
		return Result{}, err
	}
	a.transition(StateDone)
	return res, nil
}

type assembly struct {
	opts Options
}

func (a *assembly) transition(s State) {
	if a.opts.OnState != nil {
		a.opts.OnState(s)
	}
}

func (a *assembly) run(ctx context.Context, reply *core.Reply) (Result, error) {
	a.transition(StateAwaitingStream)

	var acc strings.Builder
	count := 0
	fragments := reply.Fragments()

drain:
	for {
		select {
		case <-ctx.Done():
			reply.Discard()
			a.opts.Logger.Warn("assembler.stream.abandoned", "capability", a.opts.Capability, "fragments", count, "error", ctx.Err())
			return Result{}, ctx.Err()
		case f, ok := <-fragments:
			if !ok {
				break drain
			}
			count++
			acc.WriteString(f.Text)
			if a.opts.OnFragment != nil {
				a.opts.OnFragment(f)
			}
		}
	}

	if err := reply.StreamErr(); err != nil {
		a.opts.Logger.Error("assembler.stream.failed", "capability", a.opts.Capability, "fragments", count, "error", err)
		return Result{}, a.capabilityError(err)
	}

	a.transition(StateStreamComplete)
	a.opts.Logger.Debug("assembler.stream.complete", "capability", a.opts.Capability, "fragments", count, "chars", acc.Len())

	if acc.Len() > 0 {
		return Result{Text: acc.String(), Source: SourceStream, Fragments: count}, nil
	}

	a.transition(StateAwaitingFinal)

	msgs, err := reply.Final().Await(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			reply.Discard()
			a.opts.Logger.Warn("assembler.final.abandoned", "capability", a.opts.Capability, "error", ctxErr)
			return Result{}, ctxErr
		}
		a.opts.Logger.Error("assembler.final.failed", "capability", a.opts.Capability, "error", err)
		return Result{}, a.capabilityError(err)
	}

	if text, ok := ExtractFinalText(msgs); ok {
		return Result{Text: text, Source: SourceFinal, Fragments: count}, nil
	}

	a.opts.Logger.Info("assembler.empty_response", "capability", a.opts.Capability, "messages", len(msgs))
	return Result{Text: NoResponse, Source: SourceSentinel, Fragments: count}, nil
}

func (a *assembly) capabilityError(err error) error {
	var ce *core.CapabilityError
	if errors.As(err, &ce) {
		return err
	}
	return core.NewCapabilityError(a.opts.Capability, err)
}

// ExtractFinalText selects the most recent agent message and returns its
// first text part. Empty text counts as no text.
func ExtractFinalText(msgs []core.Message) (string, bool) {
	last, ok := core.LastAgentMessage(msgs)
	if !ok {
		return "", false
	}
	text, ok := last.FirstText()
	if !ok || text == "" {
		return "", false
	}
	return text, true
}
