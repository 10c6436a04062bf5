package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/schoolmesh/assembler"
	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/logging"
)

// Dispatcher selects and invokes the capability for an invocation.
// *router.Router implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv *core.Invocation) (core.Capability, *core.Reply, error)
}

// Options holds configuration overrides passed to New().
type Options struct {
	// MaxConcurrentTurns limits turns executing at once across all
	// sessions. Zero means unlimited.
	MaxConcurrentTurns int
	// Logger is also handed to capabilities through the invocation.
	Logger logging.Logger
}

// Runner executes turns against a Dispatcher. Public methods are safe for
// concurrent use across different sessions.
type Runner struct {
	dispatcher Dispatcher
	slots      chan struct{}
	logger     logging.Logger
}

// New constructs a Runner.
func New(dispatcher Dispatcher, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	r := &Runner{dispatcher: dispatcher, logger: opts.Logger}
	if opts.MaxConcurrentTurns > 0 {
		r.slots = make(chan struct{}, opts.MaxConcurrentTurns)
	}
	return r
}

// CreateSession binds a new session with empty history to household.
func (r *Runner) CreateSession(household core.Household) *core.Session {
	s := core.NewSession(core.NewID(), household)
	r.logger.Debug("session.created", "session_id", s.ID(), "dependents", len(household.Dependents()))
	return s
}

// TurnOptions configures one turn.
type TurnOptions struct {
	// OnFragment observes streamed fragments as they arrive.
	OnFragment func(core.Fragment)
}

// WithFragmentHandler streams fragments to fn while the turn runs.
func WithFragmentHandler(fn func(core.Fragment)) func(o *TurnOptions) {
	return func(o *TurnOptions) { o.OnFragment = fn }
}

// TurnResult describes a completed turn.
type TurnResult struct {
	Text       string
	Capability string
	Source     assembler.Source
	Fragments  int
	Duration   time.Duration
}

// SendTurn runs one turn and returns the final answer.
func (r *Runner) SendTurn(ctx context.Context, sess *core.Session, utterance string, optFns ...func(o *TurnOptions)) (string, error) {
	res, err := r.Turn(ctx, sess, utterance, optFns...)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Turn runs one turn and returns the answer with routing details.
//
// Errors: core.ErrEmptyUtterance for blank input, core.ErrNoCapability when
// nothing can answer, *core.CapabilityError when the capability fails and
// ctx.Err() when the caller abandons the turn. History is unchanged on error.
func (r *Runner) Turn(ctx context.Context, sess *core.Session, utterance string, optFns ...func(o *TurnOptions)) (TurnResult, error) {
	var opts TurnOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if sess == nil {
		return TurnResult{}, fmt.Errorf("session is nil")
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return TurnResult{}, core.ErrEmptyUtterance
	}

	if r.slots != nil {
		select {
		case r.slots <- struct{}{}:
			defer func() { <-r.slots }()
		case <-ctx.Done():
			return TurnResult{}, ctx.Err()
		}
	}

	start := time.Now()
	inv := core.NewInvocation(sess.ID(), sess.Household(), sess.History(), utterance, r.logger)
	r.logger.Info("turn.start", "session_id", sess.ID(), "invocation_id", inv.ID, "history", len(inv.History))

	c, reply, err := r.dispatcher.Dispatch(ctx, inv)
	if err != nil {
		r.logger.Error("turn.failed", "session_id", sess.ID(), "invocation_id", inv.ID, "stage", "dispatch", "error", err)
		return TurnResult{}, err
	}

	res, err := assembler.Assemble(ctx, reply, func(o *assembler.Options) {
		o.OnFragment = opts.OnFragment
		o.Capability = c.Name()
		o.Logger = r.logger
	})
	if err != nil {
		r.logger.Error("turn.failed", "session_id", sess.ID(), "invocation_id", inv.ID, "capability", c.Name(), "stage", "assemble", "error", err)
		return TurnResult{}, err
	}

	sess.CommitTurn(core.NewUserMessage(utterance), core.NewAgentMessage(c.Name(), res.Text))

	out := TurnResult{
		Text:       res.Text,
		Capability: c.Name(),
		Source:     res.Source,
		Fragments:  res.Fragments,
		Duration:   time.Since(start),
	}
	r.logger.Info("turn.complete",
		"session_id", sess.ID(),
		"invocation_id", inv.ID,
		"capability", out.Capability,
		"source", string(out.Source),
		"fragments", out.Fragments,
		"duration", out.Duration,
	)
	return out, nil
}
