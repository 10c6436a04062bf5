// Package schoolmesh provides a high-level façade over the turn runner for a
// school-family assistant: a guardian asks questions in natural language and
// a routing layer hands each question to a specialised capability (grades,
// events, announcements, general questions) whose streamed or final answer
// is reduced to one plain-text reply.
//
// Most applications interact with this package by:
//  1. Building a router with capabilities (see capability.DefaultRouter)
//  2. Creating a SchoolMesh via New()
//  3. Creating a session per conversation and calling SendTurn
//
// The façade delegates execution to runner.Runner and keeps setup concise.
package schoolmesh

import (
	"context"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/logging"
	"github.com/hupe1980/schoolmesh/runner"
)

// Options configures the SchoolMesh instance.
type Options struct {
	// MaxConcurrentTurns limits the number of turns executing at once
	// across all sessions. Zero means unlimited.
	MaxConcurrentTurns int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// SchoolMesh is the high-level façade over the runner.
type SchoolMesh struct {
	runner *runner.Runner
}

// New creates a SchoolMesh dispatching turns through dispatcher, normally a
// *router.Router.
func New(dispatcher runner.Dispatcher, optFns ...func(o *Options)) *SchoolMesh {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(dispatcher, func(o *runner.Options) {
		o.MaxConcurrentTurns = opts.MaxConcurrentTurns
		o.Logger = opts.Logger
	})
	return &SchoolMesh{runner: r}
}

// CreateSession binds a new session with empty history to household.
func (m *SchoolMesh) CreateSession(household core.Household) *core.Session {
	return m.runner.CreateSession(household)
}

// SendTurn runs one conversational turn and returns the final answer. The
// caller must not run two turns on the same session concurrently.
func (m *SchoolMesh) SendTurn(ctx context.Context, sess *core.Session, utterance string, optFns ...func(o *runner.TurnOptions)) (string, error) {
	return m.runner.SendTurn(ctx, sess, utterance, optFns...)
}

// Turn is like SendTurn but also reports which capability answered.
func (m *SchoolMesh) Turn(ctx context.Context, sess *core.Session, utterance string, optFns ...func(o *runner.TurnOptions)) (runner.TurnResult, error) {
	return m.runner.Turn(ctx, sess, utterance, optFns...)
}

// Runner exposes the underlying runner.
func (m *SchoolMesh) Runner() *runner.Runner { return m.runner }
