package core

import (
	"context"

	"github.com/hupe1980/schoolmesh/logging"
)

// Capability is a specialised agent answering a narrow class of utterances
// (grades, events, announcements, general questions).
//
// Invoke starts work for one turn and returns immediately with a Reply; the
// text is produced asynchronously on the reply's fragment stream and/or its
// Final transcript. Implementations must:
//   - Emit fragments that, concatenated, form a prefix of the final answer text
//   - Treat the invocation's Household and History as read-only
//   - Stop producing when ctx is cancelled or the reply is discarded
//   - Report failures through the reply (Fail) or the returned error, never both
type Capability interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, inv *Invocation) (*Reply, error)
}

// Invocation is the read-only view of a session a capability receives for
// one turn: the household snapshot, the history before this turn and the new
// utterance.
type Invocation struct {
	ID        string
	SessionID string
	Household Household
	History   []Message
	Utterance string

	*loggerAdapter
}

// NewInvocation builds an invocation with a fresh id. history is copied.
func NewInvocation(sessionID string, household Household, history []Message, utterance string, logger logging.Logger) *Invocation {
	return &Invocation{
		ID:            NewID(),
		SessionID:     sessionID,
		Household:     household,
		History:       append([]Message(nil), history...),
		Utterance:     utterance,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// LastAuthor returns the capability that produced the most recent agent
// message in the history, or "" when there is none.
func (inv *Invocation) LastAuthor() string {
	if m, ok := LastAgentMessage(inv.History); ok {
		return m.Author
	}
	return ""
}
