package core

import (
	"sync"
	"time"
)

// Session is a stateful conversation handle bound to exactly one Household
// snapshot. It owns an ordered, append-only message history.
//
// Contract:
//   - History grows only through CommitTurn, one user and one agent message per
//     completed turn, so a session with k completed turns holds 2k messages
//   - History returns a defensive copy; capabilities never see the Session itself
//   - Turns must be serialised by the caller; the mutex only protects readers
//     (e.g. a history endpoint) against a concurrent commit.
type Session struct {
	id        string
	household Household
	history   []Message
	created   time.Time
	updated   time.Time
	mu        sync.RWMutex
}

// NewSession creates a session with the given id and an empty history.
func NewSession(id string, household Household) *Session {
	now := time.Now()
	return &Session{id: id, household: household, history: []Message{}, created: now, updated: now}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Household returns the context snapshot the session is bound to.
func (s *Session) Household() Household { return s.household }

// Created returns the creation time.
func (s *Session) Created() time.Time { return s.created }

// Updated returns the time of the last committed turn.
func (s *Session) Updated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// History returns a copy of the message history in chronological order.
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// CommitTurn appends a completed turn (user utterance then agent answer) in
// one step. It is called only once the answer has been fully assembled so a
// failed or abandoned turn leaves no trace in the history.
func (s *Session) CommitTurn(user, agent Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, user, agent)
	s.updated = time.Now()
}
