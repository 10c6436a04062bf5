package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hupe1980/schoolmesh/core"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

type entry struct {
	sess *core.Session
	// turn is a one-slot semaphore held while a turn runs.
	turn chan struct{}
}

// InMemoryStore is a process local registry of sessions. It is safe for
// concurrent access.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*entry)}
}

// Create starts a new session with a fresh id bound to household.
func (s *InMemoryStore) Create(household core.Household) *core.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(core.NewID(), household)
}

// GetOrCreate returns the session with id, creating it bound to household
// when it does not exist. An empty id always creates a session. The boolean
// reports whether a session was created.
func (s *InMemoryStore) GetOrCreate(id string, household core.Household) (*core.Session, bool) {
	if id != "" {
		s.mu.RLock()
		e, ok := s.entries[id]
		s.mu.RUnlock()
		if ok {
			return e.sess, false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = core.NewID()
	} else if e, ok := s.entries[id]; ok {
		return e.sess, false
	}
	return s.createLocked(id, household), true
}

// Get returns the session with id.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.sess, nil
}

// Reset replaces the session with an empty one bound to the same household
// and id. A turn already running keeps committing to the old value; run
// Reset inside Do to order it after in-flight turns.
func (s *InMemoryStore) Reset(id string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.sess = core.NewSession(id, e.sess.Household())
	return e.sess, nil
}

// Delete removes the session. It reports whether the session existed.
func (s *InMemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns the live session ids in sorted order.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Do runs fn with the current session while holding that session's turn
// lock, so at most one fn per session runs at a time. Waiting for the lock
// honours ctx.
func (s *InMemoryStore) Do(ctx context.Context, id string, fn func(sess *core.Session) error) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	select {
	case e.turn <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.turn }()

	s.mu.RLock()
	sess := e.sess
	s.mu.RUnlock()
	return fn(sess)
}

// createLocked allocates and stores a new session; caller must hold the
// write lock.
func (s *InMemoryStore) createLocked(id string, household core.Household) *core.Session {
	sess := core.NewSession(id, household)
	s.entries[id] = &entry{sess: sess, turn: make(chan struct{}, 1)}
	return sess
}
