// Package runner drives single conversational turns.
//
// A turn validates the utterance, snapshots the session history into an
// invocation, lets the router select and invoke a capability, reduces the
// reply with the assembler and finally commits the user utterance and the
// answer to the session together. A failed or abandoned turn commits nothing,
// so after k successful turns a session holds exactly 2k messages.
//
// The Runner does not serialise turns: callers must ensure at most one turn
// per session is in flight (see session.InMemoryStore.Do).
package runner
