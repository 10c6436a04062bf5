// Package session keeps the live core.Session values of a process and
// serialises turns per session. The core never locks across a turn; callers
// that can receive concurrent requests for one session (the HTTP server, the
// websocket handler) run each turn inside InMemoryStore.Do.
//
// Sessions are volatile and lost on restart.
package session
