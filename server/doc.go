// Package server is the HTTP transport of schoolmesh: a JSON chat endpoint,
// a websocket that streams fragments live, session history and reset, a
// health check and the embedded chat page.
//
// The server owns the session registry and runs every turn of a session
// under that session's lock. Core errors are mapped to status codes here;
// provider failures are recognised by their error text and reported as 503.
package server
