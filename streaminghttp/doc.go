// Package streaminghttp is the HTTP transport binding. It speaks plain JSON
// over POST /mcp for request/response exchange, Server-Sent Events over
// GET /mcp for server-initiated notifications, and DELETE /mcp for explicit
// session termination. Session identity travels in the Mcp-Session-Id header;
// bearer credentials in the Authorization header are bound to the session on
// every request that carries them.
//
// The handler is transport only: all protocol semantics live in the engine,
// which it shares with the stdio binding.
package streaminghttp
