// Package http1 is the HTTP/1.1 transport collaborator for the outbound
// core: per-connection serialized writes, response head rendering, chunked
// transfer framing and minimal websocket text frames.
//
// A Conn funnels every wire write through one writer goroutine fed by a
// bounded lock-free queue, so writes reach the wire in enqueue order and
// producers see backpressure instead of unbounded buffering. A Response
// binds one exchange's status, reason and header block to the connection
// and implements outbound.Transport.
//
// Inbound parsing, connection pooling and websocket upgrade negotiation
// are out of scope here; the session layer owns the read side and the
// connection lifecycle.
package http1
