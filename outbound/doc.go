// Package outbound implements the outbound half of an HTTP
// response/request pipeline over a streaming, backpressure‑aware
// transport.
//
// Highlights
//   - Exactly‑once framing: the status line and headers are written
//     once, strictly before any body bytes, regardless of how many
//     concurrent send attempts race on the same Exchange.
//   - Lazy send units: Send, SendObjects, SendText and SendHeaders
//     each build a fresh Task with no side effects until a consumer
//     calls Do.
//   - Sequencing: racing body sends wait for the winner's header
//     commit outcome, so a failed commit never lets body bytes
//     through and nothing reaches the wire out of order.
//   - Text routing: on websocket exchanges text chunks become
//     TextFrame objects on the object path; on plain exchanges each
//     chunk is encoded into one transport buffer on the byte path.
//
// Quick start:
//
//	ex := outbound.New(tr, outbound.WithMethod("GET"), outbound.WithTarget("/stream"))
//	task := ex.Send(outbound.Buffers([]byte("hello")))
//	if err := task.Do(ctx); err != nil {
//	    // transport failure, or the exchange was already disposed
//	}
//
// The Transport collaborator owns framing byte layout, buffer
// allocation and per‑connection write serialization; see the http1
// package for the HTTP/1.1 implementation.
package outbound
