package http1

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"dqx0.com/go/httpcore/outbound"
)

// Response is the per-exchange outbound transport over a Conn. Status,
// Reason, Header and the connection flags must be populated before the
// first send attempt; the outbound core guarantees CommitHeaders runs at
// most once per exchange.
type Response struct {
	conn *Conn

	Status    int
	Reason    string
	Header    Header
	KeepAlive bool
	// Websocket switches the object path to websocket text framing,
	// for exchanges upgraded on this connection.
	Websocket bool

	chunked bool
}

// NewResponse returns a Response for the connection's current cycle with
// status 200 and keep-alive enabled.
func NewResponse(conn *Conn) *Response {
	return &Response{conn: conn, Status: 200, Header: Header{}, KeepAlive: true}
}

// CommitHeaders renders and enqueues the status line and header block,
// then waits on a flush barrier so the outcome reflects the wire.
func (r *Response) CommitHeaders(ctx context.Context) error {
	if r.conn.Disposed() {
		return ErrConnClosed
	}
	r.chunked = r.decideChunked()
	head := r.conn.AllocBuffer(512)
	head = appendStatusLine(head, r.Status, r.Reason)
	head = appendHeaders(head, r.Header.Clone(), r.chunked, r.KeepAlive)
	if err := r.conn.Write(head); err != nil {
		return err
	}
	return r.conn.Flush(ctx)
}

// StreamBytes writes each buffer as body payload, chunk-framed when the
// response uses chunked transfer. It stops at the first error or once ctx
// is cancelled; writes already issued are not rolled back.
func (r *Response) StreamBytes(ctx context.Context, seq iter.Seq2[[]byte, error]) error {
	for b, err := range seq {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.writeBody(b); err != nil {
			return err
		}
	}
	return r.conn.Flush(ctx)
}

// StreamObjects writes opaque payload objects. An outbound.TextFrame
// becomes a websocket text frame on upgraded connections and a plain body
// chunk otherwise; []byte passes through the body path.
func (r *Response) StreamObjects(ctx context.Context, seq iter.Seq2[any, error]) error {
	for obj, err := range seq {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch v := obj.(type) {
		case outbound.TextFrame:
			if r.Websocket {
				frame := appendTextFrame(r.conn.AllocBuffer(len(v.Text)+maxFrameHeader), v.Text)
				if err := r.conn.Write(frame); err != nil {
					return err
				}
			} else if err := r.writeBody(append(r.conn.AllocBuffer(len(v.Text)), v.Text...)); err != nil {
				return err
			}
		case []byte:
			if err := r.writeBody(v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %T", ErrUnsupportedPayload, obj)
		}
	}
	return r.conn.Flush(ctx)
}

// Disposed reports whether the connection no longer accepts writes.
func (r *Response) Disposed() bool {
	return r.conn.Disposed()
}

// AllocBuffer delegates to the connection's pool.
func (r *Response) AllocBuffer(n int) []byte {
	return r.conn.AllocBuffer(n)
}

// SendInterim writes a 1xx informational head immediately. Interim
// responses legitimately precede the committed response head, so they
// bypass the exchange's send gate.
func (r *Response) SendInterim(ctx context.Context, status int) error {
	if status < 100 || status >= 200 {
		return fmt.Errorf("%w: %d", ErrInterimStatus, status)
	}
	head := appendStatusLine(r.conn.AllocBuffer(64), status, "")
	head = append(head, '\r', '\n')
	if err := r.conn.Write(head); err != nil {
		return err
	}
	return r.conn.Flush(ctx)
}

// Close terminates the body framing (the final chunk, when chunked) and
// flushes. It does not close the connection; that belongs to the session
// layer.
func (r *Response) Close(ctx context.Context) error {
	if r.chunked {
		if err := r.conn.Write(appendFinalChunk(r.conn.AllocBuffer(8))); err != nil {
			return err
		}
	}
	return r.conn.Flush(ctx)
}

func (r *Response) writeBody(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if r.chunked {
		framed := r.conn.AllocBuffer(len(b) + 16)
		framed = appendChunk(framed, b)
		return r.conn.Write(framed)
	}
	return r.conn.Write(b)
}

// decideChunked mirrors HTTP/1.1 framing rules: chunked transfer when the
// connection stays alive without an explicit Content-Length and the status
// allows a body.
func (r *Response) decideChunked() bool {
	if strings.EqualFold(r.Header.Get("Connection"), "close") {
		r.KeepAlive = false
	}
	if noResponseBody(r.Status) {
		return false
	}
	return r.KeepAlive && r.Header.Get("Content-Length") == ""
}

func noResponseBody(status int) bool {
	if status >= 100 && status < 200 {
		return true
	}
	return status == 204 || status == 304
}
