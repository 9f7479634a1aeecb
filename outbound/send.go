package outbound

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"golang.org/x/text/encoding"
)

// Send returns a lazy task streaming seq as raw body payload, committing
// the status line and headers first if no other attempt has done so.
// Constructing the task touches neither the gate nor the transport; both
// happen when a consumer calls Do.
func (e *Exchange) Send(seq iter.Seq2[[]byte, error]) *Task {
	return e.bodyTask(func(ctx context.Context) error {
		return e.tr.StreamBytes(ctx, seq)
	})
}

// SendObjects is Send for opaque payload objects, routed through the
// transport's object path under the same gate sequencing.
func (e *Exchange) SendObjects(seq iter.Seq2[any, error]) *Task {
	return e.bodyTask(func(ctx context.Context) error {
		return e.tr.StreamObjects(ctx, seq)
	})
}

// SendText streams text chunks. On a websocket exchange each chunk becomes
// a TextFrame on the object path. Otherwise each chunk is encoded with enc
// (nil means UTF-8 passthrough) into one transport buffer on the byte path.
func (e *Exchange) SendText(seq iter.Seq2[string, error], enc encoding.Encoding) *Task {
	if e.websocket {
		return e.SendObjects(func(yield func(any, error) bool) {
			for s, err := range seq {
				if !yield(TextFrame{Text: s}, err) {
					return
				}
			}
		})
	}
	return e.Send(func(yield func([]byte, error) bool) {
		for s, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			b, encErr := e.encodeText(s, enc)
			if encErr != nil {
				yield(nil, encErr)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	})
}

// encodeText converts one chunk to bytes in a transport-allocated buffer.
func (e *Exchange) encodeText(s string, enc encoding.Encoding) ([]byte, error) {
	raw := []byte(s)
	if enc != nil {
		var err error
		raw, err = enc.NewEncoder().Bytes(raw)
		if err != nil {
			return nil, err
		}
	}
	return append(e.tr.AllocBuffer(len(raw)), raw...), nil
}

// SendHeaders returns a lazy task committing the status line and headers if
// not yet done. Once the gate is owned by any attempt, the task completes
// immediately without touching the transport: its only contract is that
// headers will be sent, which already holds.
func (e *Exchange) SendHeaders() *Task {
	return newTask(func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.tr.Disposed() {
			return ErrNotActive
		}
		if !e.gate.tryWin() {
			return nil
		}
		return e.commit(ctx)
	})
}

// bodyTask builds the sequenced-body unit: headers strictly precede body on
// the wire. The gate winner commits headers and publishes the outcome on
// the gate latch; every other attempt waits on the latch before streaming,
// so a failed commit blocks their body too and nothing is written out of
// order. The payload sequence is not consumed until the commit succeeded.
func (e *Exchange) bodyTask(stream func(ctx context.Context) error) *Task {
	return newTask(func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.tr.Disposed() {
			return ErrNotActive
		}
		if e.gate.tryWin() {
			if err := e.commit(ctx); err != nil {
				return err
			}
		} else if err := e.gate.wait(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrCommitHeaders, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stream(ctx); err != nil {
			e.meter.Counter("httpcore_body_stream_error_total", 1)
			return fmt.Errorf("%w: %w", ErrStreamBody, err)
		}
		return nil
	})
}

// commit performs the winner's header write and publishes the outcome.
func (e *Exchange) commit(ctx context.Context) error {
	err := e.tr.CommitHeaders(ctx)
	e.gate.finish(err)
	if err != nil {
		e.log.Warnf("%s: header commit failed: %v", e, err)
		e.meter.Counter("httpcore_header_commit_error_total", 1)
		return fmt.Errorf("%w: %w", ErrCommitHeaders, err)
	}
	e.log.Debugf("%s: headers committed", e)
	e.meter.Counter("httpcore_header_commit_total", 1)
	return nil
}
