package outbound

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"dqx0.com/go/httpcore/internal/obs"
)

// Transport is the connection-side collaborator an Exchange writes through.
// Implementations must serialize all writes for one connection; the
// exchange guarantees CommitHeaders is invoked at most once and that its
// successful completion precedes every Stream* invocation it sequences.
type Transport interface {
	// CommitHeaders writes the status/request line and headers.
	CommitHeaders(ctx context.Context) error
	// StreamBytes writes each buffer of the sequence as body payload.
	// The sequence must not be consumed past the first error or after
	// ctx is cancelled.
	StreamBytes(ctx context.Context, seq iter.Seq2[[]byte, error]) error
	// StreamObjects writes opaque payload objects, e.g. TextFrame.
	StreamObjects(ctx context.Context, seq iter.Seq2[any, error]) error
	// Disposed reports whether the connection resource has been released
	// or errored. Once true, no send may proceed.
	Disposed() bool
	// AllocBuffer returns a zero-length buffer with capacity at least n.
	AllocBuffer(n int) []byte
}

// TextFrame is an opaque payload object carrying one text chunk. On
// websocket exchanges SendText routes chunks through the object path as
// TextFrames and the transport frames them as text frames.
type TextFrame struct {
	Text string
}

// Exchange is the outbound half of one HTTP request/response cycle bound
// to one transport connection. The zero value is not usable; use New.
//
// The exchange owns no connection state beyond the send gate; disposal is
// sourced from the transport and the exchange is discarded by the session
// layer when the cycle ends.
type Exchange struct {
	tr        Transport
	id        uuid.UUID
	method    string
	target    string
	websocket bool

	gate sendGate

	log   logging.LeveledLogger
	meter obs.Meter
}

// Option configures an Exchange at construction time.
type Option func(*Exchange)

// WithMethod sets the request method reported by String.
func WithMethod(m string) Option {
	return func(e *Exchange) { e.method = m }
}

// WithTarget sets the target resource identifier reported by String.
func WithTarget(t string) Option {
	return func(e *Exchange) { e.target = t }
}

// WithWebsocket marks the exchange as a websocket upgrade for its whole
// lifetime. Text chunks are then framed as TextFrame objects.
func WithWebsocket() Option {
	return func(e *Exchange) { e.websocket = true }
}

// WithLoggerFactory scopes a logger for the exchange.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(e *Exchange) {
		if f != nil {
			e.log = f.NewLogger("outbound")
		}
	}
}

// WithMeter attaches a metrics hook.
func WithMeter(m obs.Meter) Option {
	return func(e *Exchange) {
		if m != nil {
			e.meter = m
		}
	}
}

// New creates an Exchange over tr with headers not yet sent.
func New(tr Transport, opts ...Option) *Exchange {
	e := &Exchange{
		tr:     tr,
		id:     uuid.New(),
		method: "GET",
		meter:  obs.NopMeter{},
	}
	e.gate.committed = make(chan struct{})
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = logging.NewDefaultLoggerFactory().NewLogger("outbound")
	}
	return e
}

// ID identifies the exchange in logs and diagnostics.
func (e *Exchange) ID() uuid.UUID {
	return e.id
}

// HasSentHeaders reports whether a send attempt has claimed the header
// commit. Once true it never reverts.
func (e *Exchange) HasSentHeaders() bool {
	return e.gate.sent()
}

// IsWebsocket reports whether the exchange is a websocket upgrade.
func (e *Exchange) IsWebsocket() bool {
	return e.websocket
}

func (e *Exchange) String() string {
	if e.websocket {
		return "ws:" + e.target
	}
	return e.method + ":" + e.target
}
