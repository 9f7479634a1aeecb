package http1

import "errors"

var (
	// ErrConnClosed reports an op issued after the connection was closed.
	ErrConnClosed = errors.New("http1: connection closed")
	// ErrUnsupportedPayload reports an object-stream element the
	// transport has no framing for.
	ErrUnsupportedPayload = errors.New("http1: unsupported payload object")
	// ErrInterimStatus reports a non-1xx status passed to SendInterim.
	ErrInterimStatus = errors.New("http1: interim status out of range")
)
