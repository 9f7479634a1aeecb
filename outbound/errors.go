package outbound

import "errors"

var (
	// ErrNotActive reports a send attempted after the exchange's transport
	// was disposed. No bytes are written.
	ErrNotActive = errors.New("outbound: not active anymore")
	// ErrCommitHeaders wraps a transport failure while writing the status
	// line and headers. The body is never streamed in this case.
	ErrCommitHeaders = errors.New("outbound: commit headers")
	// ErrStreamBody wraps a transport failure while streaming body payload
	// after headers were committed. Headers remain marked sent.
	ErrStreamBody = errors.New("outbound: stream body")
)
