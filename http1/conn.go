package http1

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"github.com/pion/logging"

	"dqx0.com/go/httpcore/internal/obs"
)

const (
	// defaultQueueCapacity bounds the per-connection write queue.
	// Producers observe backpressure once the writer goroutine falls
	// this far behind.
	defaultQueueCapacity = 64
	// defaultBufferSize is the AllocBuffer slab size.
	defaultBufferSize = 4096
)

type opKind uint8

const (
	opWrite opKind = iota
	opBarrier
	opClose
)

// writeOp is one unit of work for the writer goroutine. Barrier and close
// ops flush and report the sticky write error on ack.
type writeOp struct {
	kind opKind
	data []byte
	ack  chan error
}

// Conn owns the outbound half of one transport connection. Every wire
// write funnels through a single writer goroutine fed by a bounded
// lock-free queue, so writes reach the wire in enqueue order, which is
// the per-connection serialization the outbound core's sequencing
// relies on.
// The queue is SPSC; a mutex serializes producers to honor the
// single-producer discipline.
type Conn struct {
	w  io.Writer
	bw *bufio.Writer

	mu sync.Mutex
	q  lfq.SPSC[writeOp]

	closed atomix.Uint32
	errMu  sync.Mutex
	werr   error

	bufSize int
	pool    sync.Pool

	log   logging.LeveledLogger
	meter obs.Meter
}

// ConnConfig configures a Conn. The zero value is usable.
type ConnConfig struct {
	// QueueCapacity overrides the write queue bound. Rounded up to a
	// power of two. 0 means the default.
	QueueCapacity int
	// BufferSize sets the AllocBuffer slab size. 0 means the default.
	BufferSize int

	LoggerFactory logging.LoggerFactory
	Meter         obs.Meter
}

// NewConn wraps w and starts the connection's writer goroutine. If w is an
// io.Closer it is closed when the Conn is.
func NewConn(w io.Writer, config ConnConfig) *Conn {
	capacity := ceilPow2(config.QueueCapacity)
	if capacity <= 1 {
		capacity = defaultQueueCapacity
	}
	size := config.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	lf := config.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	meter := config.Meter
	if meter == nil {
		meter = obs.NopMeter{}
	}
	c := &Conn{
		w:       w,
		bw:      bufio.NewWriter(w),
		bufSize: size,
		log:     lf.NewLogger("http1"),
		meter:   meter,
	}
	c.pool.New = func() any {
		b := make([]byte, 0, size)
		return &b
	}
	c.q.Init(capacity)
	go c.writeLoop()
	return c
}

// Write enqueues p for the writer goroutine. Ownership of p transfers to
// the Conn; the caller must not touch it afterwards.
func (c *Conn) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return c.enqueue(writeOp{kind: opWrite, data: p})
}

// Flush enqueues a barrier and waits until every preceding write reached
// the wire, returning the sticky write error if any.
func (c *Conn) Flush(ctx context.Context) error {
	ack := make(chan error, 1)
	if err := c.enqueue(writeOp{kind: opBarrier, ack: ack}); err != nil {
		return err
	}
	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes buffered data, closes the underlying writer if it is a
// Closer, and stops the writer goroutine. Later ops fail with
// ErrConnClosed. Close is idempotent.
func (c *Conn) Close() error {
	ack := make(chan error, 1)
	c.mu.Lock()
	if !c.closed.CompareAndSwap(0, 1) {
		c.mu.Unlock()
		return nil
	}
	// The close op must be the final op in the queue; enqueue under mu
	// so no producer can slot in behind it.
	op := writeOp{kind: opClose, ack: ack}
	var bo iox.Backoff
	for {
		err := c.q.Enqueue(&op)
		if err == nil {
			break
		}
		if !errors.Is(err, iox.ErrWouldBlock) {
			c.mu.Unlock()
			return err
		}
		bo.Wait()
	}
	c.mu.Unlock()
	return <-ack
}

// Disposed reports whether the connection can no longer accept outbound
// writes.
func (c *Conn) Disposed() bool {
	return c.closed.Load() == 1 || c.writeErr() != nil
}

// AllocBuffer returns a zero-length buffer with capacity at least n,
// pool-backed while n fits the slab size. Buffers handed to Write are
// recycled by the writer goroutine.
func (c *Conn) AllocBuffer(n int) []byte {
	if n > c.bufSize {
		return make([]byte, 0, n)
	}
	bp := c.pool.Get().(*[]byte)
	return (*bp)[:0]
}

// enqueue places op on the write queue, waiting out backpressure with
// adaptive backoff. Fails fast once the connection is closed or the write
// error is sticky.
func (c *Conn) enqueue(op writeOp) error {
	var bo iox.Backoff
	for {
		if err := c.writeErr(); err != nil {
			return err
		}
		c.mu.Lock()
		if c.closed.Load() == 1 {
			c.mu.Unlock()
			return ErrConnClosed
		}
		err := c.q.Enqueue(&op)
		c.mu.Unlock()
		if err == nil {
			return nil
		}
		if !errors.Is(err, iox.ErrWouldBlock) {
			return err
		}
		bo.Wait()
	}
}

// writeLoop is the connection's single consumer. It batches naturally:
// the bufio.Writer is flushed whenever the queue runs dry and on barriers.
func (c *Conn) writeLoop() {
	var bo iox.Backoff
	for {
		op, err := c.q.Dequeue()
		if err != nil {
			if c.bw.Buffered() > 0 && c.writeErr() == nil {
				if ferr := c.bw.Flush(); ferr != nil {
					c.fail(ferr)
				}
			}
			bo.Wait()
			continue
		}
		bo.Reset()
		switch op.kind {
		case opWrite:
			if c.writeErr() == nil {
				if _, werr := c.bw.Write(op.data); werr != nil {
					c.fail(werr)
				} else {
					c.meter.Counter("httpcore_conn_bytes_written_total", float64(len(op.data)))
				}
			}
			c.recycle(op.data)
		case opBarrier:
			if c.writeErr() == nil {
				if ferr := c.bw.Flush(); ferr != nil {
					c.fail(ferr)
				}
			}
			op.ack <- c.writeErr()
		case opClose:
			if c.writeErr() == nil {
				if ferr := c.bw.Flush(); ferr != nil {
					c.fail(ferr)
				}
			}
			if cl, ok := c.w.(io.Closer); ok {
				_ = cl.Close()
			}
			c.log.Debugf("writer loop done")
			op.ack <- c.writeErr()
			return
		}
	}
}

func (c *Conn) recycle(b []byte) {
	if cap(b) == c.bufSize {
		b = b[:0]
		c.pool.Put(&b)
	}
}

// fail records the first write error; later ops fail fast with it.
func (c *Conn) fail(err error) {
	c.errMu.Lock()
	first := c.werr == nil
	if first {
		c.werr = err
	}
	c.errMu.Unlock()
	if first {
		c.log.Warnf("write failed: %v", err)
		c.meter.Counter("httpcore_conn_write_error_total", 1)
	}
}

func (c *Conn) writeErr() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.werr
}

func ceilPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
