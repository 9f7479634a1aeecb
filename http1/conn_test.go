package http1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// sinkWriter is a goroutine-safe sink with optional fault injection.
type sinkWriter struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	failAfter int // bytes accepted before failing; -1 means never
	delay     time.Duration
	closed    bool
}

func newSink() *sinkWriter {
	return &sinkWriter{failAfter: -1}
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && s.buf.Len()+len(p) > s.failAfter {
		return 0, errors.New("sink: broken pipe")
	}
	return s.buf.Write(p)
}

func (s *sinkWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *sinkWriter) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestConnWritesInOrder(t *testing.T) {
	sink := newSink()
	c := NewConn(sink, ConnConfig{})
	defer c.Close()
	var want bytes.Buffer
	for i := 0; i < 200; i++ {
		p := []byte(fmt.Sprintf("part-%03d;", i))
		want.Write(p)
		if err := c.Write(append([]byte(nil), p...)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := sink.String(); got != want.String() {
		t.Fatalf("out of order or lossy write:\n got %q\nwant %q", got, want.String())
	}
}

func TestConnBackpressure(t *testing.T) {
	sink := newSink()
	sink.delay = time.Millisecond
	c := NewConn(sink, ConnConfig{QueueCapacity: 2})
	defer c.Close()
	var want bytes.Buffer
	for i := 0; i < 50; i++ {
		p := []byte(fmt.Sprintf("%02d", i))
		want.Write(p)
		if err := c.Write(append([]byte(nil), p...)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := sink.String(); got != want.String() {
		t.Fatalf("backpressured writes corrupted:\n got %q\nwant %q", got, want.String())
	}
}

func TestConnCloseStopsWrites(t *testing.T) {
	sink := newSink()
	c := NewConn(sink, ConnConfig{})
	if err := c.Write([]byte("before")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !c.Disposed() {
		t.Fatalf("Disposed=false after Close")
	}
	if err := c.Write([]byte("after")); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("write after close: %v", err)
	}
	if err := c.Flush(context.Background()); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("flush after close: %v", err)
	}
	if got := sink.String(); got != "before" {
		t.Fatalf("sink=%q, want %q", got, "before")
	}
	if !sink.closed {
		t.Fatalf("underlying writer not closed")
	}
	// Idempotent.
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestConnWriteErrorIsSticky(t *testing.T) {
	sink := newSink()
	sink.failAfter = 0
	c := NewConn(sink, ConnConfig{})
	defer c.Close()
	if err := c.Write([]byte("doomed")); err != nil {
		t.Fatalf("enqueue itself should succeed: %v", err)
	}
	if err := c.Flush(context.Background()); err == nil {
		t.Fatalf("flush reported success past a broken sink")
	}
	if !c.Disposed() {
		t.Fatalf("Disposed=false after write error")
	}
	if err := c.Write([]byte("more")); err == nil {
		t.Fatalf("write accepted after sticky error")
	}
}

func TestConnAllocBuffer(t *testing.T) {
	c := NewConn(newSink(), ConnConfig{BufferSize: 64})
	defer c.Close()
	b := c.AllocBuffer(16)
	if len(b) != 0 || cap(b) < 16 {
		t.Fatalf("len=%d cap=%d", len(b), cap(b))
	}
	big := c.AllocBuffer(1 << 16)
	if cap(big) < 1<<16 {
		t.Fatalf("big cap=%d", cap(big))
	}
}
