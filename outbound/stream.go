package outbound

import (
	"io"
	"iter"
)

// Buffers returns a byte-buffer sequence over fixed buffers.
func Buffers(bufs ...[]byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, b := range bufs {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Text returns a text-chunk sequence over fixed strings.
func Text(chunks ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, s := range chunks {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Objects returns an object sequence over fixed values.
func Objects(objs ...any) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for _, o := range objs {
			if !yield(o, nil) {
				return
			}
		}
	}
}

// FromReader adapts r into a byte-buffer sequence, reading into buffers of
// at most size bytes obtained from alloc (typically Transport.AllocBuffer).
// The reader is not touched until the sequence is consumed.
func FromReader(r io.Reader, alloc func(int) []byte, size int) iter.Seq2[[]byte, error] {
	if size <= 0 {
		size = 4096
	}
	return func(yield func([]byte, error) bool) {
		for {
			buf := alloc(size)[:size]
			n, err := r.Read(buf)
			if n > 0 {
				if !yield(buf[:n], nil) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}
