package outbound

import (
	"context"

	"code.hybscloud.com/atomix"
)

// Task is a lazily started unit of outbound work. Constructing a Task has
// no observable effect; the work runs when the first consumer calls Do.
// The terminal outcome is delivered at most once and memoized: concurrent
// or repeated Do calls wait for the first run and return the same result.
type Task struct {
	run     func(ctx context.Context) error
	started atomix.Uint32
	done    chan struct{}
	err     error
}

func newTask(run func(ctx context.Context) error) *Task {
	return &Task{run: run, done: make(chan struct{})}
}

// Do runs the task, or waits for an already running Do to finish.
// ctx bounds the work as well as the wait; a waiter that detaches via ctx
// does not stop the run already in flight.
func (t *Task) Do(ctx context.Context) error {
	if t.started.CompareAndSwap(0, 1) {
		t.err = t.run(ctx)
		close(t.done)
		return t.err
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs the task on its own goroutine and returns a channel that
// receives the terminal outcome.
func (t *Task) Start(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- t.Do(ctx) }()
	return ch
}

// Done reports whether the task has reached its terminal signal.
func (t *Task) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
