package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"tabular/records"
)

// Result is a task's terminal output: Records for parse operations, Text for
// serialize operations.
type Result struct {
	Records []*records.Record
	Text    string
}

// Handle is the submitter's view of one task. Await races completion against
// the caller's context; an expired context fails the wait, not the task. The
// worker still finishes and the pool keeps draining its queue.
type Handle struct {
	id string

	done chan struct{}

	mu       sync.Mutex
	res      Result
	err      error
	progress func(done, total int64)

	canceled atomic.Bool
}

func newHandle(id string) *Handle {
	return &Handle{id: id, done: make(chan struct{})}
}

// ID returns the task's opaque unique id.
func (h *Handle) ID() string { return h.id }

// Await blocks until the task reaches a terminal state or ctx expires.
func (h *Handle) Await(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.res, h.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// OnProgress installs a progress callback receiving (processed, total)
// counts. The callback runs on the worker goroutine and must be cheap.
// Install it before the task starts running; late installs may miss events.
func (h *Handle) OnProgress(fn func(done, total int64)) {
	h.mu.Lock()
	h.progress = fn
	h.mu.Unlock()
}

// Cancel abandons the task. A still-queued task is dropped at dispatch; a
// running task completes its current work (execution is not interruptible
// mid-token) and its result is discarded. Await returns context.Canceled.
func (h *Handle) Cancel() {
	h.canceled.Store(true)
}

// Done is closed when the task reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the terminal error, or nil before completion or on success.
func (h *Handle) Err() error {
	select {
	case <-h.done:
	default:
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) report(done, total int64) {
	h.mu.Lock()
	fn := h.progress
	h.mu.Unlock()
	if fn != nil {
		fn(done, total)
	}
}

func (h *Handle) complete(res Result, err error) {
	h.mu.Lock()
	h.res = res
	h.err = err
	h.mu.Unlock()
	close(h.done)
}
