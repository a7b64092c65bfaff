package pool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"tabular"
	"tabular/metrics"
	"tabular/records"
)

// worker pulls tasks FIFO until the queue is closed or the worker is
// reclaimed. A non-nil first task is executed before joining the queue; that
// is how a replacement worker picks up the task its predecessor was holding.
func (p *Pool) worker(first *task) {
	defer p.wg.Done()

	if first != nil {
		if p.run(first) {
			return
		}
	}

	timer := time.NewTimer(p.cfg.IdleTimeout)
	defer timer.Stop()

	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				p.retire()
				return
			}
			if p.run(t) {
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.cfg.IdleTimeout)
		case <-timer.C:
			// Reclamation only happens here, while no task is held.
			if p.tryShrink() {
				return
			}
			timer.Reset(p.cfg.IdleTimeout)
		}
	}
}

// run executes one task to its terminal state. It returns true when the
// worker must terminate because the task panicked; the replacement worker
// has already been spawned by then.
func (p *Pool) run(t *task) (terminated bool) {
	// Cancellation takes effect at the task boundary.
	if t.h.canceled.Load() {
		p.failed.Add(1)
		t.h.complete(Result{}, context.Canceled)
		return false
	}

	p.busy.Add(1)
	start := time.Now()

	panicked := true
	var res Result
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				p.busy.Add(-1)
				p.replaceWorker(t, r)
			}
		}()
		res, err = p.execute(t)
		panicked = false
	}()
	if panicked {
		return true
	}
	p.busy.Add(-1)

	if t.h.canceled.Load() {
		res, err = Result{}, context.Canceled
	}
	if err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}
	metrics.RecordTask(p.cfg.Metrics, string(t.op), err, time.Since(start))
	t.h.complete(res, err)
	return false
}

// replaceWorker handles an unusable worker: the panicking goroutine is about
// to exit, so spawn a fresh one, giving it the interrupted task on the first
// failure only. A task that kills two workers is failed, not retried again.
func (p *Pool) replaceWorker(t *task, cause any) {
	log.Printf("pool: worker panic: %v", cause)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.total-- // the dying worker

	if !t.retried {
		t.retried = true
		p.spawnLocked(t)
		return
	}
	p.failed.Add(1)
	t.h.complete(Result{}, fmt.Errorf("pool: task aborted, worker panicked twice: %v", cause))
	p.spawnLocked(nil)
}

func (p *Pool) execute(t *task) (Result, error) {
	switch t.op {
	case OpParse:
		return p.executeParse(t)
	case OpSerialize:
		return p.executeSerialize(t)
	}
	return Result{}, fmt.Errorf("pool: unknown operation %q", t.op)
}

func (p *Pool) executeParse(t *task) (Result, error) {
	total := int64(t.payload.Len())
	cr := &countingReader{
		r:     bytes.NewReader(t.payload.Bytes()),
		h:     t.h,
		total: total,
	}
	recs, err := tabular.ParseReader(cr, t.popt)
	if err != nil {
		return Result{}, err
	}
	t.h.report(total, total)
	return Result{Records: recs}, nil
}

// executeSerialize drives the streaming encoder so progress can be reported
// per record instead of only at the end.
func (p *Pool) executeSerialize(t *task) (Result, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	total := int64(len(t.recs))

	in := make(chan *records.Record)
	out := make(chan []byte, 16)
	done := make(chan error, 1)

	go func() {
		defer close(in)
		for _, r := range t.recs {
			select {
			case in <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		done <- tabular.StreamEncode(ctx, in, t.sopt, out)
		close(out)
	}()

	var b strings.Builder
	var n int64
	for chunk := range out {
		b.Write(chunk)
		if n < total {
			n++
			t.h.report(n, total)
		}
	}
	if err := <-done; err != nil {
		return Result{}, err
	}
	return Result{Text: b.String()}, nil
}

// countingReader reports parse progress in payload bytes, throttled to one
// event per progressStep of input.
type countingReader struct {
	r     io.Reader
	h     *Handle
	total int64

	read     int64
	lastSent int64
}

const progressStep = 64 * 1024

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read-c.lastSent >= progressStep {
		c.lastSent = c.read
		c.h.report(c.read, c.total)
	}
	return n, err
}
