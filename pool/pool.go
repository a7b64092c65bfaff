// Package pool executes parse and serialize tasks on a bounded, elastic set
// of worker goroutines.
//
// Each task runs the same pipeline as the synchronous tabular entry points,
// in an isolated worker, and reports back through its Handle: progress
// events, a terminal result, or a terminal error. Task errors never cross
// task boundaries; a worker that panics is terminated and replaced, and the
// task it was holding is resubmitted to the replacement exactly once.
//
// The queue is strictly bounded: submissions beyond capacity fail fast with
// ErrQueueFull rather than blocking. Dispatch is FIFO. When every worker is
// busy and the pool is below its maximum, an extra worker is spawned; workers
// idle past the configured timeout shrink the pool back to its core size,
// and reclamation never touches a worker mid-task.
package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tabular"
	"tabular/metrics"
	"tabular/records"
)

// Operation selects the work a task performs.
type Operation string

const (
	// OpParse converts delimited text into records.
	OpParse Operation = "parse"
	// OpSerialize converts records into delimited text.
	OpSerialize Operation = "serialize"
)

var (
	// ErrQueueFull is returned by Submit when the task queue is at its bound.
	ErrQueueFull = errors.New("pool: task queue full")
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("pool: closed")
)

// Config sizes the pool. Zero values take the documented defaults.
type Config struct {
	// Workers is the core pool size kept alive regardless of load.
	// Default 1.
	Workers int

	// MaxWorkers caps elastic growth. Default Workers (no auto-scale).
	MaxWorkers int

	// QueueSize bounds pending tasks. Default 64.
	QueueSize int

	// IdleTimeout is how long a worker above the core size may sit idle
	// before being reclaimed. Default 30s.
	IdleTimeout time.Duration

	// Metrics receives task counters and durations. Nil disables reporting.
	Metrics metrics.Backend
}

func (c Config) withDefaults() Config {
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = c.Workers
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 30 * time.Second
	}
	return c
}

func (c Config) validate() error {
	if c.Workers < 0 || c.MaxWorkers < 0 || c.QueueSize < 0 || c.IdleTimeout < 0 {
		return &tabular.Error{Kind: tabular.KindConfiguration, Msg: "pool sizes must be >= 0"}
	}
	if c.MaxWorkers != 0 && c.Workers != 0 && c.MaxWorkers < c.Workers {
		return &tabular.Error{Kind: tabular.KindConfiguration, Msg: "MaxWorkers must be >= Workers"}
	}
	return nil
}

// Stats is a snapshot of pool state, recomputed from counters on demand and
// never read in a torn state.
type Stats struct {
	Workers   int // workers currently alive
	Active    int // workers currently holding a task
	Idle      int // Workers - Active
	Queued    int // tasks waiting for dispatch
	Completed uint64
	Failed    uint64
}

type task struct {
	op      Operation
	payload *Buffer
	recs    []*records.Record
	popt    tabular.ParseOptions
	sopt    tabular.SerializeOptions
	h       *Handle
	retried bool
}

// Pool owns the task queue and its workers. Construct with New; terminate
// with Close.
type Pool struct {
	cfg   Config
	queue chan *task

	mu     sync.Mutex // guards total and closed, and serializes spawn/retire
	total  int
	closed bool

	busy      atomic.Int64
	completed atomic.Uint64
	failed    atomic.Uint64

	wg sync.WaitGroup
}

// New starts a pool with cfg.Workers workers.
func New(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	p := &Pool{
		cfg:   cfg,
		queue: make(chan *task, cfg.QueueSize),
	}
	p.mu.Lock()
	for i := 0; i < cfg.Workers; i++ {
		p.spawnLocked(nil)
	}
	p.mu.Unlock()
	return p, nil
}

// SubmitParse enqueues a parse task. The payload buffer is transferred: the
// caller's Buffer is emptied and the pool takes exclusive ownership (Clone
// first to keep the bytes). Fails fast with ErrQueueFull at capacity.
func (p *Pool) SubmitParse(payload *Buffer, opt tabular.ParseOptions) (*Handle, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return p.submit(&task{op: OpParse, payload: payload.Transfer(), popt: opt})
}

// SubmitSerialize enqueues a serialize task over recs.
func (p *Pool) SubmitSerialize(recs []*records.Record, opt tabular.SerializeOptions) (*Handle, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return p.submit(&task{op: OpSerialize, recs: recs, sopt: opt})
}

func (p *Pool) submit(t *task) (*Handle, error) {
	t.h = newHandle(uuid.NewString())

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	select {
	case p.queue <- t:
	default:
		return nil, ErrQueueFull
	}
	// No idle worker and room to grow: spawn one for the new task.
	if p.total < p.cfg.MaxWorkers && p.total-int(p.busy.Load()) == 0 {
		p.spawnLocked(nil)
	}
	return t.h, nil
}

// Stats returns a point-in-time snapshot.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	total := p.total
	p.mu.Unlock()

	active := int(p.busy.Load())
	if active > total {
		active = total
	}
	return Stats{
		Workers:   total,
		Active:    active,
		Idle:      total - active,
		Queued:    len(p.queue),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Close drains the queue, waits for in-flight tasks, and releases all
// workers. Submissions after Close fail with ErrPoolClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) spawnLocked(first *task) {
	p.total++
	p.wg.Add(1)
	go p.worker(first)
}

func (p *Pool) retire() {
	p.mu.Lock()
	p.total--
	p.mu.Unlock()
}

// tryShrink reclaims this worker when the pool is above its core size.
func (p *Pool) tryShrink() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > p.cfg.Workers {
		p.total--
		return true
	}
	return false
}
