// Package hooks implements the caller-owned extension pipeline invoked around
// parse and serialize operations.
//
// There is deliberately no package-level registry: each Pipeline is an
// explicit value owned by its caller, so independent pipelines coexist and
// tests never leak handlers across cases. Handlers registered under the same
// name run in registration order, and each may transform the value it
// receives before the next handler sees it.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Recognized stage names. Registration accepts other names too, so callers
// can define private extension points, but these are the stages the tabular
// operations invoke.
const (
	BeforeParse     = "before:parse"
	AfterParse      = "after:parse"
	BeforeSerialize = "before:serialize"
	AfterSerialize  = "after:serialize"
	OnError         = "error"
)

var (
	// ErrEmptyName is returned when registering under an empty stage name.
	ErrEmptyName = errors.New("hooks: stage name cannot be empty")
	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("hooks: handler cannot be nil")
)

// Func is a single extension handler. It receives the current value for the
// stage and returns the (possibly transformed) value to pass onward. An error
// aborts the chain and is surfaced to the operation's caller.
type Func func(ctx context.Context, v any) (any, error)

// Pipeline is an ordered, named set of extension points. The zero value is
// usable. Pipeline is safe for concurrent Run; Register should be done during
// setup, before the pipeline is shared.
type Pipeline struct {
	mu     sync.RWMutex
	stages map[string][]Func
}

// New returns an empty Pipeline.
func New() *Pipeline { return &Pipeline{} }

// Register appends h to the named stage. Handlers run in registration order.
func (p *Pipeline) Register(name string, h Func) error {
	if name == "" {
		return ErrEmptyName
	}
	if h == nil {
		return ErrNilHandler
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stages == nil {
		p.stages = make(map[string][]Func)
	}
	p.stages[name] = append(p.stages[name], h)
	return nil
}

// Len reports the number of handlers registered under name.
func (p *Pipeline) Len(name string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.stages[name])
}

// Run threads v through the handlers registered under name and returns the
// final value. A stage with no handlers returns v unchanged. The first
// handler error aborts the chain.
func (p *Pipeline) Run(ctx context.Context, name string, v any) (any, error) {
	if p == nil {
		return v, nil
	}
	p.mu.RLock()
	chain := p.stages[name]
	p.mu.RUnlock()

	for i, h := range chain {
		var err error
		v, err = h(ctx, v)
		if err != nil {
			return v, fmt.Errorf("hooks: %s handler %d: %w", name, i, err)
		}
	}
	return v, nil
}

// Fire runs the error stage with err as the value. Handler failures here are
// ignored: error observers must never mask the original failure.
func (p *Pipeline) Fire(ctx context.Context, err error) {
	if p == nil || err == nil {
		return
	}
	_, _ = p.Run(ctx, OnError, err)
}
