package hooks

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterValidation(t *testing.T) {
	p := New()
	if err := p.Register("", func(ctx context.Context, v any) (any, error) { return v, nil }); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name err = %v, want ErrEmptyName", err)
	}
	if err := p.Register(BeforeParse, nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler err = %v, want ErrNilHandler", err)
	}
	if err := p.Register(BeforeParse, func(ctx context.Context, v any) (any, error) { return v, nil }); err != nil {
		t.Errorf("valid registration failed: %v", err)
	}
	if p.Len(BeforeParse) != 1 {
		t.Errorf("Len = %d, want 1", p.Len(BeforeParse))
	}
}

func TestRunChainsInRegistrationOrder(t *testing.T) {
	p := New()
	_ = p.Register("stage", func(ctx context.Context, v any) (any, error) {
		return v.(string) + "-first", nil
	})
	_ = p.Register("stage", func(ctx context.Context, v any) (any, error) {
		return v.(string) + "-second", nil
	})

	out, err := p.Run(context.Background(), "stage", "v")
	if err != nil {
		t.Fatal(err)
	}
	if out != "v-first-second" {
		t.Fatalf("out = %v", out)
	}
}

func TestRunEmptyStagePassesThrough(t *testing.T) {
	p := New()
	out, err := p.Run(context.Background(), "nothing-here", 42)
	if err != nil || out != 42 {
		t.Fatalf("Run = %v, %v", out, err)
	}
}

func TestRunNilPipeline(t *testing.T) {
	var p *Pipeline
	out, err := p.Run(context.Background(), BeforeParse, "x")
	if err != nil || out != "x" {
		t.Fatalf("nil pipeline Run = %v, %v", out, err)
	}
	p.Fire(context.Background(), errors.New("ignored")) // must not panic
}

func TestRunAbortsOnHandlerError(t *testing.T) {
	p := New()
	boom := errors.New("boom")
	var secondRan bool
	_ = p.Register("stage", func(ctx context.Context, v any) (any, error) {
		return nil, boom
	})
	_ = p.Register("stage", func(ctx context.Context, v any) (any, error) {
		secondRan = true
		return v, nil
	})

	_, err := p.Run(context.Background(), "stage", "v")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !strings.Contains(err.Error(), "handler 0") {
		t.Errorf("error does not identify the failing handler: %v", err)
	}
	if secondRan {
		t.Error("handler after failure still ran")
	}
}

func TestFireNeverMasks(t *testing.T) {
	p := New()
	var observed error
	_ = p.Register(OnError, func(ctx context.Context, v any) (any, error) {
		observed, _ = v.(error)
		return nil, errors.New("observer failure, must be swallowed")
	})

	orig := errors.New("original")
	p.Fire(context.Background(), orig) // must not panic or propagate
	if !errors.Is(observed, orig) {
		t.Fatalf("observer saw %v, want original", observed)
	}

	p.Fire(context.Background(), nil) // nil error is a no-op
}

func TestIndependentPipelines(t *testing.T) {
	p1, p2 := New(), New()
	_ = p1.Register(BeforeParse, func(ctx context.Context, v any) (any, error) { return v, nil })

	if p2.Len(BeforeParse) != 0 {
		t.Error("registration leaked across pipelines")
	}
}
