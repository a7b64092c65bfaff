// Package file implements a local filesystem byte source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"tabular"
	"tabular/source"
)

// Local is a filesystem source bound to one path. The zero value is not
// usable; construct with NewLocal.
type Local struct {
	path     string
	validate source.Validator
}

// NewLocal returns a source for path. When validate is non-nil it runs before
// every open; a validation failure is surfaced with the security error kind
// and the file is never touched.
func NewLocal(path string, validate source.Validator) *Local {
	return &Local{path: path, validate: validate}
}

// Open opens the file for reading. A context already canceled at call time
// returns immediately without touching the filesystem. Filesystem errors are
// wrapped with the path while keeping errors.Is/As working (e.g.
// errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path := l.path
	if l.validate != nil {
		confirmed, err := l.validate(path)
		if err != nil {
			return nil, &tabular.Error{
				Kind: tabular.KindSecurity,
				Msg:  fmt.Sprintf("path %q rejected", path),
				Err:  err,
			}
		}
		path = confirmed
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	adviseSequential(f)
	return f, nil
}
