// Package source defines the byte-source abstraction feeding the streaming
// parser: anything that can produce a readable byte stream on demand.
//
// Path confirmation is a collaborator concern: a caller-supplied Validator
// vets paths before a file source touches them, and its failures surface as
// security errors that this module reports but never generates on its own.
package source

import (
	"bytes"
	"context"
	"io"
)

// Source produces a byte stream. Implementations must be safe for repeated
// Open calls; each call returns an independent reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Validator confirms a file path is safe to read and returns its canonical
// absolute form. Implementations come from the embedding application; an
// error here has the security kind and blocks the open.
type Validator func(path string) (string, error)

// Bytes is an in-memory Source, mostly for tests and for payloads already
// resident in memory.
type Bytes []byte

// Open returns a reader over the in-memory payload.
func (b Bytes) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}
