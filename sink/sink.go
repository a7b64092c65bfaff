// Package sink defines the destination side of a tabular pipeline: a Sink
// receives batches of positional rows and persists them, and LoadBatches
// bridges a channel of parsed records to any Sink.
//
// Design goals:
//
//   - Invert the write operation via CopyFn so batching logic is testable
//     without a live database.
//   - Bound memory to one batch plus the channel's pending records.
//   - Stop on context cancellation, reporting rows flushed so far.
package sink

import (
	"context"
	"fmt"

	"tabular/records"
)

// CopyFn abstracts the bulk write. Production code passes a Sink's CopyFrom;
// tests pass a fake that records what it was given.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// Sink persists batches of rows with a fixed column order.
type Sink interface {
	// CopyFrom writes rows, each aligned with columns, and reports how many
	// were persisted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Close releases the underlying connection resources.
	Close() error
}

// LoadBatches drains records from in, projects each onto columns in order,
// groups the projections into batches of batchSize, and calls copyFn per
// non-empty batch. Missing fields project to nil. It returns the total rows
// reported by copyFn and the first error encountered.
//
// LoadBatches returns when in closes (after a final flush) or when ctx is
// canceled.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan *records.Record,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sink: columns must not be empty")
	}
	if batchSize <= 0 {
		return 0, fmt.Errorf("sink: batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("sink: copyFn must not be nil")
	}

	var (
		total int64
		batch = make([][]any, 0, batchSize)
		flush = func() error {
			if len(batch) == 0 {
				return nil
			}
			n, err := copyFn(ctx, columns, batch)
			total += n
			// reuse backing array
			batch = batch[:0]
			return err
		}
	)

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case rec, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			if rec == nil {
				continue
			}
			row := make([]any, len(columns))
			for i, c := range columns {
				v, found := rec.Get(c)
				if found {
					row[i] = v
				}
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
