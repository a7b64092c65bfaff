package tabular

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"tabular/records"
)

// channelBuffer is the bound on every inter-stage channel: peak memory for a
// transcode stays around O(rows in flight), independent of input size.
const channelBuffer = 256

// Transcode runs the full streaming path src → parse → encode → dst with
// bounded buffering. It is the library-level analog of a shell pipeline:
// records are never collected, and a failure in any stage cancels the others.
func Transcode(ctx context.Context, src io.ReadCloser, popt ParseOptions, sopt SerializeOptions, dst io.Writer) error {
	g, ctx := errgroup.WithContext(ctx)

	rows := make(chan *records.Record, channelBuffer)
	chunks := make(chan []byte, channelBuffer)

	g.Go(func() error {
		defer close(rows)
		return StreamRows(ctx, src, popt, rows, nil)
	})
	g.Go(func() error {
		defer close(chunks)
		return StreamEncode(ctx, rows, sopt, chunks)
	})
	g.Go(func() error {
		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					return nil
				}
				if _, err := dst.Write(chunk); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

// CollectRows drains a record channel into a slice; a convenience for tests
// and small inputs where streaming is not needed.
func CollectRows(ctx context.Context, in <-chan *records.Record) ([]*records.Record, error) {
	var out []*records.Record
	for {
		select {
		case rec, ok := <-in:
			if !ok {
				return out, nil
			}
			out = append(out, rec)
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}
