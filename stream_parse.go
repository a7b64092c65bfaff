package tabular

import (
	"bufio"
	"context"
	"io"
	"log"

	"tabular/records"
)

// StreamRows parses src incrementally and emits completed records on out. It
// buffers no more than the current row: chunks of any size are consumed,
// quoted newlines continue the row, and a partial trailing line is carried
// until its terminator (or EOF) arrives.
//
// Backpressure is the channel itself: when the consumer stops receiving, the
// send blocks and no further input is read. Ordering is strictly preserved.
//
// onIssue, when non-nil, receives non-fatal row problems (it shadows
// opt.OnRowIssue). A fatal error terminates the stage and is returned after
// every record parsed before the failure point has been emitted. The caller
// owns closing out.
func StreamRows(
	ctx context.Context,
	src io.ReadCloser,
	opt ParseOptions,
	out chan<- *records.Record,
	onIssue func(line int, issue string),
) error {
	defer src.Close()

	if err := opt.Validate(); err != nil {
		opt.Hooks.Fire(ctx, err)
		return err
	}
	if onIssue != nil {
		opt.OnRowIssue = onIssue
	}

	br := bufio.NewReaderSize(src, 64*1024)
	delim, err := resolveDelimiter(br, opt)
	if err != nil {
		opt.Hooks.Fire(ctx, err)
		return err
	}

	tok := newTokenizer(br, delim, opt.quote(), opt.Trim)
	asm := newAssembler(opt)

	// Progress heartbeat.
	const logEveryN = 100_000
	emitted := 0

	var sendErr error
	emit := func(rec *records.Record) {
		if sendErr != nil {
			return
		}
		select {
		case out <- rec:
			emitted++
			if emitted%logEveryN == 0 {
				log.Printf("stream: emitted=%d", emitted)
			}
		case <-ctx.Done():
			sendErr = ctx.Err()
		}
	}

	for {
		if sendErr != nil {
			return sendErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if opt.MaxRows > 0 && asm.count >= opt.MaxRows {
			if !opt.HardLimit {
				return nil
			}
			if asm.pending != nil {
				err := &LimitError{Limit: opt.MaxRows, Observed: opt.MaxRows + 1}
				opt.Hooks.Fire(ctx, err)
				return err
			}
			if _, _, err := tok.next(); err == nil {
				lerr := &LimitError{Limit: opt.MaxRows, Observed: opt.MaxRows + 1}
				opt.Hooks.Fire(ctx, lerr)
				return lerr
			} else if err != io.EOF {
				opt.Hooks.Fire(ctx, err)
				return err
			}
			return nil
		}

		row, line, err := tok.next()
		if err == io.EOF {
			asm.flush(emit)
			return sendErr
		}
		if err != nil {
			// The lookahead row completed before the failure point; it still
			// belongs to the consumer.
			asm.flush(emit)
			if sendErr != nil {
				return sendErr
			}
			opt.Hooks.Fire(ctx, err)
			return err
		}
		asm.push(row, line, emit)
	}
}

// ParseChunks is StreamRows over a chunk-producing channel: each received
// slice is consumed in order, and closing chunks ends the input. The stage is
// lazy, finite, and not restartable once consumed.
func ParseChunks(
	ctx context.Context,
	chunks <-chan []byte,
	opt ParseOptions,
	out chan<- *records.Record,
	onIssue func(line int, issue string),
) error {
	return StreamRows(ctx, newChunkReader(ctx, chunks), opt, out, onIssue)
}

// chunkReader adapts a chunk channel to io.ReadCloser for the tokenizer.
type chunkReader struct {
	ctx context.Context
	ch  <-chan []byte
	cur []byte
}

func newChunkReader(ctx context.Context, ch <-chan []byte) *chunkReader {
	return &chunkReader{ctx: ctx, ch: ch}
}

// Read serves bytes from the current chunk, blocking for the next one when
// empty. A closed channel is EOF; context cancellation aborts the read.
func (c *chunkReader) Read(p []byte) (int, error) {
	for len(c.cur) == 0 {
		select {
		case chunk, ok := <-c.ch:
			if !ok {
				return 0, io.EOF
			}
			c.cur = chunk
		case <-c.ctx.Done():
			return 0, c.ctx.Err()
		}
	}
	n := copy(p, c.cur)
	c.cur = c.cur[n:]
	return n, nil
}

func (c *chunkReader) Close() error { return nil }
