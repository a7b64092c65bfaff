package tabular

import (
	"context"
	"strings"

	"tabular/records"
)

// StreamEncode serializes records arriving on in and emits one encoded chunk
// per row on out, header first. Nothing is buffered beyond the row being
// encoded.
//
// Column order comes from opt.Template when set; otherwise the first record's
// field order is used, since a whole-input union cannot be computed under
// bounded memory. Later records serialize against that fixed order, with
// absent fields empty.
//
// Backpressure mirrors StreamRows: a blocked send pauses consumption. When
// MaxRecords is reached the remaining input is drained without being encoded
// (or, under HardLimit, the stage fails) so the producer never deadlocks.
// The caller owns closing out.
func StreamEncode(
	ctx context.Context,
	in <-chan *records.Record,
	opt SerializeOptions,
	out chan<- []byte,
) error {
	if err := opt.Validate(); err != nil {
		opt.Hooks.Fire(ctx, err)
		return err
	}

	send := func(b []byte) error {
		select {
		case out <- b:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var (
		cols       []string
		headerDone bool
		count      int
		overLimit  bool
	)

	for {
		var rec *records.Record
		var ok bool
		select {
		case rec, ok = <-in:
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			return nil
		}
		if rec == nil {
			err := newErr(KindValidation, "record source produced a nil record")
			opt.Hooks.Fire(ctx, err)
			return err
		}

		if overLimit {
			continue // drain without encoding
		}
		if opt.MaxRecords > 0 && count >= opt.MaxRecords {
			if opt.HardLimit {
				err := &LimitError{Limit: opt.MaxRecords, Observed: count + 1}
				opt.Hooks.Fire(ctx, err)
				return err
			}
			overLimit = true
			continue
		}

		if cols == nil {
			if len(opt.Template) > 0 {
				cols = opt.Template
			} else {
				cols = rec.Fields()
			}
		}
		if !headerDone {
			headerDone = true
			if opt.IncludeHeaders {
				var b strings.Builder
				writeRow(&b, outputHeaders(cols, opt.Rename), opt)
				if err := send([]byte(b.String())); err != nil {
					return err
				}
			}
		}

		var b strings.Builder
		writeRecord(&b, rec, cols, opt)
		if err := send([]byte(b.String())); err != nil {
			return err
		}
		count++
	}
}
