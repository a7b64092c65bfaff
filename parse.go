package tabular

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"tabular/hooks"
	"tabular/records"
)

// Parse converts delimited text into records according to opt. The header
// row (when HasHeaders is set) supplies field names after normalization and
// HeaderMap renames; without headers, columns are named col_0..col_N from the
// width of the first row.
//
// Rows parsed before a fatal tokenizer error are not returned here; callers
// that need partial output on failure should use the streaming stage, whose
// consumers have already received everything up to the failure point.
func Parse(text string, opt ParseOptions) ([]*records.Record, error) {
	return ParseContext(context.Background(), text, opt)
}

// ParseContext is Parse with a context for the hook pipeline.
func ParseContext(ctx context.Context, text string, opt ParseOptions) ([]*records.Record, error) {
	if err := opt.Validate(); err != nil {
		opt.Hooks.Fire(ctx, err)
		return nil, err
	}

	if opt.Hooks != nil {
		v, err := opt.Hooks.Run(ctx, hooks.BeforeParse, text)
		if err != nil {
			opt.Hooks.Fire(ctx, err)
			return nil, err
		}
		s, ok := v.(string)
		if !ok {
			err := newErr(KindValidation, "before:parse hook returned %T, want string", v)
			opt.Hooks.Fire(ctx, err)
			return nil, err
		}
		text = s
	}

	recs, err := parseReader(strings.NewReader(text), opt)
	if err != nil {
		opt.Hooks.Fire(ctx, err)
		return nil, err
	}

	if opt.Hooks != nil {
		v, err := opt.Hooks.Run(ctx, hooks.AfterParse, recs)
		if err != nil {
			opt.Hooks.Fire(ctx, err)
			return nil, err
		}
		out, ok := v.([]*records.Record)
		if !ok {
			err := newErr(KindValidation, "after:parse hook returned %T, want []*records.Record", v)
			opt.Hooks.Fire(ctx, err)
			return nil, err
		}
		recs = out
	}
	return recs, nil
}

// ParseReader is Parse over an io.Reader. The hook pipeline is not invoked;
// callers that need hooks should wrap this themselves or use ParseContext.
func ParseReader(r io.Reader, opt ParseOptions) ([]*records.Record, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return parseReader(r, opt)
}

// parseReader runs the tokenizer/assembler over r and collects records.
func parseReader(r io.Reader, opt ParseOptions) ([]*records.Record, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	delim, err := resolveDelimiter(br, opt)
	if err != nil {
		return nil, err
	}

	tok := newTokenizer(br, delim, opt.quote(), opt.Trim)
	asm := newAssembler(opt)

	var out []*records.Record
	emit := func(rec *records.Record) { out = append(out, rec) }

	for {
		if opt.MaxRows > 0 && asm.count >= opt.MaxRows {
			if !opt.HardLimit {
				return out, nil
			}
			// Hard enforcement: any further row is a violation, including a
			// lookahead row already held by the repair pass.
			if asm.pending != nil {
				return nil, &LimitError{Limit: opt.MaxRows, Observed: opt.MaxRows + 1}
			}
			if _, _, err := tok.next(); err == nil {
				return nil, &LimitError{Limit: opt.MaxRows, Observed: opt.MaxRows + 1}
			} else if err != io.EOF {
				return nil, err
			}
			return out, nil
		}

		row, line, err := tok.next()
		if err == io.EOF {
			asm.flush(emit)
			// flush may emit the pending row; re-check the hard cap.
			if opt.HardLimit && opt.MaxRows > 0 && asm.count > opt.MaxRows {
				return nil, &LimitError{Limit: opt.MaxRows, Observed: asm.count}
			}
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		asm.push(row, line, emit)
	}
}

// resolveDelimiter applies auto-detection over a peeked sample when the
// options request it. An explicit delimiter always wins.
func resolveDelimiter(br *bufio.Reader, opt ParseOptions) (byte, error) {
	if opt.Delimiter != AutoDelimiter {
		return opt.Delimiter, nil
	}
	sample, err := br.Peek(4096)
	if err != nil && err != io.EOF && len(sample) == 0 {
		return 0, wrapErr(KindValidation, err, "peek sample for delimiter detection")
	}
	return DetectDelimiter(string(sample), DefaultCandidates), nil
}

// assembler turns raw token rows into records: header capture, one-row
// lookahead for the repair pass, positional mapping, coercion, and the data
// row count used for MaxRows.
type assembler struct {
	opt        ParseOptions
	strategies []RepairStrategy

	headers []string
	width   int

	pending     []string
	pendingLine int

	count int // data rows built so far
}

func newAssembler(opt ParseOptions) *assembler {
	return &assembler{opt: opt, strategies: opt.strategies()}
}

// push feeds one raw row, emitting zero or more completed records.
func (a *assembler) push(row []string, line int, emit func(*records.Record)) {
	if a.headers == nil {
		if a.opt.HasHeaders {
			a.headers = normalizeHeaders(row, a.opt)
			a.width = len(a.headers)
			return
		}
		a.width = len(row)
		a.headers = syntheticHeaders(a.width)
	}

	if len(a.strategies) == 0 {
		emit(a.build(row, line))
		return
	}

	// Repair needs one row of lookahead: hold each row until the next one
	// rules a merge in or out.
	if a.pending == nil {
		a.pending, a.pendingLine = row, line
		return
	}
	if merged, ok := tryRepair(a.strategies, a.pending, row, a.width); ok {
		emit(a.build(merged, a.pendingLine))
		a.pending = nil
		return
	}
	emit(a.build(a.pending, a.pendingLine))
	a.pending, a.pendingLine = row, line
}

// flush emits the held lookahead row, if any.
func (a *assembler) flush(emit func(*records.Record)) {
	if a.pending != nil {
		emit(a.build(a.pending, a.pendingLine))
		a.pending = nil
	}
}

// build maps tokens positionally onto header names with coercion. Positions
// beyond the header width are dropped and reported through OnRowIssue, never
// merged into a neighboring field.
func (a *assembler) build(row []string, line int) *records.Record {
	a.count++
	width := a.width
	if len(row) > width {
		if a.opt.OnRowIssue != nil {
			a.opt.OnRowIssue(line, fmt.Sprintf(
				"row has %d fields, header has %d; extra values dropped", len(row), width))
		}
		row = row[:width]
	}
	rec := records.New(width)
	for i, tok := range row {
		rec.Set(keyFor(i, a.headers), coerceValue(tok, a.opt))
	}
	return rec
}
