package tabular

import (
	"bufio"
	"io"
	"strings"
)

// tokenizer converts a byte stream into raw token rows using a two-state
// machine (unquoted / quoted).
//
// Rules, matching RFC4180-style quoting with lenient recovery:
//
//   - In unquoted state the delimiter and line terminators are boundaries; a
//     quote byte switches to quoted state without being emitted.
//   - In quoted state delimiters and line terminators are literal content; a
//     doubled quote emits one literal quote; a single quote switches back.
//   - CRLF and LF both terminate records; a CR inside a quoted field is kept.
//   - Trimming applies per field and is suppressed for any field that had a
//     quoted region.
//
// The tokenizer reads incrementally and never buffers more than the current
// row, so it serves both whole-document parsing and the chunked streaming
// stage unchanged.
type tokenizer struct {
	br    *bufio.Reader
	delim byte
	quote byte
	trim  bool

	line int // physical line of the next unread byte, 1-based
	col  int // column of the next unread byte, 1-based
	done bool
}

func newTokenizer(r io.Reader, delim, quote byte, trim bool) *tokenizer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64*1024)
	}
	return &tokenizer{
		br:    br,
		delim: delim,
		quote: quote,
		trim:  trim,
		line:  1,
		col:   1,
	}
}

// next returns the next raw token row and the physical line it started on.
// Blank physical lines are skipped. After the final row it returns io.EOF; an
// unterminated quote at end of input returns a *ParseError.
func (t *tokenizer) next() ([]string, int, error) {
	for {
		row, line, err := t.readRow()
		if err != nil {
			return nil, 0, err
		}
		// Skip rows that were a blank physical line.
		if row == nil {
			continue
		}
		return row, line, nil
	}
}

func (t *tokenizer) readRow() ([]string, int, error) {
	if t.done {
		return nil, 0, io.EOF
	}

	var (
		fields      []string
		field       strings.Builder
		inQuotes    bool
		quotedField bool // current field had a quoted region
		rowQuoted   bool // any field in the row had a quoted region
		startLine   = t.line
		sawAny      bool
	)

	endField := func() {
		s := field.String()
		if t.trim && !quotedField {
			s = strings.TrimSpace(s)
		}
		fields = append(fields, s)
		field.Reset()
		quotedField = false
	}

	for {
		b, err := t.br.ReadByte()
		if err == io.EOF {
			t.done = true
			if inQuotes {
				return nil, 0, &ParseError{Line: t.line, Column: t.col, Err: ErrUnterminatedQuote}
			}
			if !sawAny && field.Len() == 0 && len(fields) == 0 {
				return nil, 0, io.EOF
			}
			endField()
			return t.finishRow(fields, rowQuoted, startLine)
		}
		if err != nil {
			return nil, 0, err
		}
		sawAny = true
		t.col++

		if inQuotes {
			switch b {
			case t.quote:
				if t.peekIs(t.quote) {
					t.discard()
					field.WriteByte(t.quote)
					continue
				}
				inQuotes = false
			case '\n':
				field.WriteByte(b)
				t.line++
				t.col = 1
			default:
				field.WriteByte(b)
			}
			continue
		}

		switch b {
		case t.quote:
			inQuotes = true
			quotedField = true
			rowQuoted = true
		case t.delim:
			endField()
		case '\r':
			if t.peekIs('\n') {
				t.discard()
			}
			endField()
			t.line++
			t.col = 1
			return t.finishRow(fields, rowQuoted, startLine)
		case '\n':
			endField()
			t.line++
			t.col = 1
			return t.finishRow(fields, rowQuoted, startLine)
		default:
			field.WriteByte(b)
		}
	}
}

// finishRow normalizes the blank-line case: a single empty unquoted field is
// reported as a nil row so next can skip it. A quoted empty field ("" on its
// own line) is real data and passes through.
func (t *tokenizer) finishRow(fields []string, rowQuoted bool, startLine int) ([]string, int, error) {
	if len(fields) == 1 && fields[0] == "" && !rowQuoted {
		return nil, startLine, nil
	}
	return fields, startLine, nil
}

func (t *tokenizer) peekIs(b byte) bool {
	p, err := t.br.Peek(1)
	return err == nil && p[0] == b
}

func (t *tokenizer) discard() {
	_, _ = t.br.Discard(1)
	t.col++
}
