package tabular

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category. Every error surfaced by
// this module carries exactly one Kind so callers can branch on failure class
// without string matching.
type Kind string

const (
	// KindConfiguration marks malformed options: a multi-character delimiter,
	// a non-positive limit, an unknown hook name.
	KindConfiguration Kind = "configuration"
	// KindValidation marks input of the wrong shape, e.g. a nil record source.
	KindValidation Kind = "validation"
	// KindParsing marks unrecoverable tokenizer structure, e.g. a quote still
	// open at end of input.
	KindParsing Kind = "parsing"
	// KindLimit marks a configured row/record cap exceeded under hard
	// enforcement.
	KindLimit Kind = "limit"
	// KindSecurity marks errors raised by collaborators (path validation);
	// the core surfaces but never generates these.
	KindSecurity Kind = "security"
)

var (
	// ErrUnterminatedQuote is returned when a quoted field is not closed
	// before end of input.
	ErrUnterminatedQuote = errors.New("tabular: unterminated quoted field")
	// ErrRowLimit is returned when a hard-enforced MaxRows/MaxRecords cap is
	// exceeded.
	ErrRowLimit = errors.New("tabular: row limit exceeded")
)

// Error is the common error envelope: a Kind, a human-readable message, and
// an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error formats the kind-tagged message, appending the cause when present.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("tabular: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("tabular: %s: %s", e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause so Error participates in errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return KindParsing
	}
	var le *LimitError
	if errors.As(err, &le) {
		return KindLimit
	}
	return ""
}

// ParseError reports unrecoverable tokenizer structure with its location.
// Line and Column are 1-based and refer to the physical input position.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error with the stored line and column.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("tabular: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LimitError reports a hard-enforced cap that was exceeded. Limit is the
// configured bound and Observed the count at which enforcement tripped.
type LimitError struct {
	Limit    int
	Observed int
}

// Error formats the limit violation.
func (e *LimitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("tabular: limit %d exceeded (observed %d)", e.Limit, e.Observed)
}

// Unwrap lets errors.Is(err, ErrRowLimit) match.
func (e *LimitError) Unwrap() error { return ErrRowLimit }
