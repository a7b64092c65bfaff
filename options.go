package tabular

import (
	"unicode/utf8"

	"tabular/hooks"
	"tabular/records"
)

// AutoDelimiter selects delimiter auto-detection (see DetectDelimiter).
const AutoDelimiter byte = 0

// ParseOptions configures Parse and the streaming parse stage. Construct with
// DefaultParseOptions and override fields as needed; Validate rejects
// malformed combinations once, up front, instead of re-checking inside the
// tokenizer hot path.
type ParseOptions struct {
	// Delimiter is the field separator. AutoDelimiter (zero) enables
	// detection over the first line of input; an explicit delimiter always
	// wins over detection.
	Delimiter byte

	// Quote is the quote character. When zero, '"' is used.
	Quote byte

	// HasHeaders indicates the first row carries column names. The header
	// row is never emitted as data.
	HasHeaders bool

	// Trim removes surrounding ASCII whitespace from fields, but only for
	// content that was not inside a quoted region.
	Trim bool

	// ParseNumbers coerces fields matching integer/float lexical grammar to
	// float64.
	ParseNumbers bool

	// ParseBooleans coerces case-insensitive "true"/"false" to bool. Number
	// coercion is tried first.
	ParseBooleans bool

	// MaxRows caps the number of data rows (header excluded). Zero means
	// unbounded. This is a hard cap, not a sampling: input beyond the cap is
	// never tokenized.
	MaxRows int

	// HardLimit turns the MaxRows truncation into a *LimitError instead of a
	// silent cap.
	HardLimit bool

	// RepairRowShifts enables the built-in row-repair heuristics
	// (QuoteSpillRepair then ShapeSignatureRepair). See Repair for custom
	// strategies.
	RepairRowShifts bool

	// Repair lists the repair strategies to run, in order, over raw token
	// rows. When nil and RepairRowShifts is set, the built-in pair is used.
	Repair []RepairStrategy

	// HeaderMap renames source header names to canonical keys before record
	// construction (rename-on-read).
	HeaderMap records.RenameMap

	// FoldHeaders additionally strips diacritics from header names
	// (e.g. "Důvod" -> "duvod") after the usual lowercase/underscore
	// normalization.
	FoldHeaders bool

	// OnRowIssue, when set, receives non-fatal row problems: extra positional
	// values beyond the header width, or rows skipped by a strategy. Issues
	// are never silently merged into neighboring fields.
	OnRowIssue func(line int, issue string)

	// Hooks, when set, runs the before:parse / after:parse / error stages of
	// the caller-owned pipeline around the operation.
	Hooks *hooks.Pipeline
}

// DefaultParseOptions returns the baseline configuration: auto-detected
// delimiter, headers on, trimming on, number and boolean coercion on.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Delimiter:     AutoDelimiter,
		Quote:         '"',
		HasHeaders:    true,
		Trim:          true,
		ParseNumbers:  true,
		ParseBooleans: true,
	}
}

// Validate reports a *Error with KindConfiguration for malformed options.
func (o ParseOptions) Validate() error {
	q := o.Quote
	if q == 0 {
		q = '"'
	}
	if o.Delimiter != AutoDelimiter && o.Delimiter == q {
		return newErr(KindConfiguration, "delimiter %q equals quote character", o.Delimiter)
	}
	if o.Delimiter == '\n' || o.Delimiter == '\r' {
		return newErr(KindConfiguration, "delimiter must not be a line terminator")
	}
	if o.MaxRows < 0 {
		return newErr(KindConfiguration, "MaxRows must be >= 0, got %d", o.MaxRows)
	}
	return nil
}

func (o ParseOptions) quote() byte {
	if o.Quote == 0 {
		return '"'
	}
	return o.Quote
}

// strategies resolves the effective repair chain.
func (o ParseOptions) strategies() []RepairStrategy {
	if len(o.Repair) > 0 {
		return o.Repair
	}
	if o.RepairRowShifts {
		return []RepairStrategy{QuoteSpillRepair{}, ShapeSignatureRepair{}}
	}
	return nil
}

// SerializeOptions configures Serialize and the streaming serialize stage.
type SerializeOptions struct {
	// Delimiter is the output field separator. When zero, ',' is used.
	Delimiter byte

	// Quote is the quote character. When zero, '"' is used.
	Quote byte

	// IncludeHeaders emits the header row first.
	IncludeHeaders bool

	// MaxRecords caps the number of serialized records. Zero means
	// unbounded. The cap is applied before the column union is computed, so
	// columns introduced by records beyond the cap never appear.
	MaxRecords int

	// HardLimit turns the MaxRecords truncation into a *LimitError.
	HardLimit bool

	// PreventInjection neutralizes spreadsheet formula execution: a value
	// whose first significant character (after optional whitespace and a
	// single leading quote) is '=', '+', '-', or '@' is prefixed with a
	// literal apostrophe.
	PreventInjection bool

	// RFC4180 terminates rows with CRLF instead of LF.
	RFC4180 bool

	// Template fixes the output column order. When empty, the first-seen
	// union across the serialized records is used.
	Template records.Template

	// Rename maps record field names to output header names
	// (rename-on-write).
	Rename records.RenameMap

	// Hooks, when set, runs the before:serialize / after:serialize / error
	// stages of the caller-owned pipeline around the operation.
	Hooks *hooks.Pipeline
}

// DefaultSerializeOptions returns the baseline configuration: comma
// delimiter, header row on, injection prevention on, RFC4180 line endings.
func DefaultSerializeOptions() SerializeOptions {
	return SerializeOptions{
		Delimiter:        ',',
		Quote:            '"',
		IncludeHeaders:   true,
		PreventInjection: true,
		RFC4180:          true,
	}
}

// Validate reports a *Error with KindConfiguration for malformed options.
func (o SerializeOptions) Validate() error {
	d := o.delimiter()
	if d == o.quoteByte() {
		return newErr(KindConfiguration, "delimiter %q equals quote character", d)
	}
	if d == '\n' || d == '\r' {
		return newErr(KindConfiguration, "delimiter must not be a line terminator")
	}
	if o.MaxRecords < 0 {
		return newErr(KindConfiguration, "MaxRecords must be >= 0, got %d", o.MaxRecords)
	}
	return nil
}

func (o SerializeOptions) delimiter() byte {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

func (o SerializeOptions) quoteByte() byte {
	if o.Quote == 0 {
		return '"'
	}
	return o.Quote
}

// DecodeDelimiter converts a user-supplied delimiter string into a single
// byte. Multi-character strings and non-ASCII runes are configuration errors;
// an empty string selects auto-detection.
func DecodeDelimiter(s string) (byte, error) {
	if s == "" {
		return AutoDelimiter, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != 1 || size != len(s) {
		return 0, newErr(KindConfiguration, "delimiter must be a single ASCII character, got %q", s)
	}
	return byte(r), nil
}
