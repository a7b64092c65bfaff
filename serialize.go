package tabular

import (
	"context"
	"strconv"
	"strings"

	"tabular/hooks"
	"tabular/records"
)

// Serialize converts records into escaped, delimiter-joined text. Column
// order is the Template when set, otherwise the field-name union across the
// serialized records in first-seen order. MaxRecords truncates before the
// union is computed, so columns from capped-off records never appear.
func Serialize(recs []*records.Record, opt SerializeOptions) (string, error) {
	return SerializeContext(context.Background(), recs, opt)
}

// SerializeContext is Serialize with a context for the hook pipeline.
func SerializeContext(ctx context.Context, recs []*records.Record, opt SerializeOptions) (string, error) {
	if err := opt.Validate(); err != nil {
		opt.Hooks.Fire(ctx, err)
		return "", err
	}

	if opt.Hooks != nil {
		v, err := opt.Hooks.Run(ctx, hooks.BeforeSerialize, recs)
		if err != nil {
			opt.Hooks.Fire(ctx, err)
			return "", err
		}
		in, ok := v.([]*records.Record)
		if !ok {
			err := newErr(KindValidation, "before:serialize hook returned %T, want []*records.Record", v)
			opt.Hooks.Fire(ctx, err)
			return "", err
		}
		recs = in
	}

	text, err := serializeAll(recs, opt)
	if err != nil {
		opt.Hooks.Fire(ctx, err)
		return "", err
	}

	if opt.Hooks != nil {
		v, err := opt.Hooks.Run(ctx, hooks.AfterSerialize, text)
		if err != nil {
			opt.Hooks.Fire(ctx, err)
			return "", err
		}
		out, ok := v.(string)
		if !ok {
			err := newErr(KindValidation, "after:serialize hook returned %T, want string", v)
			opt.Hooks.Fire(ctx, err)
			return "", err
		}
		text = out
	}
	return text, nil
}

func serializeAll(recs []*records.Record, opt SerializeOptions) (string, error) {
	if opt.MaxRecords > 0 && len(recs) > opt.MaxRecords {
		if opt.HardLimit {
			return "", &LimitError{Limit: opt.MaxRecords, Observed: len(recs)}
		}
		recs = recs[:opt.MaxRecords]
	}

	cols := records.Columns(recs, opt.Template, opt.MaxRecords)

	var b strings.Builder
	if opt.IncludeHeaders && len(cols) > 0 {
		writeRow(&b, outputHeaders(cols, opt.Rename), opt)
	}
	for _, rec := range recs {
		if rec == nil {
			return "", newErr(KindValidation, "record source contains a nil record")
		}
		writeRecord(&b, rec, cols, opt)
	}
	return b.String(), nil
}

// writeRecord emits one record in the fixed column order; absent fields and
// nils serialize as empty.
func writeRecord(b *strings.Builder, rec *records.Record, cols []string, opt SerializeOptions) {
	fields := make([]string, len(cols))
	for i, c := range cols {
		v, ok := rec.Get(c)
		if !ok {
			continue
		}
		fields[i] = fieldString(v)
	}
	writeRow(b, fields, opt)
}

func writeRow(b *strings.Builder, fields []string, opt SerializeOptions) {
	delim := opt.delimiter()
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(delim)
		}
		b.WriteString(escapeField(f, opt))
	}
	if opt.RFC4180 {
		b.WriteString("\r\n")
	} else {
		b.WriteByte('\n')
	}
}

// fieldString renders a scalar value for output. Floats use the shortest
// representation that round-trips, so 1 serializes as "1", not "1.000000".
func fieldString(v records.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}

// escapeField applies injection neutralization and RFC4180 quoting to one
// rendered field.
func escapeField(s string, opt SerializeOptions) string {
	if opt.PreventInjection && formulaLike(s, opt.quoteByte()) {
		s = "'" + s
	}
	delim := opt.delimiter()
	quote := opt.quoteByte()
	if strings.IndexByte(s, delim) < 0 &&
		strings.IndexByte(s, quote) < 0 &&
		strings.IndexByte(s, '\n') < 0 &&
		strings.IndexByte(s, '\r') < 0 {
		return s
	}
	q := string(quote)
	return q + strings.ReplaceAll(s, q, q+q) + q
}

// formulaLike reports whether a spreadsheet would treat s as a formula: after
// optional leading whitespace and at most one leading quote character, the
// value starts with '=', '+', '-', or '@'.
func formulaLike(s string, quote byte) bool {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i < len(s) && s[i] == quote {
		i++
	}
	if i >= len(s) {
		return false
	}
	switch s[i] {
	case '=', '+', '-', '@':
		return true
	}
	return false
}
