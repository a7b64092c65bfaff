package tabular

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tabular/records"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// normalizeHeaders produces canonical column keys from a raw header row:
// trim, BOM strip on the first cell, HeaderMap lookup, then lowercase with
// spaces as underscores. FoldHeaders additionally strips diacritics so
// localized headers become plain ASCII keys.
func normalizeHeaders(h []string, opt ParseOptions) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if m, ok := opt.HeaderMap[c]; ok {
				res[i] = m
				continue
			}
		}
		c = strings.ReplaceAll(strings.ToLower(c), " ", "_")
		if opt.FoldHeaders {
			c = foldASCII(c)
		}
		res[i] = c
	}
	return res
}

// foldASCII removes combining marks: NFD decompose, drop the marks, NFC
// recompose.
func foldASCII(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// keyFor returns the column key for index idx, using headers when available,
// otherwise synthesizing a "col_N" name.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

// syntheticHeaders names width positional columns col_0..col_N-1.
func syntheticHeaders(width int) []string {
	h := make([]string, width)
	for i := range h {
		h[i] = keyFor(i, nil)
	}
	return h
}

// outputHeaders applies the rename map to column names for serialization.
func outputHeaders(cols []string, rm records.RenameMap) []string {
	if len(rm) == 0 {
		return cols
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		if mapped, ok := rm[c]; ok {
			out[i] = mapped
			continue
		}
		out[i] = c
	}
	return out
}
