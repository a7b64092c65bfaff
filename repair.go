package tabular

import "strings"

// RepairStrategy recovers logical records that were fractured across two
// physical rows by unescaped structure (a stray quote or newline inside a
// field). Strategies inspect adjacent raw token rows before records are
// built, so they can be replaced or disabled without touching the tokenizer.
//
// Every built-in strategy is a best-effort heuristic with known
// false-negative risk: each triggers only on its documented signal, to avoid
// false merges on legitimately short rows. Repair is idempotent: a merged row
// is full width, so no strategy triggers on it again.
type RepairStrategy interface {
	// Merge reports whether next is the spilled continuation of cur, given
	// the expected column width. On a match it returns the repaired row that
	// replaces both.
	Merge(cur, next []string, width int) ([]string, bool)
}

// QuoteSpillRepair merges a row whose last non-empty field carries a quote
// character with the following row, on the theory that an unescaped quote
// made the line-oriented pre-split break one record in two.
//
// Trigger: cur is short by k >= 1 trailing columns, its last non-empty value
// contains the quote character (an odd count is the classic symptom; any
// occurrence is accepted), and next has k trailing values left over after its
// leading fields. The leading fields of next are newline-joined onto cur's
// last field; the remaining k values fill cur's missing columns.
type QuoteSpillRepair struct {
	// Quote is the quote character to look for. Zero means '"'.
	Quote byte
}

// Merge implements RepairStrategy.
func (r QuoteSpillRepair) Merge(cur, next []string, width int) ([]string, bool) {
	q := r.Quote
	if q == 0 {
		q = '"'
	}
	if width <= 0 || len(cur) > width {
		return nil, false
	}

	last := lastNonEmpty(cur)
	if last < 0 {
		return nil, false
	}
	k := width - 1 - last
	if k < 1 {
		return nil, false
	}
	if !strings.ContainsRune(cur[last], rune(q)) {
		return nil, false
	}

	lead := len(next) - k
	if lead < 1 || len(next) > width {
		return nil, false
	}
	for _, v := range next[:lead] {
		if v == "" {
			return nil, false
		}
	}

	merged := make([]string, width)
	copy(merged, cur[:last])
	merged[last] = cur[last] + "\n" + strings.Join(next[:lead], "\n")
	copy(merged[last+1:], next[lead:])
	return merged, true
}

// ShapeSignatureRepair merges under one narrow column-shape signature seen in
// damaged analytics exports: the current row ends in two or more empty
// columns, and the next row starts with a hex-color-like value and ends in
// browser-user-agent-like text. The leftover values are placed directly into
// the missing columns.
//
// This pattern is almost certainly specific to one ingestion source. It is
// kept out of the default chain's first position and behind the
// RepairStrategy interface precisely so it can be dropped without touching
// anything else; do not generalize its triggers.
type ShapeSignatureRepair struct{}

// Merge implements RepairStrategy.
func (ShapeSignatureRepair) Merge(cur, next []string, width int) ([]string, bool) {
	if width <= 0 || len(cur) > width {
		return nil, false
	}
	last := lastNonEmpty(cur)
	k := width - 1 - last
	if k < 2 || len(next) != k {
		return nil, false
	}
	if !hexColorLike(next[0]) {
		return nil, false
	}
	if !userAgentLike(next[len(next)-1]) {
		return nil, false
	}

	merged := make([]string, width)
	copy(merged, cur[:last+1])
	copy(merged[last+1:], next)
	return merged, true
}

func lastNonEmpty(row []string) int {
	for i := len(row) - 1; i >= 0; i-- {
		if row[i] != "" {
			return i
		}
	}
	return -1
}

// hexColorLike matches "#aabbcc" / "aabbcc" style values.
func hexColorLike(s string) bool {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// userAgentLike matches the handful of substrings every mainstream browser UA
// string carries.
func userAgentLike(s string) bool {
	return strings.Contains(s, "Mozilla/") ||
		strings.Contains(s, "AppleWebKit") ||
		strings.Contains(s, "Gecko/")
}

// tryRepair runs the strategies in order against one adjacent row pair.
func tryRepair(strategies []RepairStrategy, cur, next []string, width int) ([]string, bool) {
	for _, s := range strategies {
		if merged, ok := s.Merge(cur, next, width); ok {
			return merged, true
		}
	}
	return nil, false
}
