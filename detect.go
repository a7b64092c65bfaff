package tabular

import "strings"

// DefaultCandidates is the default delimiter candidate set, in tie-break
// order.
var DefaultCandidates = []byte{';', ',', '\t', '|'}

// DetectDelimiter inspects the first non-empty line of sample and returns the
// candidate with the highest occurrence count. Ties break by candidate order;
// when every count is zero (or the sample is empty), the first candidate is
// returned as a safe default rather than failing.
//
// This is a best-effort heuristic, not a guarantee: quoted content on the
// first line can inflate a candidate's count. An explicitly configured
// delimiter always overrides detection. The function is pure: the same
// (sample, candidates) pair always yields the same result.
func DetectDelimiter(sample string, candidates []byte) byte {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	line := firstNonEmptyLine(sample)

	best := candidates[0]
	bestCount := 0
	for _, c := range candidates {
		n := strings.Count(line, string(c))
		if n > bestCount {
			best = c
			bestCount = n
		}
	}
	return best
}

// firstNonEmptyLine returns the first line of s that contains any
// non-whitespace byte, or "" when there is none.
func firstNonEmptyLine(s string) string {
	for len(s) > 0 {
		var line string
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			line, s = s[:i], s[i+1:]
		} else {
			line, s = s, ""
		}
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
