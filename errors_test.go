package tabular

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := newErr(KindConfiguration, "bad delimiter %q", ';')
	if !strings.Contains(e.Error(), "configuration") || !strings.Contains(e.Error(), "';'") {
		t.Fatalf("Error() = %q", e.Error())
	}

	cause := errors.New("disk gone")
	w := wrapErr(KindValidation, cause, "reading sample")
	if !errors.Is(w, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !strings.Contains(w.Error(), "disk gone") {
		t.Errorf("Error() = %q", w.Error())
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{newErr(KindConfiguration, "x"), KindConfiguration},
		{newErr(KindSecurity, "x"), KindSecurity},
		{fmt.Errorf("wrapped: %w", newErr(KindValidation, "x")), KindValidation},
		{&ParseError{Line: 1, Column: 2, Err: ErrUnterminatedQuote}, KindParsing},
		{&LimitError{Limit: 10, Observed: 11}, KindLimit},
		{errors.New("plain"), ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestLimitErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("stage: %w", &LimitError{Limit: 5, Observed: 6})
	if !errors.Is(err, ErrRowLimit) {
		t.Fatal("LimitError does not match ErrRowLimit")
	}
}

func TestParseErrorMessageCarriesPosition(t *testing.T) {
	e := &ParseError{Line: 7, Column: 12, Err: ErrUnterminatedQuote}
	msg := e.Error()
	if !strings.Contains(msg, "line 7") || !strings.Contains(msg, "column 12") {
		t.Fatalf("message = %q", msg)
	}
}
