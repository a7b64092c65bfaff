package tabular

import "testing"

func TestCoerceValue(t *testing.T) {
	opt := DefaultParseOptions()
	cases := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"42", float64(42)},
		{"-7", float64(-7)},
		{"+3", float64(3)},
		{"3.14", 3.14},
		{"1e3", float64(1000)},
		{"2.5E-2", 0.025},
		{"true", true},
		{"TRUE", true},
		{"False", false},
		{"hello", "hello"},
		{"42abc", "42abc"},
		{"1.2.3", "1.2.3"},
		{".", "."},
		{"-", "-"},
		{"+", "+"},
		{"1e", "1e"},
		{"e5", "e5"},
		// ParseFloat would accept these; tabular data keeps them as strings.
		{"Inf", "Inf"},
		{"-Inf", "-Inf"},
		{"NaN", "NaN"},
		{"0x1F", "0x1F"},
		{"1_000", "1_000"},
	}
	for _, tc := range cases {
		got := coerceValue(tc.in, opt)
		if got != tc.want {
			t.Errorf("coerceValue(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestCoerceValueDisabled(t *testing.T) {
	opt := ParseOptions{}
	if got := coerceValue("42", opt); got != "42" {
		t.Errorf("numbers off: got %#v", got)
	}
	if got := coerceValue("true", opt); got != "true" {
		t.Errorf("booleans off: got %#v", got)
	}
	if got := coerceValue("", opt); got != nil {
		t.Errorf("empty: got %#v, want nil", got)
	}
}

func TestLooksNumeric(t *testing.T) {
	for s, want := range map[string]bool{
		"0":      true,
		"007":    true,
		"-1.5":   true,
		"1e10":   true,
		"1E+2":   true,
		"1e-2":   true,
		"1e2.5":  false,
		"--1":    false,
		"1-1":    false,
		"12.3.4": false,
		".5":     true,
		"5.":     true,
	} {
		if got := looksNumeric(s); got != want {
			t.Errorf("looksNumeric(%q) = %v, want %v", s, got, want)
		}
	}
}
