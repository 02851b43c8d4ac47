package core

import (
	"errors"
	"testing"
)

func TestQuarterKeyRoundTrip(t *testing.T) {
	for year := 1999; year <= 2030; year++ {
		for n := 1; n <= 4; n++ {
			key := QuarterKey(year, n)
			q, err := ParseQuarterKey(key)
			if err != nil {
				t.Fatalf("%s: unexpected error %v", key, err)
			}
			if q.Year != year || q.Number != n {
				t.Fatalf("%s: round trip gave %+v", key, q)
			}
		}
	}
}

func TestQuarterKeyFormat(t *testing.T) {
	if got := QuarterKey(2024, 1); got != "2024-T1" {
		t.Fatalf("expected 2024-T1, got %s", got)
	}
	if got := (Quarter{Year: 2023, Number: 4}).Label(); got != "2023 - T4" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestParseQuarterKeyInvalid(t *testing.T) {
	bad := []string{
		"",
		"2024",
		"2024-Q1",
		"2024-T",
		"-T1",
		"abcd-T1",
		"2024-T0",
		"2024-T5",
		"2024-Tx",
		"2024-T1-T2",
		"+2024-T1",
		"-2024-T1",
		"2024-T01",
		"2024-T+1",
		"2024 -T1",
		"2024-T 1",
	}
	for _, in := range bad {
		_, err := ParseQuarterKey(in)
		if err == nil {
			t.Fatalf("%q expected error", in)
		}
		var qerr *InvalidQuarterKeyError
		if !errors.As(err, &qerr) {
			t.Fatalf("%q expected *InvalidQuarterKeyError, got %T", in, err)
		}
		if qerr.Key != in {
			t.Fatalf("%q error carries key %q", in, qerr.Key)
		}
		if !errors.Is(err, ErrInvalidQuarterKey) {
			t.Fatalf("%q expected errors.Is ErrInvalidQuarterKey", in)
		}
	}
}

func TestQuarterNavigation(t *testing.T) {
	q := Quarter{Year: 2024, Number: 1}
	if y := q.YearAgo(); y != (Quarter{Year: 2023, Number: 1}) {
		t.Fatalf("year ago of 2024-T1 = %v", y)
	}
	if !(Quarter{Year: 2023, Number: 4}).Before(q) {
		t.Fatalf("2023-T4 should be before 2024-T1")
	}
	if q.Before(q) {
		t.Fatalf("a quarter is not before itself")
	}
}

func TestQuarterOptions(t *testing.T) {
	opts := QuarterOptions(2023, 2025)
	if len(opts) != 12 {
		t.Fatalf("expected 12 options, got %d", len(opts))
	}
	if opts[0].Key() != "2023-T1" || opts[11].Key() != "2025-T4" {
		t.Fatalf("unexpected bounds %s..%s", opts[0], opts[11])
	}
	if QuarterOptions(2025, 2023) != nil {
		t.Fatalf("expected nil for inverted range")
	}
}
