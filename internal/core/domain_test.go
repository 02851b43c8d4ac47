package core

import (
	"errors"
	"math"
	"testing"
)

func TestCompanyValidate(t *testing.T) {
	good := Company{Name: "ROMI S.A.", Ticker: "romi3", InvestorRelationsURL: "https://ri.romi.com"}
	good.Normalize()
	if good.Ticker != "ROMI3" {
		t.Fatalf("expected ticker upper-cased, got %q", good.Ticker)
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Company{
		{Name: "", Ticker: "ROMI3", InvestorRelationsURL: "https://ri.romi.com"},
		{Name: "ROMI", Ticker: " ", InvestorRelationsURL: "https://ri.romi.com"},
		{Name: "ROMI", Ticker: "ROMI3", InvestorRelationsURL: ""},
		{Name: "ROMI", Ticker: "ROMI3", InvestorRelationsURL: "ri.romi.com"},
		{Name: "ROMI", Ticker: "ROMI3", InvestorRelationsURL: "ftp://ri.romi.com"},
		{Name: "ROMI", Ticker: "TOOLONGTICKER1", InvestorRelationsURL: "https://ri.romi.com"},
	}
	for i, c := range bads {
		err := c.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected ErrValidation, got %v", i, err)
		}
	}
}

func TestQuarterlyRecordValidate(t *testing.T) {
	good := QuarterlyRecord{CompanyID: "c1"}
	good.SetQuarter(Quarter{Year: 2024, Number: 1})
	good.Set(Ebitda, Float(25e6))
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mismatch := good
	mismatch.Quarter = "2024-T2"
	nan := good
	nan.Indicators = Indicators{}
	nan.Set(Roe, Float(math.NaN()))

	cases := []struct {
		name string
		r    QuarterlyRecord
		want error
	}{
		{"no company", QuarterlyRecord{Year: 2024, QuarterNumber: 1, Quarter: "2024-T1"}, ErrEmptyCompanyID},
		{"bad quarter", QuarterlyRecord{CompanyID: "c1", Year: 2024, QuarterNumber: 5, Quarter: "2024-T5"}, ErrInvalidQuarterNum},
		{"bad year", QuarterlyRecord{CompanyID: "c1", Year: 12, QuarterNumber: 1, Quarter: "12-T1"}, ErrInvalidYear},
		{"key mismatch", mismatch, ErrQuarterMismatch},
		{"nan", nan, ErrNonFiniteValue},
	}
	for _, tc := range cases {
		err := tc.r.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestIndicatorsAccess(t *testing.T) {
	var in Indicators
	for _, f := range Fields() {
		if !f.IsStored() {
			t.Fatalf("%s should be stored", f)
		}
		if _, ok := in.Value(f); ok {
			t.Fatalf("%s should start absent", f)
		}
	}
	if Field("unknown").IsStored() {
		t.Fatalf("unknown field should not be stored")
	}
	if in.Set(Field("unknown"), Float(1)) {
		t.Fatalf("setting unknown field should report false")
	}

	v := 12.5
	in.Set(Roe, &v)
	v = 99
	if got, ok := in.Value(Roe); !ok || got != 12.5 {
		t.Fatalf("expected copy of 12.5, got %v %v", got, ok)
	}
	if in.Count() != 1 {
		t.Fatalf("expected 1 value, got %d", in.Count())
	}
	in.Set(Roe, nil)
	if in.Get(Roe) != nil {
		t.Fatalf("expected Roe cleared")
	}
	if len(Fields()) != 23 {
		t.Fatalf("expected 23 fields, got %d", len(Fields()))
	}
}
