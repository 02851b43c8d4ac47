// Package comparison computes period-over-period values for one indicator
// over a company's quarterly records.
package comparison

import (
	"cmp"
	"math"
	"slices"

	"painel/internal/core"
)

// Result holds the prior-period values of a field. A nil pointer means no value.
type Result struct {
	PreviousQuarter     *float64 `json:"previous_quarter,omitempty"`
	SameQuarterLastYear *float64 `json:"same_quarter_last_year,omitempty"`
	// Keys of the records the values were read from, empty when absent.
	PreviousKey string `json:"previous_key,omitempty"`
	LastYearKey string `json:"last_year_key,omitempty"`
}

// Empty reports whether neither comparison is available.
func (r Result) Empty() bool {
	return r.PreviousQuarter == nil && r.SameQuarterLastYear == nil
}

// SortDescending returns a copy of records ordered by (year, quarter_number),
// most recent first. Ties keep their input order.
func SortDescending(records []core.QuarterlyRecord) []core.QuarterlyRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b core.QuarterlyRecord) int {
		if c := cmp.Compare(b.Year, a.Year); c != 0 {
			return c
		}
		return cmp.Compare(b.QuarterNumber, a.QuarterNumber)
	})
	return sorted
}

// Compare anchors on the most recent record whose field equals current and
// returns the field's value one quarter earlier and one year earlier.
//
// A nil or zero current value yields an empty result, as does a value no
// record carries. When several records share the value, the most recent one
// is the anchor.
func Compare(records []core.QuarterlyRecord, field core.Field, current *float64) Result {
	if current == nil || *current == 0 || len(records) < 2 {
		return Result{}
	}
	sorted := SortDescending(records)
	for i, r := range sorted {
		if v, ok := r.Value(field); ok && v == *current {
			return around(sorted, i, field)
		}
	}
	return Result{}
}

// CompareAt is Compare anchored on a quarter instead of on a value, which
// removes the ambiguity of duplicate values. As with Compare, a nil or zero
// value at the anchor yields an empty result.
func CompareAt(records []core.QuarterlyRecord, field core.Field, at core.Quarter) Result {
	sorted := SortDescending(records)
	for i, r := range sorted {
		if r.Year == at.Year && r.QuarterNumber == at.Number {
			if v, ok := r.Value(field); !ok || v == 0 {
				return Result{}
			}
			return around(sorted, i, field)
		}
	}
	return Result{}
}

func around(sorted []core.QuarterlyRecord, i int, field core.Field) Result {
	var res Result
	match := sorted[i]
	if i+1 < len(sorted) {
		prev := sorted[i+1]
		if v := prev.Get(field); v != nil {
			res.PreviousQuarter = copyOf(v)
			res.PreviousKey = prev.Quarter
		}
	}
	yearAgo := match.Period().YearAgo()
	for _, r := range sorted {
		if r.Period() == yearAgo {
			if v := r.Get(field); v != nil {
				res.SameQuarterLastYear = copyOf(v)
				res.LastYearKey = r.Quarter
			}
			break
		}
	}
	return res
}

func copyOf(v *float64) *float64 {
	c := *v
	return &c
}

// Change returns the percentage change from prior to current, relative to |prior|.
// It is not available when prior is zero or either value is not finite.
func Change(current, prior float64) (float64, bool) {
	if prior == 0 || math.IsNaN(current) || math.IsNaN(prior) || math.IsInf(current, 0) || math.IsInf(prior, 0) {
		return 0, false
	}
	return (current - prior) / math.Abs(prior) * 100.0, true
}

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendFlat    Trend = "flat"
	TrendUnknown Trend = "unknown"
)

// flatBand is the absolute percentage change treated as no movement.
const flatBand = 0.5

// TrendOf classifies the move from prior to current.
func TrendOf(current, prior *float64) Trend {
	if current == nil || prior == nil {
		return TrendUnknown
	}
	if *prior == 0 {
		switch {
		case *current > 0:
			return TrendUp
		case *current < 0:
			return TrendDown
		}
		return TrendFlat
	}
	pct, ok := Change(*current, *prior)
	if !ok {
		return TrendUnknown
	}
	switch {
	case pct > flatBand:
		return TrendUp
	case pct < -flatBand:
		return TrendDown
	}
	return TrendFlat
}
