package comparison

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"painel/internal/core"
)

func rec(year, q int, field core.Field, v *float64) core.QuarterlyRecord {
	r := core.QuarterlyRecord{CompanyID: "c1"}
	r.SetQuarter(core.Quarter{Year: year, Number: q})
	r.Set(field, v)
	return r
}

func f(v float64) *float64 { return &v }

func TestCompareScenario(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2024, 1, core.Ebitda, f(25e6)),
		rec(2023, 4, core.Ebitda, f(22e6)),
		rec(2023, 1, core.Ebitda, f(18e6)),
	}
	got := Compare(records, core.Ebitda, f(25e6))
	require.NotNil(t, got.PreviousQuarter)
	require.NotNil(t, got.SameQuarterLastYear)
	assert.Equal(t, 22e6, *got.PreviousQuarter)
	assert.Equal(t, 18e6, *got.SameQuarterLastYear)
	assert.Equal(t, "2023-T4", got.PreviousKey)
	assert.Equal(t, "2023-T1", got.LastYearKey)
}

func TestCompareIgnoresInputOrder(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2023, 1, core.Ebitda, f(18e6)),
		rec(2024, 1, core.Ebitda, f(25e6)),
		rec(2023, 4, core.Ebitda, f(22e6)),
	}
	snapshot := append([]core.QuarterlyRecord(nil), records...)

	got := Compare(records, core.Ebitda, f(25e6))
	require.NotNil(t, got.PreviousQuarter)
	assert.Equal(t, 22e6, *got.PreviousQuarter)
	assert.Equal(t, 18e6, *got.SameQuarterLastYear)
	assert.Equal(t, snapshot, records, "input must not be mutated")
}

func TestCompareSingleRecord(t *testing.T) {
	records := []core.QuarterlyRecord{rec(2023, 1, core.Ebitda, f(18e6))}
	assert.True(t, Compare(records, core.Ebitda, f(18e6)).Empty())
	assert.True(t, Compare(nil, core.Ebitda, f(18e6)).Empty())
}

func TestCompareFalsyCurrent(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2024, 1, core.Roe, f(0)),
		rec(2023, 4, core.Roe, f(11.2)),
		rec(2023, 1, core.Roe, f(9)),
	}
	assert.True(t, Compare(records, core.Roe, nil).Empty())
	assert.True(t, Compare(records, core.Roe, f(0)).Empty())
}

func TestCompareNoMatch(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2024, 1, core.Roe, f(12.5)),
		rec(2023, 4, core.Roe, f(11.2)),
	}
	assert.True(t, Compare(records, core.Roe, f(99)).Empty())
}

func TestCompareOldestMatch(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2024, 1, core.Roe, f(12.5)),
		rec(2023, 4, core.Roe, f(11.2)),
	}
	got := Compare(records, core.Roe, f(11.2))
	assert.Nil(t, got.PreviousQuarter, "oldest record has no previous quarter")
	assert.Nil(t, got.SameQuarterLastYear)
}

func TestComparePreviousWithoutValue(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2024, 2, core.Roe, f(12.5)),
		rec(2024, 1, core.Ebitda, f(1)), // roe not reported
		rec(2023, 2, core.Roe, f(10)),
	}
	got := Compare(records, core.Roe, f(12.5))
	assert.Nil(t, got.PreviousQuarter)
	assert.Empty(t, got.PreviousKey)
	require.NotNil(t, got.SameQuarterLastYear)
	assert.Equal(t, 10.0, *got.SameQuarterLastYear)
}

func TestCompareDuplicateValuePicksMostRecent(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2023, 2, core.Roe, f(10)),
		rec(2024, 2, core.Roe, f(10)),
		rec(2024, 1, core.Roe, f(8)),
		rec(2023, 1, core.Roe, f(7)),
	}
	got := Compare(records, core.Roe, f(10))
	require.NotNil(t, got.PreviousQuarter)
	assert.Equal(t, 8.0, *got.PreviousQuarter)
	assert.Equal(t, "2024-T1", got.PreviousKey)
	require.NotNil(t, got.SameQuarterLastYear)
	assert.Equal(t, "2023-T2", got.LastYearKey)

	// anchoring on identity reaches the older quarter that value matching cannot
	at := CompareAt(records, core.Roe, core.Quarter{Year: 2023, Number: 2})
	require.NotNil(t, at.PreviousQuarter)
	assert.Equal(t, 7.0, *at.PreviousQuarter)
	assert.Nil(t, at.SameQuarterLastYear)
}

// The previous quarter is always the chronologically next-older record and the
// year-ago value exists exactly when a (year-1, same quarter) record exists.
func TestCompareProperties(t *testing.T) {
	var records []core.QuarterlyRecord
	v := 1.0
	for _, q := range core.QuarterOptions(2020, 2024) {
		if q.Year == 2022 && q.Number == 3 {
			continue // gap
		}
		records = append(records, rec(q.Year, q.Number, core.Ebit, f(v)))
		v++
	}
	sorted := SortDescending(records)
	for i, r := range sorted {
		cur, _ := r.Value(core.Ebit)
		got := Compare(records, core.Ebit, &cur)

		if i == len(sorted)-1 {
			assert.Nil(t, got.PreviousQuarter)
		} else {
			require.NotNil(t, got.PreviousQuarter)
			assert.Equal(t, sorted[i+1].Quarter, got.PreviousKey)
			assert.True(t, sorted[i+1].Period().Before(r.Period()))
		}

		hasYearAgo := false
		for _, o := range records {
			if o.Year == r.Year-1 && o.QuarterNumber == r.QuarterNumber {
				hasYearAgo = true
			}
		}
		assert.Equal(t, hasYearAgo, got.SameQuarterLastYear != nil, r.Quarter)

		assert.Equal(t, got, CompareAt(records, core.Ebit, r.Period()), r.Quarter)
	}
}

func TestCompareAtMissingQuarter(t *testing.T) {
	records := []core.QuarterlyRecord{rec(2024, 1, core.Roe, f(1))}
	assert.True(t, CompareAt(records, core.Roe, core.Quarter{Year: 2020, Number: 1}).Empty())
}

func TestSortDescending(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2023, 4, core.Roe, nil),
		rec(2024, 1, core.Roe, nil),
		rec(2023, 1, core.Roe, nil),
		rec(2024, 3, core.Roe, nil),
	}
	var keys []string
	for _, r := range SortDescending(records) {
		keys = append(keys, r.Quarter)
	}
	assert.Equal(t, []string{"2024-T3", "2024-T1", "2023-T4", "2023-T1"}, keys)
}

func TestChange(t *testing.T) {
	pct, ok := Change(110, 100)
	require.True(t, ok)
	assert.InDelta(t, 10.0, pct, 1e-9)

	pct, ok = Change(-50, -100)
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct, 1e-9)

	_, ok = Change(1, 0)
	assert.False(t, ok)
}

func TestTrendOf(t *testing.T) {
	cases := []struct {
		name    string
		current *float64
		prior   *float64
		want    Trend
	}{
		{"missing current", nil, f(1), TrendUnknown},
		{"missing prior", f(1), nil, TrendUnknown},
		{"up", f(110), f(100), TrendUp},
		{"down", f(90), f(100), TrendDown},
		{"within band", f(100.4), f(100), TrendFlat},
		{"from zero up", f(1), f(0), TrendUp},
		{"from zero down", f(-1), f(0), TrendDown},
		{"zero to zero", f(0), f(0), TrendFlat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TrendOf(tc.current, tc.prior))
		})
	}
}

func TestCompareAtFalsyAnchor(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2024, 1, core.Roe, f(0)),
		rec(2023, 4, core.Roe, f(5)),
		rec(2023, 1, core.Roe, f(4)),
		rec(2024, 2, core.Roe, nil),
	}
	assert.True(t, CompareAt(records, core.Roe, core.Quarter{Year: 2024, Number: 1}).Empty(), "zero anchor")
	assert.True(t, CompareAt(records, core.Roe, core.Quarter{Year: 2024, Number: 2}).Empty(), "absent anchor")
}
