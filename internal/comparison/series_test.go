package comparison

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"painel/internal/core"
)

func TestSeriesOldestFirstSkippingAbsent(t *testing.T) {
	records := []core.QuarterlyRecord{
		rec(2024, 1, core.Roe, f(12.5)),
		rec(2023, 4, core.Roe, f(11.2)),
		rec(2023, 3, core.Ebitda, f(1)),
		rec(2023, 2, core.Roe, f(9.5)),
	}
	got := Series(records, core.Roe)
	assert.Equal(t, []Point{
		{Quarter: "2023-T2", Value: 9.5},
		{Quarter: "2023-T4", Value: 11.2},
		{Quarter: "2024-T1", Value: 12.5},
	}, got)
	assert.Equal(t, []string{"2023-T2", "2023-T4", "2024-T1"}, Labels(got))
	assert.Equal(t, []float64{9.5, 11.2, 12.5}, Values(got))

	assert.Empty(t, Series(records, core.Roa))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))

	one := Summarize([]Point{{Quarter: "2024-T1", Value: 3}})
	assert.Equal(t, Stats{Count: 1, Min: 3, Max: 3, Mean: 3}, one)

	s := Summarize([]Point{{Value: 2}, {Value: 4}, {Value: 6}})
	require.Equal(t, 3, s.Count)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 6.0, s.Max)
	assert.InDelta(t, 4.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.StdDev, 1e-9)
	assert.False(t, math.IsNaN(s.StdDev))
}
