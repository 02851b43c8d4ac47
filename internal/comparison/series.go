package comparison

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"painel/internal/core"
)

// Point is one quarter of a chart series.
type Point struct {
	Quarter string  `json:"quarter"`
	Value   float64 `json:"value"`
}

// Series returns the quarters where field was reported, oldest first.
func Series(records []core.QuarterlyRecord, field core.Field) []Point {
	sorted := SortDescending(records)
	slices.Reverse(sorted)
	out := make([]Point, 0, len(sorted))
	for _, r := range sorted {
		if v, ok := r.Value(field); ok {
			out = append(out, Point{Quarter: r.Quarter, Value: v})
		}
	}
	return out
}

// Stats summarizes a series.
type Stats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes Stats over the values of points. StdDev is the sample
// standard deviation and is zero for fewer than two points.
func Summarize(points []Point) Stats {
	if len(points) == 0 {
		return Stats{}
	}
	vals := Values(points)
	s := Stats{
		Count: len(vals),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
		Mean:  stat.Mean(vals, nil),
	}
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	return s
}

// Values extracts the values of points in order.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// Labels extracts the quarter keys of points in order.
func Labels(points []Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Quarter
	}
	return out
}
