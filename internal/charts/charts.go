// Package charts renders indicator series as standalone ECharts pages.
package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"painel/internal/catalog"
	"painel/internal/comparison"
)

const (
	width  = "100%"
	height = "320px"
)

// Line builds a line chart of points, oldest quarter first.
func Line(title string, unit catalog.Unit, points []comparison.Point) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     width,
			Height:    height,
			Theme:     types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: AxisName(unit),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: AxisName(unit)}),
	)

	data := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.LineData{Value: p.Value})
	}
	line.SetXAxis(comparison.Labels(points)).AddSeries(title, data)
	return line
}

// Render writes the chart of points as a complete HTML document.
func Render(w io.Writer, title string, unit catalog.Unit, points []comparison.Point) error {
	if err := Line(title, unit, points).Render(w); err != nil {
		return fmt.Errorf("render chart %q: %w", title, err)
	}
	return nil
}

// AxisName labels the value axis for unit.
func AxisName(unit catalog.Unit) string {
	switch unit {
	case catalog.Percentage:
		return "%"
	case catalog.Ratio:
		return "índice"
	}
	return "R$"
}
