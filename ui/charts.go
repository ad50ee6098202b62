package ui

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"inspectdash/domain/inspection"
	"inspectdash/internal/analysis"
)

const chartSize = 360

var statusColors = map[inspection.Status]drawing.Color{
	inspection.StatusCompleted: drawing.ColorFromHex("2ecc71"),
	inspection.StatusOverdue:   drawing.ColorFromHex("e74c3c"),
}

// renderStatusDonut draws the status breakdown as an SVG donut. Zero slices
// are left out; an empty view renders a placeholder instead of a chart.
func renderStatusDonut(w io.Writer, breakdown []analysis.StatusCount) error {
	total := 0
	values := make([]chart.Value, 0, len(breakdown))
	for _, sc := range breakdown {
		total += sc.Count
		if sc.Count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(sc.Count),
			Label: sc.Status.String(),
			Style: chart.Style{
				FillColor:   statusColors[sc.Status],
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}

	if total == 0 {
		_, err := fmt.Fprintf(w,
			`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" fill="#6c757d">Sin datos</text></svg>`,
			chartSize, chartSize, chartSize/2, chartSize/2)
		return err
	}

	donut := chart.DonutChart{
		Width:  chartSize,
		Height: chartSize,
		Values: values,
	}
	return donut.Render(chart.SVG, w)
}
