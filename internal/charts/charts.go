// Package charts renders the aggregated series as PNG images: a pie chart
// for the category breakdown and a bar chart for the per-day totals.
package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"expenses/internal/core"
)

// Renderer draws chart PNGs at a fixed size.
type Renderer struct {
	width  int
	height int
}

func NewRenderer() *Renderer {
	return &Renderer{width: 600, height: 400}
}

// CategoryPie renders the per-category totals as a pie chart.
// Returns nil bytes when the series is empty.
func (r *Renderer) CategoryPie(series []core.CategoryAmount) ([]byte, error) {
	if len(series) == 0 {
		return nil, nil
	}

	values := make([]chart.Value, len(series))
	for i, ca := range series {
		values[i] = chart.Value{
			Label: fmt.Sprintf("%s (%s)", ca.Category, ca.Amount.Format()),
			Value: ca.Amount.Value(),
		}
	}

	pie := chart.PieChart{
		Width:  r.width,
		Height: r.height,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buf.Bytes(), nil
}

// DayBars renders the per-day totals as a bar chart, dates ascending.
// Returns nil bytes when the series is empty.
func (r *Renderer) DayBars(series []core.DayAmount) ([]byte, error) {
	if len(series) == 0 {
		return nil, nil
	}

	bars := make([]chart.Value, len(series))
	for i, da := range series {
		bars[i] = chart.Value{
			Label: da.Date.Format("01-02"),
			Value: da.Amount.Value(),
		}
	}

	bar := chart.BarChart{
		Width:    r.width,
		Height:   r.height,
		BarWidth: barWidth(r.width, len(bars)),
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bar.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render day chart: %w", err)
	}
	return buf.Bytes(), nil
}

// barWidth spreads the bars across the drawable width, clamped so a single
// bar does not fill the chart and many bars stay visible.
func barWidth(width, n int) int {
	w := (width - 100) / (2 * n)
	if w < 6 {
		w = 6
	}
	if w > 60 {
		w = 60
	}
	return w
}
