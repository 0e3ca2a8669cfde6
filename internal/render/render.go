// Package render turns computed views into go-chart charts. Builders are pure:
// they return a new chart handle and never hold on to one, so the caller
// decides when a chart is published or replaced.
package render

import (
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Size is the output image size in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize matches the exported PNG dimensions used elsewhere.
var DefaultSize = Size{Width: 1280, Height: 720}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

var palette = []drawing.Color{
	drawing.ColorFromHex("007bff"),
	drawing.ColorFromHex("28a745"),
	drawing.ColorFromHex("dc3545"),
	drawing.ColorFromHex("ffc107"),
	drawing.ColorFromHex("17a2b8"),
}

func lineStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: width,
	}
}

// pointStyle renders points only (no connecting line).
func pointStyle(col drawing.Color, size float64) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    size,
		DotColor:    col,
	}
}

func valueFormatter(v interface{}) string {
	return chart.FloatValueFormatterWithFormat(v, "%.2f")
}

// bounds returns the min and max across all values.
func bounds(values ...[]float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vs := range values {
		for _, v := range vs {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

// paddedRange widens [lo, hi] by 5% so lines do not sit on the frame, and
// gives a flat series a non-zero span.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(hi), 1)
	}
	pad := span * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func timeRange(times []time.Time) *chart.ContinuousRange {
	if len(times) == 0 {
		return nil
	}
	lo, hi := times[0], times[len(times)-1]
	if !hi.After(lo) {
		lo, hi = lo.Add(-time.Minute), hi.Add(time.Minute)
	}
	return &chart.ContinuousRange{Min: chart.TimeToFloat64(lo), Max: chart.TimeToFloat64(hi)}
}

func indexRange(n int) *chart.ContinuousRange {
	return &chart.ContinuousRange{Min: 0, Max: math.Max(1, float64(n-1))}
}
