package render

import (
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"sessionchart/internal/series"
)

// Line is one named input series plotted on the index axis.
type Line struct {
	Name   string
	Values []float64
}

const (
	averageName = "Average PRF"
	extremeName = "Max Avg PRF"
)

// AverageSeries returns one line per input followed by the average line and
// the maximum marker, so its length is always len(lines)+2.
func AverageSeries(lines []Line, res series.Result) []chart.Series {
	out := make([]chart.Series, 0, len(lines)+2)
	for i, line := range lines {
		out = append(out, chart.ContinuousSeries{
			Name:    line.Name,
			Style:   lineStyle(palette[i%len(palette)], 2),
			XValues: indices(len(line.Values)),
			YValues: line.Values,
		})
	}

	out = append(out, chart.ContinuousSeries{
		Name:    averageName,
		Style:   lineStyle(chart.ColorRed, 2),
		XValues: indices(res.Len()),
		YValues: res.Average,
	})
	out = append(out, chart.ContinuousSeries{
		Name:    extremeName,
		Style:   pointStyle(chart.ColorBlue, 5),
		XValues: []float64{float64(res.Extreme.Index)},
		YValues: []float64{res.Extreme.Value},
	})
	return out
}

// AverageChart plots every input, their average, and a labelled maximum.
func AverageChart(lines []Line, res series.Result, size Size) *chart.Chart {
	if res.Len() == 0 {
		return nil
	}
	size = size.orDefault()

	all := make([][]float64, 0, len(lines)+1)
	for _, line := range lines {
		all = append(all, line.Values)
	}
	all = append(all, res.Average)
	lo, hi := bounds(all...)

	ext := res.Extreme
	seriesList := AverageSeries(lines, res)
	seriesList = append(seriesList, chart.AnnotationSeries{
		Name: "max label",
		Annotations: []chart.Value2{{
			XValue: float64(ext.Index),
			YValue: ext.Value,
			Label:  fmt.Sprintf("%s: %.2f", extremeName, ext.Value),
		}},
	})

	graph := chart.Chart{
		Width:  size.Width,
		Height: size.Height,
		XAxis: chart.XAxis{
			Name:           "Index",
			Range:          indexRange(res.Len()),
			ValueFormatter: chart.IntValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "PRF",
			Range:          paddedRange(lo, hi),
			ValueFormatter: valueFormatter,
		},
		Series: seriesList,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return &graph
}

func indices(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}
