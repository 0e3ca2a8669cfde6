package render

import (
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"sessionchart/internal/live"
)

var channelColors = map[live.Channel]int{
	live.ChannelNP1: 2,
	live.ChannelNP2: 1,
}

// LiveChart plots one live view: price on the secondary axis, positions and
// normalized profit on the primary axis, and a label per change event. It
// returns nil for an empty view.
func LiveChart(view live.View, size Size) *chart.Chart {
	if view.Empty() {
		return nil
	}
	size = size.orDefault()

	priceAxis := paddedRange(view.PriceRange.Min, view.PriceRange.Max)
	lo, hi := bounds(view.NP1, view.NP2, view.NormalizedProfit)

	seriesList := []chart.Series{
		chart.TimeSeries{
			Name:    "now_prc",
			Style:   lineStyle(chart.ColorBlue, 1),
			YAxis:   chart.YAxisSecondary,
			XValues: view.Times,
			YValues: view.Price,
		},
		chart.TimeSeries{
			Name:    "np1",
			Style:   lineStyle(palette[channelColors[live.ChannelNP1]], 1),
			XValues: view.Times,
			YValues: view.NP1,
		},
		chart.TimeSeries{
			Name:    "np2",
			Style:   lineStyle(palette[channelColors[live.ChannelNP2]], 1),
			XValues: view.Times,
			YValues: view.NP2,
		},
		chart.TimeSeries{
			Name:    "prf",
			Style:   lineStyle(palette[4], 1),
			XValues: view.Times,
			YValues: view.NormalizedProfit,
		},
	}

	unitsPerPixel := (priceAxis.Max - priceAxis.Min) / float64(size.Height)
	for _, ch := range live.Channels {
		var notes []chart.Value2
		for _, p := range view.Placements {
			if p.Channel != ch {
				continue
			}
			notes = append(notes, chart.Value2{
				XValue: chart.TimeToFloat64(p.Event.Time),
				YValue: AnnotationY(p, unitsPerPixel),
				Label:  fmt.Sprintf("%s %s", p.Event.Label, p.Event.Value.String()),
			})
		}
		if len(notes) == 0 {
			continue
		}
		seriesList = append(seriesList, chart.AnnotationSeries{
			Name:        string(ch) + " changes",
			YAxis:       chart.YAxisSecondary,
			Annotations: notes,
		})
	}

	graph := chart.Chart{
		Width:  size.Width,
		Height: size.Height,
		XAxis: chart.XAxis{
			Name:           "Time",
			Range:          timeRange(view.Times),
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "positions / normalized profit",
			Range:          paddedRange(lo, hi),
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "now_prc",
			Range:          priceAxis,
			ValueFormatter: valueFormatter,
		},
		Series: seriesList,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return &graph
}

// AnnotationY converts a placement's pixel offset into axis units. Negative
// offsets move the label up, as on a screen.
func AnnotationY(p live.Placement, unitsPerPixel float64) float64 {
	return p.YValue - float64(p.YAdjust)*unitsPerPixel
}
