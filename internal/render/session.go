package render

import (
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"sessionchart/internal/fetcher"
)

// Field names of a recorded session row.
const (
	FieldPrice  = "price"
	FieldLong   = "np1"
	FieldShort  = "np2"
	FieldProfit = "prf"
)

// SessionColumns is the decoded chart data of one recorded session.
type SessionColumns struct {
	Times  []time.Time
	Price  []float64
	Long   []float64
	Short  []float64
	Profit []float64
}

// Columns extracts chart columns from raw records. Clock-only times land on
// day. Missing position or profit values plot as zero; a missing price or an
// unreadable time is an error.
func Columns(records []fetcher.RawRecord, day time.Time) (SessionColumns, error) {
	cols := SessionColumns{
		Times:  make([]time.Time, len(records)),
		Price:  make([]float64, len(records)),
		Long:   make([]float64, len(records)),
		Short:  make([]float64, len(records)),
		Profit: make([]float64, len(records)),
	}
	for i, rec := range records {
		ts, err := rec.Timestamp(day)
		if err != nil {
			return SessionColumns{}, fmt.Errorf("record %d: %w", i, err)
		}
		price, ok := rec.Field(FieldPrice)
		if !ok {
			if price, ok = rec.Field("now_prc"); !ok {
				return SessionColumns{}, fmt.Errorf("record %d: missing %s", i, FieldPrice)
			}
		}
		cols.Times[i] = ts
		cols.Price[i] = price.InexactFloat64()
		cols.Long[i] = fieldOrZero(rec, FieldLong)
		cols.Short[i] = fieldOrZero(rec, FieldShort)
		cols.Profit[i] = fieldOrZero(rec, FieldProfit)
	}
	return cols, nil
}

func fieldOrZero(rec fetcher.RawRecord, name string) float64 {
	if v, ok := rec.Field(name); ok {
		return v.InexactFloat64()
	}
	return 0
}

// SessionChart plots price on the secondary axis and long, short and profit on
// the primary axis.
func SessionChart(cols SessionColumns, size Size) *chart.Chart {
	if len(cols.Times) == 0 {
		return nil
	}
	size = size.orDefault()

	priceLo, priceHi := bounds(cols.Price)
	lo, hi := bounds(cols.Long, cols.Short, cols.Profit)

	graph := chart.Chart{
		Width:  size.Width,
		Height: size.Height,
		XAxis: chart.XAxis{
			Name:           "Time",
			Range:          timeRange(cols.Times),
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "long, short, and profit",
			Range:          paddedRange(lo, hi),
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "price",
			Range:          paddedRange(priceLo, priceHi),
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "price",
				Style:   lineStyle(palette[0], 2),
				YAxis:   chart.YAxisSecondary,
				XValues: cols.Times,
				YValues: cols.Price,
			},
			chart.TimeSeries{
				Name:    "long",
				Style:   lineStyle(palette[1], 1),
				XValues: cols.Times,
				YValues: cols.Long,
			},
			chart.TimeSeries{
				Name:    "short",
				Style:   lineStyle(palette[2], 1),
				XValues: cols.Times,
				YValues: cols.Short,
			},
			chart.TimeSeries{
				Name:    "profit",
				Style:   lineStyle(chart.ColorRed, 3),
				XValues: cols.Times,
				YValues: cols.Profit,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return &graph
}
