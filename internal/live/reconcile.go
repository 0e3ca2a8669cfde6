package live

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Channel names a position-size field watched for changes.
type Channel string

const (
	ChannelNP1 Channel = "np1"
	ChannelNP2 Channel = "np2"
)

// Channels lists the watched channels in display order.
var Channels = []Channel{ChannelNP1, ChannelNP2}

// Label offsets in pixels, cycled per channel. The tables point in opposite
// directions so co-located labels of the two channels never overlap.
var offsetTables = map[Channel][6]int{
	ChannelNP1: {-20, -40, -60, -80, -100, -120},
	ChannelNP2: {20, 40, 60, 80, 100, 120},
}

// Labels carries the category label of each channel.
type Labels struct {
	NP1 string
	NP2 string
}

func (l Labels) get(ch Channel) string {
	if ch == ChannelNP2 {
		return l.NP2
	}
	return l.NP1
}

// Options parameterise a reconciliation.
type Options struct {
	// Now supplies the calendar date for decoded clock readings.
	Now time.Time
	// Location defaults to time.Local.
	Location *time.Location
	// PreviousLabels seeds label fallback for records without a category.
	PreviousLabels Labels
}

// ChangeEvent marks a record whose position size differs from its predecessor.
type ChangeEvent struct {
	Channel  Channel
	Index    int
	Time     time.Time
	Value    decimal.Decimal
	Previous decimal.Decimal
	Label    string
}

// Placement positions the annotation label of one change event.
type Placement struct {
	Channel Channel
	Event   ChangeEvent
	Ordinal int
	YValue  float64
	YAdjust int
}

// Range is a closed numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Mid is the vertical midpoint used to anchor annotation labels.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// View is everything the live chart needs, derived from one snapshot.
type View struct {
	Times            []time.Time
	Price            []float64
	NP1              []float64
	NP2              []float64
	Profit           []float64
	RealProfit       []float64
	NormalizedProfit []float64
	PriceRange       Range
	Events           map[Channel][]ChangeEvent
	Placements       []Placement
	Labels           Labels
}

// Len is the number of records in the view.
func (v View) Len() int {
	return len(v.Times)
}

// Empty reports whether the snapshot held no records.
func (v View) Empty() bool {
	return len(v.Times) == 0
}

// Reconcile rebuilds the live view from a full snapshot. Nothing is carried
// over from earlier calls except the label seed in opts.
func Reconcile(snapshot []Record, opts Options) (View, error) {
	view := View{Events: make(map[Channel][]ChangeEvent, len(Channels)), Labels: opts.PreviousLabels}
	if len(snapshot) == 0 {
		return view, nil
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	day := now.In(loc)

	n := len(snapshot)
	view.Times = make([]time.Time, n)
	view.Price = make([]float64, n)
	view.NP1 = make([]float64, n)
	view.NP2 = make([]float64, n)
	view.Profit = make([]float64, n)
	view.RealProfit = make([]float64, n)
	view.NormalizedProfit = make([]float64, n)

	maxAbs := decimal.Zero
	for i, rec := range snapshot {
		if err := rec.validate(); err != nil {
			return View{}, fmt.Errorf("%w: record %d: %v", ErrInvalidRecord, i, err)
		}
		ts, err := rec.Time.On(day)
		if err != nil {
			return View{}, fmt.Errorf("%w: record %d: %v", ErrInvalidRecord, i, err)
		}

		view.Times[i] = ts
		view.Price[i] = rec.Price.Decimal.InexactFloat64()
		view.NP1[i] = rec.NP1.Decimal.InexactFloat64()
		view.NP2[i] = rec.NP2.Decimal.InexactFloat64()
		view.Profit[i] = rec.Profit.Decimal.InexactFloat64()
		if rec.RealProfit.Valid {
			view.RealProfit[i] = rec.RealProfit.Decimal.InexactFloat64()
		}

		if abs := rec.Profit.Decimal.Abs(); abs.GreaterThan(maxAbs) {
			maxAbs = abs
		}
		if i == 0 || view.Price[i] < view.PriceRange.Min {
			view.PriceRange.Min = view.Price[i]
		}
		if i == 0 || view.Price[i] > view.PriceRange.Max {
			view.PriceRange.Max = view.Price[i]
		}
	}

	if !maxAbs.IsZero() {
		for i, rec := range snapshot {
			view.NormalizedProfit[i] = rec.Profit.Decimal.Div(maxAbs).InexactFloat64()
		}
	}

	labels := resolveLabels(snapshot, opts.PreviousLabels)
	view.Labels = labels[n-1]

	mid := view.PriceRange.Mid()
	for _, ch := range Channels {
		events := detectChanges(snapshot, ch, view.Times, labels)
		view.Events[ch] = events

		table := offsetTables[ch]
		for ordinal, ev := range events {
			view.Placements = append(view.Placements, Placement{
				Channel: ch,
				Event:   ev,
				Ordinal: ordinal,
				YValue:  mid,
				YAdjust: table[ordinal%len(table)],
			})
		}
	}

	return view, nil
}

// resolveLabels returns the effective labels at each index; a blank label
// inherits the most recent one.
func resolveLabels(snapshot []Record, seed Labels) []Labels {
	out := make([]Labels, len(snapshot))
	current := seed
	for i, rec := range snapshot {
		if rec.Type1 != "" {
			current.NP1 = rec.Type1
		}
		if rec.Type2 != "" {
			current.NP2 = rec.Type2
		}
		out[i] = current
	}
	return out
}

func detectChanges(snapshot []Record, ch Channel, times []time.Time, labels []Labels) []ChangeEvent {
	var events []ChangeEvent
	for i := 1; i < len(snapshot); i++ {
		prev, cur := channelValue(snapshot[i-1], ch), channelValue(snapshot[i], ch)
		if cur.Equal(prev) {
			continue
		}
		events = append(events, ChangeEvent{
			Channel:  ch,
			Index:    i,
			Time:     times[i],
			Value:    cur,
			Previous: prev,
			Label:    labels[i].get(ch),
		})
	}
	return events
}

func channelValue(rec Record, ch Channel) decimal.Decimal {
	if ch == ChannelNP2 {
		return rec.NP2.Decimal
	}
	return rec.NP1.Decimal
}
