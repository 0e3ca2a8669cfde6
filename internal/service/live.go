package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"sessionchart/internal/alerting"
	"sessionchart/internal/fetcher"
	"sessionchart/internal/live"
	"sessionchart/internal/render"
)

// ChartPublisher receives every newly built live chart.
type ChartPublisher interface {
	Publish(graph *chart.Chart) error
}

// Frame is the currently displayed live view and the chart built from it.
type Frame struct {
	PollID string
	At     time.Time
	View   live.View
	Chart  *chart.Chart
}

// LiveOptions configure the live poller.
type LiveOptions struct {
	Location *time.Location
	Size     render.Size
}

// Live polls the feed, reconciles each snapshot into a view, and swaps the
// displayed frame. A failed poll leaves the previous frame in place.
type Live struct {
	source    fetcher.LiveFetcher
	publisher ChartPublisher
	notifier  alerting.Notifier
	opts      LiveOptions
	logger    zerolog.Logger

	// sentAtLast holds the events already handled at lastNotified; clock
	// readings have one-second resolution.
	mu           sync.RWMutex
	frame        Frame
	lastNotified time.Time
	sentAtLast   map[eventKey]struct{}
	primed       bool
}

// eventKey identifies a change within one second. Snapshot indices are not
// used since they shift when the snapshot window slides.
type eventKey struct {
	channel  live.Channel
	previous string
	value    string
}

// NewLive wires a Live service. publisher and notifier may be nil.
func NewLive(source fetcher.LiveFetcher, publisher ChartPublisher, notifier alerting.Notifier, opts LiveOptions, logger zerolog.Logger) *Live {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if notifier == nil {
		notifier = alerting.Nop{}
	}
	return &Live{
		source:    source,
		publisher: publisher,
		notifier:  notifier,
		opts:      opts,
		logger:    logger.With().Str("component", "live").Logger(),
	}
}

// Current returns the frame on display.
func (l *Live) Current() Frame {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame
}

// Poll runs one fetch-reconcile-render cycle for the tick at.
func (l *Live) Poll(ctx context.Context, at time.Time) error {
	pollID := uuid.NewString()
	logger := l.logger.With().Str("poll_id", pollID).Logger()

	snapshot, err := l.source.FetchLive(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("live fetch failed, keeping current frame")
		return err
	}

	l.mu.RLock()
	previous := l.frame.View.Labels
	l.mu.RUnlock()

	view, err := live.Reconcile(snapshot, live.Options{
		Now:            at,
		Location:       l.opts.Location,
		PreviousLabels: previous,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("snapshot rejected, keeping current frame")
		return err
	}

	graph := render.LiveChart(view, l.opts.Size)
	if l.publisher != nil {
		if err := l.publisher.Publish(graph); err != nil {
			return fmt.Errorf("publish live chart: %w", err)
		}
	}

	l.mu.Lock()
	l.frame = Frame{PollID: pollID, At: at, View: view, Chart: graph}
	pending := l.pendingEvents(view)
	l.mu.Unlock()

	logger.Info().
		Int("records", view.Len()).
		Int("changes", len(view.Placements)).
		Int("notify", len(pending)).
		Msg("live frame updated")

	l.notify(ctx, pollID, snapshot, pending)
	return nil
}

// pendingEvents returns events not yet notified: those after the last
// notified time, plus unseen ones in that same second. The first non-empty
// view only sets the baseline. Callers hold l.mu.
func (l *Live) pendingEvents(view live.View) []live.ChangeEvent {
	var events []live.ChangeEvent
	for _, ch := range live.Channels {
		events = append(events, view.Events[ch]...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})

	if !l.primed {
		if !view.Empty() {
			l.primed = true
			l.markSent(events)
		}
		return nil
	}

	var pending []live.ChangeEvent
	for _, ev := range events {
		switch {
		case ev.Time.After(l.lastNotified):
		case ev.Time.Equal(l.lastNotified):
			if _, seen := l.sentAtLast[keyOf(ev)]; seen {
				continue
			}
		default:
			continue
		}
		pending = append(pending, ev)
	}
	l.markSent(pending)
	return pending
}

// markSent advances the baseline to the newest of events, which must be
// sorted by time.
func (l *Live) markSent(events []live.ChangeEvent) {
	if len(events) == 0 {
		return
	}
	newest := events[len(events)-1].Time
	if newest.After(l.lastNotified) || l.sentAtLast == nil {
		l.lastNotified = newest
		l.sentAtLast = make(map[eventKey]struct{})
	}
	for _, ev := range events {
		if ev.Time.Equal(l.lastNotified) {
			l.sentAtLast[keyOf(ev)] = struct{}{}
		}
	}
}

func keyOf(ev live.ChangeEvent) eventKey {
	return eventKey{channel: ev.Channel, previous: ev.Previous.String(), value: ev.Value.String()}
}

func (l *Live) notify(ctx context.Context, pollID string, snapshot []live.Record, events []live.ChangeEvent) {
	for _, ev := range events {
		note := alerting.Notification{
			PollID:   pollID,
			Channel:  string(ev.Channel),
			Label:    ev.Label,
			Time:     ev.Time,
			Value:    ev.Value,
			Previous: ev.Previous,
			Price:    snapshot[ev.Index].Price.Decimal,
		}
		if err := l.notifier.Notify(ctx, note); err != nil {
			l.logger.Error().Err(err).Str("poll_id", pollID).Str("channel", note.Channel).Msg("change notification failed")
		}
	}
}
