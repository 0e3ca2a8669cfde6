package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked on every interval.
type TickFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToStart bool
	StartupDelay time.Duration
	// SkipInitial suppresses the tick normally run as soon as Run starts.
	SkipInitial bool
}

// State of a Guard.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Guard admits at most one tick at a time: Idle -> Running -> Idle.
type Guard struct {
	state atomic.Int32
}

// TryStart moves the guard to Running. It returns false if a tick already holds it.
func (g *Guard) TryStart() bool {
	return g.state.CompareAndSwap(int32(Idle), int32(Running))
}

// Done returns the guard to Idle.
func (g *Guard) Done() {
	g.state.Store(int32(Idle))
}

// State reports the current guard state.
func (g *Guard) State() State {
	return State(g.state.Load())
}

// Scheduler drives periodic execution of polling jobs. A tick that fires while
// the previous one is still running is dropped, not queued.
type Scheduler struct {
	opts    Options
	logger  zerolog.Logger
	guard   Guard
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Dropped counts ticks skipped because a previous tick was still running.
func (s *Scheduler) Dropped() int64 {
	return s.dropped.Load()
}

// Run blocks, invoking the tick function at each interval until ctx is
// cancelled. On cancellation it waits for an in-flight tick before returning.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	defer s.wg.Wait()

	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if !s.opts.SkipInitial {
		s.dispatch(ctx, tick, time.Now().UTC())
	}

	next := s.nextTick(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.nextTick(time.Now().UTC())
			delay = time.Until(next)
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_tick", next).Msg("waiting for next tick")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			timer.Stop()
		}

		s.dispatch(ctx, tick, s.bucketStart(next))
		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, tick TickFunc, at time.Time) {
	if !s.guard.TryStart() {
		s.dropped.Add(1)
		s.logger.Warn().Time("tick", at).Msg("previous tick still running; dropping")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.guard.Done()

		s.logger.Debug().Time("tick", at).Msg("executing scheduled tick")
		if err := tick(ctx, at); err != nil {
			s.logger.Error().Err(err).Time("tick", at).Msg("tick execution failed")
		}
	}()
}

func (s *Scheduler) nextTick(now time.Time) time.Time {
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	bucket := now.Truncate(s.opts.Interval)
	if !bucket.After(now) {
		bucket = bucket.Add(s.opts.Interval)
	}
	return bucket
}

func (s *Scheduler) bucketStart(t time.Time) time.Time {
	if !s.opts.AlignToStart {
		return t
	}
	return t.Truncate(s.opts.Interval)
}
