package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Pacer decides when the next tick may start. It stands in for whatever
// cadence the host provides (a display refresh, a ticker, a test driving
// ticks by hand), keeping the pipeline independent of any event-loop API.
type Pacer interface {
	// Wait blocks until the next tick is due or the context is cancelled,
	// in which case it returns the context's error.
	Wait(ctx context.Context) error
}

// IntervalPacer paces ticks at a fixed interval, approximating a display
// refresh rate.
type IntervalPacer struct {
	interval time.Duration
}

// NewIntervalPacer creates a pacer running at the given frequency.
func NewIntervalPacer(ticksPerSecond float64) (*IntervalPacer, error) {
	if ticksPerSecond <= 0 {
		return nil, fmt.Errorf("ticks_per_second must be > 0, got %g", ticksPerSecond)
	}
	return &IntervalPacer{interval: time.Duration(float64(time.Second) / ticksPerSecond)}, nil
}

// Wait implements Pacer.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	t := time.NewTimer(p.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sink receives one Result per completed tick, synchronously on the
// scheduler's goroutine. Sinks must not call Stop from within a delivery.
type Sink func(Result)

// Scheduler drives a session's ticks at the pacer's cadence. Ticks run on
// a single goroutine, so no two ticks ever overlap: a slow tick simply
// delays the next one.
type Scheduler struct {
	session *Session
	source  FrameSource
	sink    Sink
	pacer   Pacer
	log     *logrus.Entry

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool

	stopOnce sync.Once
}

// NewScheduler wires a session to its frame source and result sink.
func NewScheduler(session *Session, source FrameSource, sink Sink, pacer Pacer, logger *logrus.Logger) (*Scheduler, error) {
	if session == nil || source == nil || sink == nil || pacer == nil {
		return nil, fmt.Errorf("scheduler requires session, source, sink, and pacer")
	}
	return &Scheduler{
		session: session,
		source:  source,
		sink:    sink,
		pacer:   pacer,
		log:     logger.WithField("component", "scheduler"),
	}, nil
}

// Start transitions the session to Running and begins ticking. It returns
// immediately; results flow to the sink until Stop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	if err := s.session.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.loop(ctx)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		if err := s.pacer.Wait(ctx); err != nil {
			return
		}
		// A cancellation that raced the pacer must still win: once Stop
		// is called, no queued tick may start.
		if ctx.Err() != nil {
			return
		}

		result, ok := s.session.RunTick(s.source)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			// Stopped while this tick was in flight; discard its result.
			return
		}
		s.sink(result)
	}
}

// Stop cancels ticking and tears the session down. No result is delivered
// after Stop returns; an in-progress tick is allowed to finish but its
// result is discarded. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		// Never started: still make the terminal state stick.
		s.stopOnce.Do(s.session.Stop)
		return
	}

	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
		s.session.Stop()
		s.log.Debug("scheduler stopped")
	})
}
