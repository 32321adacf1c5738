package pipeline

import (
	"context"
	"testing"
	"time"

	"reftrack/internal/imaging"
)

// manualPacer releases one tick per pulse, letting tests drive the loop
// without any wall-clock dependence.
type manualPacer struct {
	pulses chan struct{}
}

func newManualPacer() *manualPacer {
	return &manualPacer{pulses: make(chan struct{}, 16)}
}

func (p *manualPacer) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.pulses:
		return nil
	}
}

func newRunningScheduler(t *testing.T) (*Scheduler, *manualPacer, chan Result) {
	t.Helper()

	ref := newTestReference(t, 200, 200)
	t.Cleanup(ref.Release)

	session, err := NewSession(ref, &stubExtractor{}, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	pacer := newManualPacer()
	results := make(chan Result, 16)
	sched, err := NewScheduler(session, &stubSource{w: 200, h: 200},
		func(r Result) { results <- r }, pacer, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	return sched, pacer, results
}

func TestSchedulerDeliversResultsInOrder(t *testing.T) {
	sched, pacer, results := newRunningScheduler(t)
	defer sched.Stop()

	for i := 0; i < 3; i++ {
		pacer.pulses <- struct{}{}
	}

	for i := uint64(1); i <= 3; i++ {
		select {
		case r := <-results:
			if r.Tick != i {
				t.Fatalf("tick order: got %d, want %d", r.Tick, i)
			}
			if !r.Found {
				t.Fatalf("tick %d not found", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for result %d", i)
		}
	}
}

func TestSchedulerStopHaltsDelivery(t *testing.T) {
	sched, pacer, results := newRunningScheduler(t)

	pacer.pulses <- struct{}{}
	select {
	case <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first result")
	}

	sched.Stop()

	// Queued pulses after Stop must not produce results.
	pacer.pulses <- struct{}{}
	pacer.pulses <- struct{}{}
	select {
	case r := <-results:
		t.Fatalf("result delivered after stop: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}

	if got := sched.session.State(); got != StateStopped {
		t.Errorf("session state after stop = %s", got)
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	sched, _, _ := newRunningScheduler(t)

	sched.Stop()
	sched.Stop()
	sched.Stop()
}

func TestSchedulerStopReleasesSessionBuffers(t *testing.T) {
	baseline := imaging.LiveBuffers()

	ref := newTestReference(t, 120, 90)
	session, err := NewSession(ref, &stubExtractor{}, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	pacer := newManualPacer()
	sched, err := NewScheduler(session, &stubSource{w: 120, h: 90},
		func(Result) {}, pacer, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}

	pacer.pulses <- struct{}{}
	sched.Stop()
	ref.Release()

	if got := imaging.LiveBuffers(); got != baseline {
		t.Errorf("live buffers after stop = %d, want %d", got, baseline)
	}
}

func TestSchedulerSecondStartFails(t *testing.T) {
	sched, _, _ := newRunningScheduler(t)
	defer sched.Stop()

	if err := sched.Start(); err == nil {
		t.Error("second Start should fail")
	}
}

func TestIntervalPacer(t *testing.T) {
	if _, err := NewIntervalPacer(0); err == nil {
		t.Error("zero rate should be rejected")
	}

	pacer, err := NewIntervalPacer(1000)
	if err != nil {
		t.Fatal(err)
	}

	// Waits resolve at roughly the configured cadence.
	if err := pacer.Wait(context.Background()); err != nil {
		t.Errorf("Wait returned %v", err)
	}

	// A cancelled context aborts the wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow, _ := NewIntervalPacer(0.001)
	if err := slow.Wait(ctx); err == nil {
		t.Error("cancelled Wait should return an error")
	}
}
