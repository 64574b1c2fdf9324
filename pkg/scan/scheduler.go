package scan

import (
	"sync"
	"time"
)

// DefaultInterval is the auto-scan cadence.
const DefaultInterval = 4 * time.Second

// Scheduler re-triggers a callback at a fixed interval while running.
//
// Stop is synchronous and deterministic: once it returns, the tick callback
// will not run again, and no orphaned timer survives. Start and Stop are
// both idempotent.
type Scheduler struct {
	interval time.Duration
	clock    Clock

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewScheduler creates a scheduler with the given cadence. A nil clock
// falls back to the system clock; a non-positive interval falls back to
// DefaultInterval.
func NewScheduler(interval time.Duration, clock Clock) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{interval: interval, clock: clock}
}

// Start begins ticking, invoking tick once per interval until Stop.
// Calling Start while running is a no-op.
func (s *Scheduler) Start(tick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop = stop
	s.done = done

	go func() {
		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()
		defer close(done)

		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				// A stop racing a pending tick wins: the tick is dropped,
				// never delivered after Stop begins.
				select {
				case <-stop:
					return
				default:
				}
				tick()
			}
		}
	}()
}

// Stop cancels the timer and waits for the loop to exit. After Stop
// returns, tick is guaranteed not to run again. Safe to call when already
// stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the scheduler is ticking.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}
