package scan

import "time"

// Ticker delivers ticks on a channel, like time.Ticker.
type Ticker interface {
	// C returns the tick channel.
	C() <-chan time.Time

	// Stop shuts the ticker down.
	Stop()
}

// Clock creates tickers. Tests substitute a fake so transitions can be
// driven deterministically without real timers.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// realClock backs the default scheduler with time.Ticker.
type realClock struct{}

type realTicker struct {
	t *time.Ticker
}

func (rt *realTicker) C() <-chan time.Time { return rt.t.C }
func (rt *realTicker) Stop()               { rt.t.Stop() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

// SystemClock returns the wall-clock implementation of Clock.
func SystemClock() Clock {
	return realClock{}
}
