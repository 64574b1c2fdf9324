package speech

import (
	"log/slog"
	"sync"

	"github.com/roadwatch/roadwatch/pkg/analysis"
)

// Arbiter decides which analysis results get narrated. It maps the safety
// verdict to an utterance priority and keeps periodic scanning from turning
// into constant chatter: during auto-scan, all-clear results stay silent.
type Arbiter struct {
	speaker Speaker
	logger  *slog.Logger

	mu      sync.Mutex
	enabled bool
}

// ArbiterOption configures an Arbiter.
type ArbiterOption func(*Arbiter)

// WithArbiterLogger sets the structured logger.
func WithArbiterLogger(l *slog.Logger) ArbiterOption {
	return func(a *Arbiter) { a.logger = l }
}

// NewArbiter creates an arbiter around the given speaker. Narration starts
// disabled; callers opt in with SetEnabled.
func NewArbiter(speaker Speaker, opts ...ArbiterOption) *Arbiter {
	a := &Arbiter{
		speaker: speaker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "speech.arbiter")
	return a
}

// SetEnabled toggles narration. Disabling mid-utterance cuts the audio off
// immediately rather than letting it finish.
func (a *Arbiter) SetEnabled(on bool) {
	a.mu.Lock()
	changed := a.enabled != on
	a.enabled = on
	a.mu.Unlock()

	if !changed {
		return
	}
	if !on {
		a.speaker.Cancel()
	}
	a.logger.Info("narration toggled", "enabled", on)
}

// Enabled reports whether narration is on.
func (a *Arbiter) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Announce narrates one analysis result. Danger verdicts interrupt whatever
// is playing; caution verdicts queue normally; all-clear results speak only
// on manual scans so auto-scan stays quiet when nothing is wrong.
func (a *Arbiter) Announce(res *analysis.Result, autoScan bool) {
	if res == nil || !a.Enabled() {
		return
	}

	var priority Priority
	switch res.SafetyLevel {
	case analysis.SafetyDanger:
		priority = PriorityInterrupt
	case analysis.SafetyCaution:
		priority = PriorityNormal
	default:
		if autoScan {
			return
		}
		priority = PriorityNormal
	}

	text := res.Spoken()
	if text == "" {
		return
	}
	if err := a.speaker.Speak(text, priority); err != nil {
		// Narration is best-effort; a lost alert never disturbs scanning.
		a.logger.Warn("narration failed", "error", err, "priority", priority.String())
	}
}
