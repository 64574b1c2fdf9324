// Package speech turns analysis verdicts into spoken alerts. An Arbiter
// decides which results deserve narration and at what urgency, and a
// Speaker synthesizes and plays the audio.
package speech

import "errors"

// Priority controls how an utterance enters the playback queue.
type Priority int

const (
	// PriorityNormal queues the utterance behind anything already playing.
	PriorityNormal Priority = iota

	// PriorityInterrupt cuts off the current utterance and flushes the
	// queue before speaking. Danger alerts use this so stale narration
	// never delays them.
	PriorityInterrupt
)

func (p Priority) String() string {
	if p == PriorityInterrupt {
		return "interrupt"
	}
	return "normal"
}

// Sentinel errors for speech outcomes.
var (
	// ErrClosed is returned when speaking through a closed speaker.
	ErrClosed = errors.New("speech: speaker closed")

	// ErrQueueFull means the playback queue has no room and the
	// utterance was dropped.
	ErrQueueFull = errors.New("speech: queue full")

	// ErrEmptyText is returned for an utterance with nothing to say.
	ErrEmptyText = errors.New("speech: empty text")
)

// Speaker synthesizes and plays one utterance at a time.
type Speaker interface {
	// Speak enqueues text for synthesis and playback.
	Speak(text string, p Priority) error

	// Cancel stops the current utterance and discards anything queued.
	Cancel()

	// Close cancels playback and releases resources.
	Close() error
}
