// Package capture unifies the scanner's frame inputs (live camera, video
// file, still image) behind a single Source interface that produces one
// encoded still frame per call.
//
// Sources never block waiting for a frame. A source that cannot deliver a
// frame right now (camera warming up, decoder mid-seek) returns ErrNotReady,
// which callers treat as a routine silent skip, not a failure.
package capture

import (
	"errors"
	"sync"
)

// SourceKind determines the frame-extraction strategy.
type SourceKind string

const (
	// KindImage is a loaded still image, read directly without
	// re-rasterization.
	KindImage SourceKind = "image"

	// KindVideo is a continuous source (camera or playing video) whose
	// current frame is grabbed and encoded per call.
	KindVideo SourceKind = "video"
)

// Continuous reports whether the kind produces a stream of distinct frames,
// which is what makes auto-scan meaningful.
func (k SourceKind) Continuous() bool {
	return k == KindVideo
}

// Sentinel errors for capture outcomes.
var (
	// ErrNotReady means the source cannot deliver a frame this cycle.
	// Routine during warm-up; callers skip the cycle silently.
	ErrNotReady = errors.New("capture: source not ready")

	// ErrClosed is returned when reading from a closed source.
	ErrClosed = errors.New("capture: source closed")
)

// Source produces encoded still frames from a media input.
// Implementations must be safe for use from a single goroutine at a time;
// the controller serializes access.
type Source interface {
	// Kind reports the frame-extraction strategy of this source.
	Kind() SourceKind

	// Frame returns one encoded still image, or ErrNotReady.
	Frame() ([]byte, error)

	// Close releases the underlying media handle. Idempotent.
	Close() error
}

// Session is the single live capture session: one open source and its kind.
// The controller owns exactly one Session at a time; it is created on
// entering an active mode and destroyed on reset.
type Session struct {
	src Source

	mu     sync.Mutex
	closed bool
}

// NewSession wraps an open source in a session.
func NewSession(src Source) *Session {
	return &Session{src: src}
}

// Kind reports the session's source kind.
func (s *Session) Kind() SourceKind {
	return s.src.Kind()
}

// Frame reads one frame from the session source.
func (s *Session) Frame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.src.Frame()
}

// Close tears down the session and its source. Safe to call repeatedly.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.src.Close()
}
