// Package scan implements the capture-and-analyze control loop: the mode
// state machine, the single-slot in-flight guard that serializes analysis
// requests, and the auto-scan scheduler that re-triggers scans on a fixed
// cadence.
//
// The Controller owns the capture session exclusively. Frames flow from the
// session source through the analyzer; each result supersedes the previous
// one wholesale, so the only ordering invariant the loop needs is that at
// most one analysis request is ever in flight. Overlapping scan requests,
// whether manual or scheduled, are dropped, never queued.
package scan

import "errors"

// Mode is the controller's top-level state.
type Mode string

const (
	// ModeIdle is the rest state: no session, no scanning.
	ModeIdle Mode = "idle"

	// ModeLive is live camera capture.
	ModeLive Mode = "live"

	// ModePlayback is an uploaded video or still image.
	ModePlayback Mode = "playback"
)

// State is a snapshot of the control loop's externally visible state.
type State struct {
	Mode      Mode `json:"mode"`
	Analyzing bool `json:"analyzing"`
	AutoScan  bool `json:"autoScan"`
}

// Sentinel errors for controller misuse.
var (
	// ErrSessionActive is returned when starting a source while one is live.
	ErrSessionActive = errors.New("scan: a capture session is already active")

	// ErrNoSession is returned when auto-scan is enabled without a source.
	ErrNoSession = errors.New("scan: no capture session")

	// ErrNoCamera is returned when live mode is requested without a
	// camera capability.
	ErrNoCamera = errors.New("scan: no camera opener configured")
)
