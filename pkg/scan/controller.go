package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roadwatch/roadwatch/pkg/analysis"
	"github.com/roadwatch/roadwatch/pkg/capture"
)

// CameraOpener is the capability the controller needs to enter live mode.
// Opening may block on a device permission prompt, so it takes a context.
type CameraOpener interface {
	OpenCamera(ctx context.Context) (capture.Source, error)
}

// CameraOpenerFunc adapts a function to the CameraOpener interface.
type CameraOpenerFunc func(ctx context.Context) (capture.Source, error)

// OpenCamera calls the wrapped function.
func (f CameraOpenerFunc) OpenCamera(ctx context.Context) (capture.Source, error) {
	return f(ctx)
}

// Controller is the capture/analyze state machine. It owns the single live
// capture session, serializes analysis so at most one request is in flight,
// and drives the auto-scan scheduler's lifecycle across mode changes.
type Controller struct {
	analyzer analysis.Analyzer
	camera   CameraOpener
	interval time.Duration
	clock    Clock
	logger   *slog.Logger

	// inFlight is the single-slot guard: the sole concurrency-control
	// mechanism for analysis requests.
	inFlight atomic.Bool

	mu      sync.Mutex
	mode    Mode
	session *capture.Session
	sched   *Scheduler
	result  *analysis.Result
	lastErr error

	// autoCancel aborts the auto-scan tick context so DisableAutoScan never
	// waits out an analysis round trip the scheduler started.
	autoCancel context.CancelFunc

	// scanCancel aborts the analysis round trip currently in flight. Set
	// only for the duration of the analyzer call.
	scanCancel context.CancelFunc

	// gen is the request-generation token. It advances on every session
	// change so a scan that resolves after a reset cannot commit stale
	// state.
	gen uint64

	// OnResult is invoked after each successful scan with the new result.
	OnResult func(*analysis.Result)

	// OnError is invoked when a scan failure is surfaced (not when
	// auto-scan suppresses it).
	OnError func(error)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithCamera sets the camera capability for live mode.
func WithCamera(opener CameraOpener) ControllerOption {
	return func(c *Controller) { c.camera = opener }
}

// WithInterval sets the auto-scan cadence.
func WithInterval(d time.Duration) ControllerOption {
	return func(c *Controller) { c.interval = d }
}

// WithClock sets the scheduler clock (tests inject a fake).
func WithClock(clock Clock) ControllerOption {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// NewController creates an idle controller around the given analyzer.
func NewController(analyzer analysis.Analyzer, opts ...ControllerOption) *Controller {
	c := &Controller{
		analyzer: analyzer,
		interval: DefaultInterval,
		mode:     ModeIdle,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "scan.controller")
	return c
}

// StartLive acquires the camera and enters live mode. On acquisition
// failure the controller stays Idle, the error becomes user-visible, and
// nothing else changes.
func (c *Controller) StartLive(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	opener := c.camera
	c.mu.Unlock()

	if opener == nil {
		return ErrNoCamera
	}

	// Acquisition may block on a permission prompt; don't hold the lock.
	src, err := opener.OpenCamera(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		c.logger.Warn("camera acquisition failed", "error", err)
		return err
	}
	if c.mode != ModeIdle {
		// Someone raced us into an active mode; give the device back.
		src.Close()
		return ErrSessionActive
	}

	c.session = capture.NewSession(src)
	c.mode = ModeLive
	c.lastErr = nil
	c.gen++
	c.logger.Info("live capture started")
	return nil
}

// LoadSource enters playback mode with an already-open source (uploaded
// video or still image).
func (c *Controller) LoadSource(src capture.Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeIdle {
		return ErrSessionActive
	}
	c.session = capture.NewSession(src)
	c.mode = ModePlayback
	c.lastErr = nil
	c.gen++
	c.logger.Info("source loaded", "kind", string(src.Kind()))
	return nil
}

// RequestScan captures one frame and submits it for analysis. Returns true
// if the scan was accepted. A scan already in flight, a missing session, or
// a not-ready source all drop the request with no state change.
func (c *Controller) RequestScan(ctx context.Context) bool {
	if !c.inFlight.CompareAndSwap(false, true) {
		// Already analyzing: drop, never queue.
		return false
	}

	c.mu.Lock()
	session := c.session
	gen := c.gen
	c.mu.Unlock()

	if session == nil {
		c.inFlight.Store(false)
		return false
	}

	frame, err := session.Frame()
	if err != nil {
		c.inFlight.Store(false)
		if errors.Is(err, capture.ErrNotReady) {
			// Routine during source warm-up; skip this cycle silently.
			c.logger.Debug("frame not ready, skipping cycle")
		} else {
			c.logger.Warn("frame capture failed", "error", err)
		}
		return false
	}

	scanID := uuid.NewString()[:8]
	c.logger.Debug("scan started", "scan_id", scanID, "frame_bytes", len(frame))

	// The round trip gets its own cancellable context so Reset can abort it
	// instead of waiting it out.
	scanCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.scanCancel = cancel
	c.mu.Unlock()

	result, err := c.analyzer.Analyze(scanCtx, frame)

	c.mu.Lock()
	c.scanCancel = nil
	stale := gen != c.gen
	cancelled := scanCtx.Err() != nil
	autoScan := c.sched != nil
	var surfaced error
	if !stale && !cancelled {
		if err != nil {
			if autoScan {
				// Suppress from the UI to avoid flicker during periodic
				// scanning; the observability sink still gets it.
				c.logger.Warn("scan failed during auto-scan", "scan_id", scanID, "error", err)
			} else {
				c.lastErr = err
				surfaced = err
			}
		} else {
			c.result = result
			c.lastErr = nil
		}
	}
	c.mu.Unlock()
	c.inFlight.Store(false)
	cancel()

	if stale {
		c.logger.Debug("scan resolved after reset, discarded", "scan_id", scanID)
		return true
	}
	if cancelled {
		c.logger.Debug("scan cancelled, discarded", "scan_id", scanID)
		return true
	}
	if err != nil {
		if surfaced != nil {
			c.logger.Warn("scan failed", "scan_id", scanID, "error", err)
			if c.OnError != nil {
				c.OnError(surfaced)
			}
		}
		return true
	}

	c.logger.Info("scan complete",
		"scan_id", scanID,
		"safety", string(result.SafetyLevel),
		"hazards", len(result.Hazards),
	)
	if c.OnResult != nil {
		c.OnResult(result)
	}
	return true
}

// EnableAutoScan starts periodic scanning of the current session.
// Requires a live session; enabling twice is a no-op.
func (c *Controller) EnableAutoScan(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.sched != nil {
		c.mu.Unlock()
		return nil
	}
	sched := NewScheduler(c.interval, c.clock)
	tickCtx, cancel := context.WithCancel(ctx)
	c.sched = sched
	c.autoCancel = cancel
	c.mu.Unlock()

	sched.Start(func() {
		c.RequestScan(tickCtx)
	})
	c.logger.Info("auto-scan enabled", "interval", c.interval)
	return nil
}

// DisableAutoScan stops periodic scanning. The pending tick is cancelled
// before this returns, as is a tick's analysis still in flight, so this
// never blocks on the model round trip. No scan fires afterwards.
// Idempotent.
func (c *Controller) DisableAutoScan() {
	c.mu.Lock()
	sched := c.sched
	cancel := c.autoCancel
	c.sched, c.autoCancel = nil, nil
	c.mu.Unlock()

	if sched == nil {
		return
	}
	// Cancel before Stop: the tick goroutine may be blocked inside the
	// analyzer, and Stop waits for it to come back.
	if cancel != nil {
		cancel()
	}
	sched.Stop()
	c.logger.Info("auto-scan disabled")
}

// Reset unconditionally returns the controller to Idle: auto-scan off,
// session closed, result and error discarded. A scan in flight is
// cancelled rather than waited out, and its result is discarded when it
// resolves. Idempotent; safe to call from any state.
func (c *Controller) Reset() {
	c.cancelInFlight()
	c.DisableAutoScan()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			c.logger.Warn("session close failed", "error", err)
		}
		c.session = nil
	}
	if c.mode != ModeIdle {
		c.logger.Info("reset to idle", "from", string(c.mode))
	}
	c.mode = ModeIdle
	c.result = nil
	c.lastErr = nil
}

// cancelInFlight aborts the analysis round trip, if one is running. The
// commit path discards a cancelled scan, so nothing stale lands.
func (c *Controller) cancelInFlight() {
	c.mu.Lock()
	cancel := c.scanCancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Result returns the latest analysis result, or nil.
func (c *Controller) Result() *analysis.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Err returns the current user-visible error, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// AutoScanEnabled reports whether periodic scanning is active.
func (c *Controller) AutoScanEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched != nil
}

// SessionKind returns the active source kind, or "" when idle.
func (c *Controller) SessionKind() capture.SourceKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Kind()
}

// State returns a snapshot of the externally visible control-loop state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Mode:      c.mode,
		Analyzing: c.inFlight.Load(),
		AutoScan:  c.sched != nil,
	}
}
