package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/roadwatch/roadwatch/pkg/analysis"
	"github.com/roadwatch/roadwatch/pkg/capture"
)

func TestRequestScan_SingleInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	mock := &analysis.Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte) (*analysis.Result, error) {
			close(started)
			<-release
			return &analysis.Result{SafetyLevel: analysis.SafetySafe}, nil
		},
	}

	ctrl := NewController(mock)
	if err := ctrl.LoadSource(capture.NewMock()); err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if !ctrl.RequestScan(context.Background()) {
			t.Error("first scan should be accepted")
		}
	}()
	<-started

	// A burst while one is in flight: every call is a dropped no-op.
	for i := 0; i < 5; i++ {
		if ctrl.RequestScan(context.Background()) {
			t.Error("overlapping scan was accepted")
		}
	}

	close(release)
	wg.Wait()

	if got := mock.CallCount("Analyze"); got != 1 {
		t.Errorf("analyzer invoked %d times, want 1", got)
	}
}

func TestRequestScan_NotReadySkipsSilently(t *testing.T) {
	mock := analysis.NewMock()
	ctrl := NewController(mock)
	ctrl.LoadSource(capture.NotReadyMock())

	if ctrl.RequestScan(context.Background()) {
		t.Error("not-ready frame should drop the scan")
	}
	if mock.CallCount("Analyze") != 0 {
		t.Error("analyzer called despite not-ready source")
	}
	if ctrl.Err() != nil {
		t.Errorf("not-ready must not surface an error, got %v", ctrl.Err())
	}
	if ctrl.State().Analyzing {
		t.Error("analyzing flag stuck after skipped cycle")
	}
}

func TestRequestScan_NoSession(t *testing.T) {
	ctrl := NewController(analysis.NewMock())
	if ctrl.RequestScan(context.Background()) {
		t.Error("scan accepted with no session")
	}
}

func TestScenario_StillImageDangerScan(t *testing.T) {
	want := &analysis.Result{
		Signs: []analysis.RoadSign{},
		Hazards: []analysis.Hazard{
			{Type: "Pothole", Severity: analysis.SeverityHigh, Description: "deep pothole center lane"},
		},
		SafetyLevel:    analysis.SafetyDanger,
		Recommendation: "Slow down",
		Timestamp:      "10:00:00",
	}

	var ctrl *Controller
	var transitions []bool
	mock := &analysis.Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte) (*analysis.Result, error) {
			transitions = append(transitions, ctrl.State().Analyzing)
			return want, nil
		},
	}
	ctrl = NewController(mock)

	var notified *analysis.Result
	ctrl.OnResult = func(r *analysis.Result) { notified = r }

	src := capture.NewMock()
	src.MockKind = capture.KindImage
	if err := ctrl.LoadSource(src); err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if ctrl.Mode() != ModePlayback {
		t.Errorf("mode: got %s, want playback", ctrl.Mode())
	}

	if ctrl.State().Analyzing {
		t.Error("analyzing true before scan")
	}
	if !ctrl.RequestScan(context.Background()) {
		t.Fatal("scan not accepted")
	}
	if ctrl.State().Analyzing {
		t.Error("analyzing true after scan resolved")
	}

	// Analyzing was observably true exactly while the analyzer ran.
	if len(transitions) != 1 || !transitions[0] {
		t.Errorf("analyzing transitions during call: %v, want [true]", transitions)
	}

	got := ctrl.Result()
	if got != want {
		t.Errorf("result not replaced wholesale: %+v", got)
	}
	if notified != want {
		t.Error("OnResult not invoked with the new result")
	}
	if ctrl.Err() != nil {
		t.Errorf("stale error survived a successful scan: %v", ctrl.Err())
	}
}

func TestStartLive_CameraDenied(t *testing.T) {
	denied := errors.New("permission denied")
	ctrl := NewController(analysis.NewMock(),
		WithCamera(CameraOpenerFunc(func(ctx context.Context) (capture.Source, error) {
			return nil, denied
		})),
	)

	err := ctrl.StartLive(context.Background())
	if !errors.Is(err, denied) {
		t.Fatalf("expected the acquisition error, got %v", err)
	}
	if ctrl.Mode() != ModeIdle {
		t.Errorf("mode: got %s, want idle", ctrl.Mode())
	}
	if !errors.Is(ctrl.Err(), denied) {
		t.Error("acquisition failure must be user-visible")
	}
	if ctrl.SessionKind() != "" {
		t.Error("no session may exist after a denied acquisition")
	}
	if err := ctrl.EnableAutoScan(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("auto-scan without session: got %v, want ErrNoSession", err)
	}
}

func TestStartLive(t *testing.T) {
	cam := capture.NewMock()
	ctrl := NewController(analysis.NewMock(),
		WithCamera(CameraOpenerFunc(func(ctx context.Context) (capture.Source, error) {
			return cam, nil
		})),
	)

	if err := ctrl.StartLive(context.Background()); err != nil {
		t.Fatalf("StartLive failed: %v", err)
	}
	if ctrl.Mode() != ModeLive {
		t.Errorf("mode: got %s, want live", ctrl.Mode())
	}
	if err := ctrl.StartLive(context.Background()); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second StartLive: got %v, want ErrSessionActive", err)
	}

	ctrl.Reset()
	if cam.CloseCalls() != 1 {
		t.Errorf("camera closed %d times on reset, want 1", cam.CloseCalls())
	}
}

func TestStartLive_NoOpener(t *testing.T) {
	ctrl := NewController(analysis.NewMock())
	if err := ctrl.StartLive(context.Background()); !errors.Is(err, ErrNoCamera) {
		t.Errorf("expected ErrNoCamera, got %v", err)
	}
}

func TestReset_Idempotent(t *testing.T) {
	src := capture.NewMock()
	ctrl := NewController(analysis.NewMock(), WithClock(&fakeClock{}))
	ctrl.LoadSource(src)
	ctrl.RequestScan(context.Background())
	ctrl.EnableAutoScan(context.Background())

	for i := 0; i < 3; i++ {
		ctrl.Reset()

		state := ctrl.State()
		if state.Mode != ModeIdle || state.Analyzing || state.AutoScan {
			t.Errorf("reset %d: state %+v, want idle/false/false", i, state)
		}
		if ctrl.Result() != nil || ctrl.Err() != nil {
			t.Errorf("reset %d: result/error not discarded", i)
		}
		if ctrl.SessionKind() != "" {
			t.Errorf("reset %d: session survived", i)
		}
	}
	if src.CloseCalls() != 1 {
		t.Errorf("source closed %d times, want 1", src.CloseCalls())
	}
}

func TestAutoScan_SuppressesErrors(t *testing.T) {
	mock := analysis.WithError(errors.New("model unavailable"))
	clock := &fakeClock{}
	ctrl := NewController(mock, WithClock(clock))

	surfaced := 0
	ctrl.OnError = func(error) { surfaced++ }

	ctrl.LoadSource(capture.NewMock())
	if err := ctrl.EnableAutoScan(context.Background()); err != nil {
		t.Fatalf("EnableAutoScan failed: %v", err)
	}
	defer ctrl.Reset()

	for i := 0; i < 2; i++ {
		clock.Tick()
		waitFor(t, func() bool { return mock.CallCount("Analyze") == i+1 })

		if ctrl.Err() != nil {
			t.Errorf("attempt %d: error surfaced during auto-scan: %v", i, ctrl.Err())
		}
		if surfaced != 0 {
			t.Errorf("attempt %d: OnError fired during auto-scan", i)
		}
		waitFor(t, func() bool { return !ctrl.State().Analyzing })
	}

	if !ctrl.AutoScanEnabled() {
		t.Error("scheduler stopped ticking after failures")
	}
}

func TestManualScan_SurfacesError(t *testing.T) {
	boom := errors.New("bad gateway")
	ctrl := NewController(analysis.WithError(boom))

	var surfaced error
	ctrl.OnError = func(err error) { surfaced = err }

	ctrl.LoadSource(capture.NewMock())
	ctrl.RequestScan(context.Background())

	if !errors.Is(ctrl.Err(), boom) {
		t.Errorf("manual scan error not surfaced: %v", ctrl.Err())
	}
	if !errors.Is(surfaced, boom) {
		t.Error("OnError not invoked for manual scan failure")
	}
	if ctrl.State().Analyzing {
		t.Error("analyzing flag stuck after failure")
	}
}

func TestDisableAutoScan_NoTrailingScan(t *testing.T) {
	mock := analysis.NewMock()
	clock := &fakeClock{}
	ctrl := NewController(mock, WithClock(clock))
	ctrl.LoadSource(capture.NewMock())
	ctrl.EnableAutoScan(context.Background())

	clock.Tick()
	waitFor(t, func() bool { return mock.CallCount("Analyze") == 1 })

	ctrl.DisableAutoScan()

	clock.Tick()
	time.Sleep(20 * time.Millisecond)
	if got := mock.CallCount("Analyze"); got != 1 {
		t.Errorf("scan fired after DisableAutoScan returned (%d calls)", got)
	}
}

func TestReset_DiscardsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	mock := &analysis.Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte) (*analysis.Result, error) {
			close(started)
			<-release
			return &analysis.Result{SafetyLevel: analysis.SafetyDanger}, nil
		},
	}
	ctrl := NewController(mock)

	notified := false
	ctrl.OnResult = func(*analysis.Result) { notified = true }

	ctrl.LoadSource(capture.NewMock())

	done := make(chan struct{})
	go func() {
		ctrl.RequestScan(context.Background())
		close(done)
	}()
	<-started

	ctrl.Reset()
	close(release)
	<-done

	if ctrl.Result() != nil {
		t.Error("result committed after reset")
	}
	if notified {
		t.Error("OnResult fired for a scan that resolved after reset")
	}
}

func TestReset_CancelsInFlightAnalysis(t *testing.T) {
	started := make(chan struct{})
	mock := &analysis.Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte) (*analysis.Result, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	ctrl := NewController(mock)

	var surfaced error
	ctrl.OnError = func(err error) { surfaced = err }

	ctrl.LoadSource(capture.NewMock())

	done := make(chan struct{})
	go func() {
		ctrl.RequestScan(context.Background())
		close(done)
	}()
	<-started

	// Reset must abort the round trip, not wait out the model timeout.
	ctrl.Reset()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scan still blocked after Reset")
	}
	if surfaced != nil {
		t.Errorf("cancellation surfaced as an error: %v", surfaced)
	}
	if ctrl.Err() != nil || ctrl.Result() != nil {
		t.Error("cancelled scan committed state")
	}
}

func TestDisableAutoScan_CancelsTickInFlight(t *testing.T) {
	started := make(chan struct{})
	mock := &analysis.Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte) (*analysis.Result, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	clock := &fakeClock{}
	ctrl := NewController(mock, WithClock(clock))
	ctrl.LoadSource(capture.NewMock())
	if err := ctrl.EnableAutoScan(context.Background()); err != nil {
		t.Fatalf("EnableAutoScan failed: %v", err)
	}

	clock.Tick()
	<-started

	// The tick is blocked inside the analyzer; disabling must return
	// without waiting for it.
	disabled := make(chan struct{})
	go func() {
		ctrl.DisableAutoScan()
		close(disabled)
	}()
	select {
	case <-disabled:
	case <-time.After(time.Second):
		t.Fatal("DisableAutoScan blocked behind the in-flight analysis")
	}

	if ctrl.Err() != nil {
		t.Errorf("cancelled tick surfaced an error: %v", ctrl.Err())
	}
	waitFor(t, func() bool { return !ctrl.State().Analyzing })
}

func TestLoadSource_WhileActive(t *testing.T) {
	ctrl := NewController(analysis.NewMock())
	ctrl.LoadSource(capture.NewMock())
	if err := ctrl.LoadSource(capture.NewMock()); !errors.Is(err, ErrSessionActive) {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never held")
}
