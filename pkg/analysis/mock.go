package analysis

import (
	"context"
	"sync"
	"time"
)

// Mock implements Analyzer for testing.
// All methods can be customized via function fields.
type Mock struct {
	// AnalyzeFunc is called when Analyze is invoked.
	// If nil, returns a safe empty-road result.
	AnalyzeFunc func(ctx context.Context, frame []byte) (*Result, error)

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method    string
	FrameSize int
	Time      time.Time
}

// NewMock creates a new mock analyzer with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte) (*Result, error) {
			return &Result{
				Signs:          []RoadSign{},
				Hazards:        []Hazard{},
				SafetyLevel:    SafetySafe,
				Recommendation: "Continue driving normally",
				Timestamp:      time.Now().Format("15:04:05"),
			}, nil
		},
	}
}

// WithResult returns a mock that always returns the given result.
func WithResult(res *Result) *Mock {
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte) (*Result, error) {
			return res, nil
		},
	}
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, frame []byte) (*Result, error) {
			return nil, err
		},
	}
}

// Analyze calls AnalyzeFunc and records the call.
func (m *Mock) Analyze(ctx context.Context, frame []byte) (*Result, error) {
	m.recordCall("Analyze", len(frame))
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, frame)
	}
	return nil, ErrEmptyResponse
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", 0)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// recordCall adds a call to the tracking list.
func (m *Mock) recordCall(method string, frameSize int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method:    method,
		FrameSize: frameSize,
		Time:      time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Analyzer at compile time.
var _ Analyzer = (*Mock)(nil)
