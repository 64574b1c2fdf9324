package capture

import (
	"sync"
)

// Mock implements Source for testing.
// All methods can be customized via function fields.
type Mock struct {
	// MockKind is the kind Kind reports. Defaults to KindVideo.
	MockKind SourceKind

	// FrameFunc is called when Frame is invoked.
	// If nil, returns a tiny fixed frame.
	FrameFunc func() ([]byte, error)

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	mu         sync.Mutex
	frameCalls int
	closeCalls int
}

// NewMock creates a mock continuous source that always has a frame ready.
func NewMock() *Mock {
	return &Mock{MockKind: KindVideo}
}

// NotReadyMock creates a mock source that is never ready.
func NotReadyMock() *Mock {
	return &Mock{
		MockKind: KindVideo,
		FrameFunc: func() ([]byte, error) {
			return nil, ErrNotReady
		},
	}
}

// Kind reports the configured kind.
func (m *Mock) Kind() SourceKind {
	if m.MockKind == "" {
		return KindVideo
	}
	return m.MockKind
}

// Frame calls FrameFunc and records the call.
func (m *Mock) Frame() ([]byte, error) {
	m.mu.Lock()
	m.frameCalls++
	m.mu.Unlock()
	if m.FrameFunc != nil {
		return m.FrameFunc()
	}
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closeCalls++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// FrameCalls returns how many times Frame was invoked.
func (m *Mock) FrameCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameCalls
}

// CloseCalls returns how many times Close was invoked.
func (m *Mock) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)
