package speech

import "sync"

// MockSpeaker implements Speaker for testing.
// All methods can be customized via function fields.
type MockSpeaker struct {
	// SpeakFunc is called when Speak is invoked.
	// If nil, returns nil.
	SpeakFunc func(text string, p Priority) error

	mu      sync.Mutex
	spoken  []MockUtterance
	cancels int
	closes  int
}

// MockUtterance records one Speak call for verification.
type MockUtterance struct {
	Text     string
	Priority Priority
}

// NewMockSpeaker creates a mock that accepts every utterance.
func NewMockSpeaker() *MockSpeaker {
	return &MockSpeaker{}
}

// Speak records the utterance and calls SpeakFunc.
func (m *MockSpeaker) Speak(text string, p Priority) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, MockUtterance{Text: text, Priority: p})
	m.mu.Unlock()
	if m.SpeakFunc != nil {
		return m.SpeakFunc(text, p)
	}
	return nil
}

// Cancel records the call.
func (m *MockSpeaker) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
}

// Close records the call.
func (m *MockSpeaker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// Spoken returns all recorded utterances.
func (m *MockSpeaker) Spoken() []MockUtterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockUtterance, len(m.spoken))
	copy(out, m.spoken)
	return out
}

// CancelCalls returns how many times Cancel was invoked.
func (m *MockSpeaker) CancelCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

// Verify MockSpeaker implements Speaker at compile time.
var _ Speaker = (*MockSpeaker)(nil)
