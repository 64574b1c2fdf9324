package capture

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"sync"

	// Still-image formats accepted by the file picker.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// StillImage serves an already-loaded image file as a frame source.
// The bytes are read once at open; Frame returns them without
// re-rasterization.
type StillImage struct {
	data   []byte
	format string

	mu     sync.Mutex
	closed bool
}

// OpenImage loads a still image from disk and validates that it decodes as
// a supported format with non-zero dimensions.
func OpenImage(path string) (*StillImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: read image %s: %w", path, err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("capture: decode image %s: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("capture: image %s has zero dimensions", path)
	}
	return &StillImage{data: data, format: format}, nil
}

// Kind reports that a still image is not a continuous source.
func (s *StillImage) Kind() SourceKind {
	return KindImage
}

// Format reports the decoded image format ("jpeg", "png", "gif", "webp").
func (s *StillImage) Format() string {
	return s.format
}

// Frame returns a copy of the loaded image bytes.
func (s *StillImage) Frame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	frame := make([]byte, len(s.data))
	copy(frame, s.data)
	return frame, nil
}

// Close drops the loaded bytes. Idempotent.
func (s *StillImage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}

// Verify StillImage implements Source at compile time.
var _ Source = (*StillImage)(nil)
