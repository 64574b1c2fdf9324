package capture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// writeTestJPEG writes a small solid-color JPEG and returns its path.
func writeTestJPEG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write test jpeg: %v", err)
	}
	return path
}

func TestStillImage(t *testing.T) {
	path := writeTestJPEG(t, 8, 6)

	src, err := OpenImage(path)
	if err != nil {
		t.Fatalf("OpenImage failed: %v", err)
	}
	defer src.Close()

	if src.Kind() != KindImage {
		t.Errorf("kind: got %s, want image", src.Kind())
	}
	if src.Kind().Continuous() {
		t.Error("still image must not report continuous")
	}
	if src.Format() != "jpeg" {
		t.Errorf("format: got %s, want jpeg", src.Format())
	}

	frame, err := src.Frame()
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if len(frame) == 0 {
		t.Fatal("empty frame from still image")
	}

	// Frames are copies; mutating one must not affect the next read.
	frame[0] = 0x00
	again, err := src.Frame()
	if err != nil {
		t.Fatalf("second Frame failed: %v", err)
	}
	if again[0] == 0x00 {
		t.Error("Frame returned shared backing bytes")
	}
}

func TestStillImage_ClosedReturnsErrClosed(t *testing.T) {
	src, err := OpenImage(writeTestJPEG(t, 4, 4))
	if err != nil {
		t.Fatalf("OpenImage failed: %v", err)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close not idempotent: %v", err)
	}
	if _, err := src.Frame(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestOpenImage_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := OpenImage(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("not an image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.jpg")
		os.WriteFile(path, []byte("not an image at all"), 0o644)
		if _, err := OpenImage(path); err == nil {
			t.Error("expected decode error for junk bytes")
		}
	})
}

func TestSession(t *testing.T) {
	mock := NewMock()
	session := NewSession(mock)

	if session.Kind() != KindVideo {
		t.Errorf("kind: got %s, want video", session.Kind())
	}
	if _, err := session.Frame(); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if mock.FrameCalls() != 1 {
		t.Errorf("expected 1 frame call, got %d", mock.FrameCalls())
	}

	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Errorf("Close not idempotent: %v", err)
	}
	if mock.CloseCalls() != 1 {
		t.Errorf("source closed %d times, want 1", mock.CloseCalls())
	}
	if _, err := session.Frame(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}

func TestNotReadyMock(t *testing.T) {
	src := NotReadyMock()
	if _, err := src.Frame(); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}
