package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Video captures frames from a video file, advancing one frame per call
// and rewinding at end of stream so scanning behaves like looped playback.
type Video struct {
	mu      sync.Mutex
	vc      *gocv.VideoCapture
	mat     gocv.Mat
	quality int
	closed  bool
}

// OpenVideo opens a video file for frame extraction.
func OpenVideo(path string, quality int) (*Video, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open video %s: %w", path, err)
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Video{
		vc:      vc,
		mat:     gocv.NewMat(),
		quality: quality,
	}, nil
}

// Kind reports that a video file is a continuous source.
func (v *Video) Kind() SourceKind {
	return KindVideo
}

// Frame reads the next video frame and encodes it as JPEG.
// End of stream rewinds to the first frame; a source that still cannot
// produce a frame yields ErrNotReady.
func (v *Video) Frame() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrClosed
	}
	if ok := v.vc.Read(&v.mat); !ok || v.mat.Empty() {
		v.vc.Set(gocv.VideoCapturePosFrames, 0)
		if ok := v.vc.Read(&v.mat); !ok {
			return nil, ErrNotReady
		}
	}
	return encodeMat(v.mat, v.quality)
}

// Close releases the decoder and frame buffer. Idempotent.
func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	v.mat.Close()
	return v.vc.Close()
}

// Verify Video implements Source at compile time.
var _ Source = (*Video)(nil)
