package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultJPEGQuality trades fidelity for upload speed; analysis does not
// need pixel-perfect frames.
const DefaultJPEGQuality = 70

// Camera captures frames from a local video device.
type Camera struct {
	mu      sync.Mutex
	vc      *gocv.VideoCapture
	mat     gocv.Mat
	quality int
	closed  bool
}

// OpenCamera opens the capture device with the given index.
// Quality outside 1-100 falls back to DefaultJPEGQuality.
func OpenCamera(device int, quality int) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("capture: open camera %d: %w", device, err)
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Camera{
		vc:      vc,
		mat:     gocv.NewMat(),
		quality: quality,
	}, nil
}

// Kind reports that a camera is a continuous source.
func (c *Camera) Kind() SourceKind {
	return KindVideo
}

// Frame grabs the current camera frame and encodes it as JPEG.
// An empty or zero-sized frame (device still warming up) yields ErrNotReady.
func (c *Camera) Frame() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if ok := c.vc.Read(&c.mat); !ok {
		return nil, ErrNotReady
	}
	return encodeMat(c.mat, c.quality)
}

// Close releases the device and frame buffer. Idempotent.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.mat.Close()
	return c.vc.Close()
}

// encodeMat renders a raster frame to JPEG at the source's native size.
func encodeMat(mat gocv.Mat, quality int) ([]byte, error) {
	if mat.Empty() || mat.Cols() == 0 || mat.Rows() == 0 {
		return nil, ErrNotReady
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat,
		[]int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("capture: encode frame: %w", err)
	}
	defer buf.Close()

	// Copy out; the native buffer is freed on Close.
	frame := make([]byte, buf.Len())
	copy(frame, buf.GetBytes())
	return frame, nil
}

// Verify Camera implements Source at compile time.
var _ Source = (*Camera)(nil)
