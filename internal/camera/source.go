// Package camera provides the frame sources the recorder reads from: a
// gocv VideoCapture on a local device index, and an ffmpeg MJPEG pipe.
package camera

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var log = logrus.WithField("component", "Capture")

// Errors
var (
	// ErrDeviceUnavailable is returned when a capture device cannot be opened.
	ErrDeviceUnavailable = errors.New("camera: device unavailable")

	// ErrReadFailed reports a single bad or missing frame. The next read may succeed.
	ErrReadFailed = errors.New("camera: frame read failed")

	// ErrSourceClosed reports that the source has ended and will produce no more frames.
	ErrSourceClosed = errors.New("camera: source closed")
)

// DeviceSource reads frames from a local camera through OpenCV.
type DeviceSource struct {
	capture *gocv.VideoCapture
	index   int
	width   int
	height  int
	fps     float64
	stats   Stats
	now     func() time.Time
}

// OpenDevice opens the camera at index. A requested size is passed to the
// driver, but Size reports whatever mode the device actually settled on.
func OpenDevice(index int, opts Options) (*DeviceSource, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index %d: %v", ErrDeviceUnavailable, index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: index %d", ErrDeviceUnavailable, index)
	}

	if opts.Width > 0 && opts.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}
	if opts.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(opts.FPS))
	}

	s := &DeviceSource{
		capture: vc,
		index:   index,
		width:   int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(vc.Get(gocv.VideoCaptureFrameHeight)),
		fps:     vc.Get(gocv.VideoCaptureFPS),
		now:     time.Now,
	}
	s.stats = newStats(s.now())

	log.Infof("Device %d opened: %dx%d @ %.1f FPS", index, s.width, s.height, s.fps)
	return s, nil
}

// Read grabs the next frame into dst.
func (s *DeviceSource) Read(dst *gocv.Mat) error {
	if ok := s.capture.Read(dst); !ok || dst.Empty() {
		s.stats.markFailure()
		if !s.capture.IsOpened() {
			return ErrSourceClosed
		}
		return ErrReadFailed
	}
	if s.width == 0 || s.height == 0 {
		s.width, s.height = dst.Cols(), dst.Rows()
	}
	s.stats.markFrame(s.now())
	return nil
}

// Size returns the native frame size.
func (s *DeviceSource) Size() image.Point {
	return image.Pt(s.width, s.height)
}

// FPS returns the frame rate the driver reports, or 0 if it does not say.
func (s *DeviceSource) FPS() float64 {
	return s.fps
}

// Stats returns the capture counters.
func (s *DeviceSource) Stats() Stats {
	return s.stats
}

// Close releases the device.
func (s *DeviceSource) Close() error {
	log.Infof("Device %d closed after %d frames (%d failed reads)",
		s.index, s.stats.Frames, s.stats.Failures)
	return s.capture.Close()
}
