package camera

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"time"

	"gocv.io/x/gocv"
)

// JPEG stream markers.
var (
	markerSOI = []byte{0xFF, 0xD8}
	markerEOI = []byte{0xFF, 0xD9}
)

// maxFrameBytes bounds the bytes buffered while looking for a frame
// boundary; a stream that exceeds it is treated as ended.
const maxFrameBytes = 4 << 20

// mjpegSplitter cuts a concatenated MJPEG byte stream into single JPEGs.
type mjpegSplitter struct {
	r       io.Reader
	readBuf []byte
	pending []byte
}

func newMJPEGSplitter(r io.Reader) *mjpegSplitter {
	return &mjpegSplitter{
		r:       r,
		readBuf: make([]byte, 8192),
		pending: make([]byte, 0, 65536),
	}
}

// Next returns the next complete JPEG (SOI through EOI). Bytes before the
// first SOI are discarded; bytes after the EOI are kept for the next call.
func (m *mjpegSplitter) Next() ([]byte, error) {
	for {
		if start := bytes.Index(m.pending, markerSOI); start >= 0 {
			if start > 0 {
				m.pending = append(m.pending[:0], m.pending[start:]...)
			}
			if end := bytes.Index(m.pending[2:], markerEOI); end >= 0 {
				n := end + 2 + len(markerEOI)
				frame := make([]byte, n)
				copy(frame, m.pending[:n])
				m.pending = append(m.pending[:0], m.pending[n:]...)
				return frame, nil
			}
		} else if len(m.pending) > 1 {
			// Keep a trailing 0xFF that may start a marker.
			m.pending = append(m.pending[:0], m.pending[len(m.pending)-1:]...)
		}

		if len(m.pending) > maxFrameBytes {
			m.pending = m.pending[:0]
			return nil, io.ErrUnexpectedEOF
		}

		n, err := m.r.Read(m.readBuf)
		m.pending = append(m.pending, m.readBuf[:n]...)
		if err != nil {
			if n > 0 && errors.Is(err, io.EOF) {
				continue
			}
			return nil, err
		}
	}
}

// FFmpegSource reads MJPEG frames from an ffmpeg process attached to a
// v4l2 device and decodes them with OpenCV.
type FFmpegSource struct {
	devicePath string
	opts       Options

	cmd      *exec.Cmd
	stdout   io.ReadCloser
	splitter *mjpegSplitter
	pending  []byte // first frame, read while probing the format

	stats Stats
	now   func() time.Time
}

// OpenFFmpeg starts ffmpeg on devicePath. The configured format is tried
// first, then the other format, then ffmpeg's own choice; the first one
// that yields a frame wins.
func OpenFFmpeg(devicePath string, opts Options) (*FFmpegSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not installed: %v", ErrDeviceUnavailable, err)
	}

	s := &FFmpegSource{
		devicePath: devicePath,
		opts:       opts.withDefaults(),
		now:        time.Now,
	}

	for _, args := range s.formatAttempts() {
		if err := s.start(args); err != nil {
			log.WithError(err).Warnf("Camera %s: failed to start FFmpeg", devicePath)
			continue
		}
		frame, err := s.splitter.Next()
		if err == nil {
			s.pending = frame
			s.stats = newStats(s.now())
			log.Infof("Camera %s: FFmpeg started - %dx%d @ %d FPS (PID: %d)",
				devicePath, s.opts.Width, s.opts.Height, s.opts.FPS, s.cmd.Process.Pid)
			return s, nil
		}
		log.WithError(err).Warnf("Camera %s: no frames with args %v", devicePath, args)
		s.stop()
	}

	return nil, fmt.Errorf("%w: %s: no ffmpeg input format produced frames", ErrDeviceUnavailable, devicePath)
}

// formatAttempts builds the ffmpeg argument lists to try, in order.
func (s *FFmpegSource) formatAttempts() [][]string {
	videoSize := fmt.Sprintf("%dx%d", s.opts.Width, s.opts.Height)
	fps := strconv.Itoa(s.opts.FPS)

	input := func(format string) []string {
		args := []string{"-hide_banner", "-loglevel", "error",
			"-thread_queue_size", "512", "-probesize", "32", "-analyzeduration", "0",
			"-f", "v4l2"}
		if format != "" {
			args = append(args, "-input_format", format)
		}
		args = append(args, "-video_size", videoSize, "-framerate", fps, "-i", s.devicePath,
			"-f", "image2pipe", "-vcodec", "mjpeg", "-q:v", "3", "-")
		return args
	}

	if s.opts.Format == "yuyv" {
		return [][]string{input("yuyv422"), input("mjpeg"), input("")}
	}
	return [][]string{input("mjpeg"), input("yuyv422"), input("")}
}

func (s *FFmpegSource) start(args []string) error {
	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	s.cmd = cmd
	s.stdout = stdout
	s.splitter = newMJPEGSplitter(stdout)
	return nil
}

// stop kills ffmpeg and always reaps it so no zombie is left behind.
func (s *FFmpegSource) stop() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	s.stdout.Close()
	s.cmd.Process.Kill()
	s.cmd.Wait()
	s.cmd = nil
	return nil
}

// Read decodes the next frame into dst.
func (s *FFmpegSource) Read(dst *gocv.Mat) error {
	data := s.pending
	s.pending = nil
	if data == nil {
		var err error
		data, err = s.splitter.Next()
		if err != nil {
			s.stats.markFailure()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) {
				log.Infof("Camera %s: FFmpeg stream ended", s.devicePath)
				return ErrSourceClosed
			}
			return fmt.Errorf("%w: %v", ErrReadFailed, err)
		}
	}

	decoded, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || decoded.Empty() {
		// Corrupt JPEG - skip this frame, keep stream flowing
		decoded.Close()
		s.stats.markFailure()
		return ErrReadFailed
	}
	err = decoded.CopyTo(dst)
	decoded.Close()
	if err != nil {
		s.stats.markFailure()
		return fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	s.stats.markFrame(s.now())
	if s.stats.Frames%300 == 1 {
		log.Debugf("Camera %s: Frame #%d (%dx%d)", s.devicePath, s.stats.Frames, dst.Cols(), dst.Rows())
	}
	return nil
}

// Size returns the requested capture size.
func (s *FFmpegSource) Size() image.Point {
	return image.Pt(s.opts.Width, s.opts.Height)
}

// FPS returns the requested capture rate.
func (s *FFmpegSource) FPS() float64 {
	return float64(s.opts.FPS)
}

// Stats returns the capture counters.
func (s *FFmpegSource) Stats() Stats {
	return s.stats
}

// Close stops ffmpeg.
func (s *FFmpegSource) Close() error {
	log.Infof("Camera %s: closed after %d frames (%d failed reads)",
		s.devicePath, s.stats.Frames, s.stats.Failures)
	return s.stop()
}
