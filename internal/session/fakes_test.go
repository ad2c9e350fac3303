package session

import (
	"errors"
	"image"
	"time"

	"gocv.io/x/gocv"

	"webcam-recorder-go/internal/camera"
	"webcam-recorder-go/internal/recorder"
)

var testColor = gocv.NewScalar(10, 100, 200, 0) // distinct B, G, R

// fakeSource yields frames of a fixed colour. reads lists the outcome of
// each Read in order (nil = frame); afterwards the source is closed.
type fakeSource struct {
	size   image.Point
	reads  []error
	pos    int
	closed bool
	stats  camera.Stats
}

func newFakeSource(frames int) *fakeSource {
	return &fakeSource{size: image.Pt(64, 64), reads: make([]error, frames)}
}

func (s *fakeSource) Read(dst *gocv.Mat) error {
	if s.pos >= len(s.reads) {
		return camera.ErrSourceClosed
	}
	err := s.reads[s.pos]
	s.pos++
	if err != nil {
		s.stats.Failures++
		return err
	}
	m := gocv.NewMatWithSizeFromScalar(testColor, s.size.Y, s.size.X, gocv.MatTypeCV8UC3)
	defer m.Close()
	s.stats.Frames++
	return m.CopyTo(dst)
}

func (s *fakeSource) Size() image.Point   { return s.size }
func (s *fakeSource) FPS() float64        { return 30 }
func (s *fakeSource) Stats() camera.Stats { return s.stats }
func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// fakeDisplay returns keys[i] on the i-th poll; "" means no key.
type fakeDisplay struct {
	keys   []rune
	polls  int
	shown  int
	closed bool
}

func (d *fakeDisplay) Show(gocv.Mat) error {
	d.shown++
	return nil
}

func (d *fakeDisplay) PollKey(time.Duration) (rune, bool) {
	i := d.polls
	d.polls++
	if i >= len(d.keys) || d.keys[i] == 0 {
		return 0, false
	}
	return d.keys[i], true
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

// writtenFrame keeps the pixels the tests look at.
type writtenFrame struct {
	corner    []uint8 // (0,0), untouched by the overlay
	indicator []uint8 // centre of the recording dot
}

type fakeSink struct {
	path   string
	frames []writtenFrame
	closes int
}

func (s *fakeSink) Write(frame gocv.Mat) error {
	s.frames = append(s.frames, writtenFrame{
		corner:    append([]uint8(nil), frame.GetVecbAt(0, 0)...),
		indicator: append([]uint8(nil), frame.GetVecbAt(35, 40)...),
	})
	return nil
}

func (s *fakeSink) Close() error {
	s.closes++
	return nil
}

func (s *fakeSink) Path() string { return s.path }

type openCall struct {
	at   time.Time
	size image.Point
	fps  float64
}

type fakeOpener struct {
	sinks []*fakeSink
	calls []openCall
	err   error
}

func (o *fakeOpener) Open(at time.Time, size image.Point, fps float64) (recorder.Sink, error) {
	o.calls = append(o.calls, openCall{at, size, fps})
	if o.err != nil {
		return nil, o.err
	}
	s := &fakeSink{path: recorder.FileName(at, "mp4")}
	o.sinks = append(o.sinks, s)
	return s, nil
}

var errOpen = errors.New("disk full")
