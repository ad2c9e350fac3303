package recorder

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// maxCatchUp bounds how much wall time a single write may back-fill with
// duplicates, so a stalled loop cannot flood the file.
const maxCatchUp = 5 * time.Second

// Counters describes what a sink did with the frames it was given.
type Counters struct {
	Received   uint64
	Written    uint64
	Duplicated uint64
	Dropped    uint64
}

// alignedSink writes a time-aligned video: frames are duplicated or skipped
// so the file holds one frame per interval of wall-clock time.
type alignedSink struct {
	w        frameWriter
	path     string
	size     image.Point
	frameDur time.Duration
	now      func() time.Time

	last     gocv.Mat
	resized  gocv.Mat
	curFrame time.Time
	counters Counters
	closed   bool
}

func newAlignedSink(w frameWriter, path string, fps float64, size image.Point, now func() time.Time) *alignedSink {
	return &alignedSink{
		w:        w,
		path:     path,
		size:     size,
		frameDur: time.Duration(float64(time.Second) / fps),
		now:      now,
		last:     gocv.NewMat(),
		resized:  gocv.NewMat(),
	}
}

func (s *alignedSink) Path() string { return s.path }

// Counters returns the frame accounting so far.
func (s *alignedSink) Counters() Counters { return s.counters }

// Write records frame at the current time.
func (s *alignedSink) Write(frame gocv.Mat) error {
	if s.closed {
		return ErrSinkClosed
	}
	s.counters.Received++

	if frame.Cols() != s.size.X || frame.Rows() != s.size.Y {
		if err := gocv.Resize(frame, &s.resized, s.size, 0, 0, gocv.InterpolationLinear); err != nil {
			return err
		}
		frame = s.resized
	}

	t := s.now()
	if s.curFrame.IsZero() {
		s.curFrame = t
		return s.emit(frame)
	}

	next := s.curFrame.Add(s.frameDur)
	if t.Before(next) {
		// Don't need a new frame yet.
		s.counters.Dropped++
		return nil
	}

	if err := s.fill(t); err != nil {
		return err
	}
	s.curFrame = s.curFrame.Add(s.frameDur)
	return s.emit(frame)
}

// fill repeats the last frame for every interval that ended before t
// without a frame of its own.
func (s *alignedSink) fill(t time.Time) error {
	if gap := t.Sub(s.curFrame); gap > maxCatchUp {
		log.Warnf("%s: %v without frames, skipping ahead", s.path, gap.Round(time.Millisecond))
		s.curFrame = t.Add(-maxCatchUp)
	}
	for !t.Before(s.curFrame.Add(2 * s.frameDur)) {
		s.curFrame = s.curFrame.Add(s.frameDur)
		if err := s.w.Write(s.last); err != nil {
			return err
		}
		s.counters.Written++
		s.counters.Duplicated++
	}
	return nil
}

func (s *alignedSink) emit(frame gocv.Mat) error {
	if err := s.w.Write(frame); err != nil {
		return err
	}
	s.counters.Written++
	return frame.CopyTo(&s.last)
}

// Close pads the file up to the current time and finalizes it. It is safe
// to call more than once.
func (s *alignedSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var padErr error
	if !s.curFrame.IsZero() {
		padErr = s.fill(s.now())
	}
	err := s.w.Close()
	s.last.Close()
	s.resized.Close()

	c := s.counters
	log.Infof("Recording stopped: %s (%d frames written, %d duplicated, %d dropped)",
		s.path, c.Written, c.Duplicated, c.Dropped)

	if err != nil {
		return err
	}
	return padErr
}
