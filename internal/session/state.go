// Package session runs the capture, process, display and record loop and
// owns the user-visible state it mutates in response to key presses.
package session

import (
	"fmt"
	"image"
	"time"

	"webcam-recorder-go/internal/filter"
	"webcam-recorder-go/internal/recorder"
)

// SinkOpener starts a new recording.
type SinkOpener interface {
	Open(startedAt time.Time, size image.Point, fps float64) (recorder.Sink, error)
}

// State is everything a key press can change. A recording is in progress
// exactly when Sink is non-nil, and StartedAt is set exactly then too;
// only StartRecording and StopRecording touch either field.
type State struct {
	Filter    filter.Mode
	Flip      filter.Flip
	Sink      recorder.Sink
	StartedAt time.Time
}

// NewState returns the startup state: no filter, no flip, not recording.
func NewState() State {
	return State{Filter: filter.ModeNone, Flip: filter.FlipNone}
}

// Recording reports whether a sink is open.
func (s State) Recording() bool {
	return s.Sink != nil
}

// Elapsed returns how long the current recording has run, or 0.
func (s State) Elapsed(now time.Time) time.Duration {
	if !s.Recording() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// StartRecording opens a sink named after now. On failure the state is left
// not recording.
func (s *State) StartRecording(o SinkOpener, now time.Time, size image.Point, fps float64) error {
	if s.Recording() {
		return nil
	}
	sink, err := o.Open(now, size, fps)
	if err != nil {
		return fmt.Errorf("session: start recording: %w", err)
	}
	s.Sink = sink
	s.StartedAt = now
	return nil
}

// StopRecording closes the sink. The state is not recording afterwards
// even if Close fails.
func (s *State) StopRecording() error {
	if !s.Recording() {
		return nil
	}
	sink := s.Sink
	s.Sink = nil
	s.StartedAt = time.Time{}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("session: close %s: %w", sink.Path(), err)
	}
	return nil
}
