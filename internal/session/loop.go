package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"webcam-recorder-go/internal/camera"
	"webcam-recorder-go/internal/filter"
	"webcam-recorder-go/internal/perf"
)

var log = logrus.WithField("component", "Session")

// Source produces camera frames.
type Source interface {
	Read(dst *gocv.Mat) error
	Size() image.Point
	FPS() float64
	Stats() camera.Stats
	Close() error
}

// Display shows frames and reports key presses. PollKey waits at most wait
// and returns ok=false when no key was pressed.
type Display interface {
	Show(frame gocv.Mat) error
	PollKey(wait time.Duration) (key rune, ok bool)
	Close() error
}

// Options tunes the loop.
type Options struct {
	// MaxReadFailures ends the session after this many consecutive failed
	// reads. 0 retries forever.
	MaxReadFailures int

	// KeyWait bounds the per-frame key poll.
	KeyWait time.Duration

	// ShowHelp draws the mode label and key help on the preview only.
	ShowHelp bool

	// HealthInterval is the period of the health log line. 0 disables it.
	HealthInterval time.Duration
}

// Loop drives one session from the first frame until exit.
type Loop struct {
	source  Source
	display Display
	opener  SinkOpener
	opts    Options

	state State
	proc  *filter.Processor
	frame gocv.Mat
	hud   gocv.Mat

	lastSize    image.Point
	failures    int
	writeErrors int

	monitor    *perf.Monitor
	lastHealth time.Time
	now        func() time.Time
}

// NewLoop wires a loop. The loop owns source and display from here on and
// closes both when Run returns.
func NewLoop(source Source, display Display, opener SinkOpener, opts Options) *Loop {
	l := &Loop{
		source:  source,
		display: display,
		opener:  opener,
		opts:    opts,
		state:   NewState(),
		proc:    filter.NewProcessor(),
		frame:   gocv.NewMat(),
		hud:     gocv.NewMat(),
		now:     time.Now,
	}
	if opts.HealthInterval > 0 {
		l.monitor = perf.NewMonitor()
	}
	return l
}

// State returns a copy of the current state.
func (l *Loop) State() State {
	return l.state
}

// Run loops until ESC, end of the capture stream, or ctx is cancelled, all
// of which return nil. A recording that cannot be started is returned as an
// error. Every resource is released before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.finalize()

	log.Infof("Session started (filter=%s flip=%s)", l.state.Filter, l.state.Flip)
	l.lastHealth = l.now()

	for {
		if err := ctx.Err(); err != nil {
			log.Infof("Session interrupted: %v", err)
			return nil
		}
		quit, err := l.step()
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// step runs one iteration: read, flip, filter, overlay, show, write, key.
func (l *Loop) step() (quit bool, err error) {
	if err := l.source.Read(&l.frame); err != nil {
		if errors.Is(err, camera.ErrSourceClosed) {
			log.Info("Capture source ended")
			return true, nil
		}
		l.failures++
		if l.failures == 1 || l.failures%10 == 0 {
			log.WithError(err).Warnf("Frame read failed (%d in a row)", l.failures)
		}
		if l.opts.MaxReadFailures > 0 && l.failures >= l.opts.MaxReadFailures {
			log.Errorf("Giving up after %d consecutive read failures", l.failures)
			return true, nil
		}
		return l.pollKey()
	}
	l.failures = 0

	out, err := l.proc.Process(l.frame, l.state.Flip, l.state.Filter)
	if err != nil {
		log.WithError(err).Warn("Frame processing failed, skipping frame")
		return l.pollKey()
	}
	l.lastSize = image.Pt(out.Cols(), out.Rows())

	now := l.now()
	if l.state.Recording() {
		if err := filter.DrawRecordingOverlay(&out, l.state.Elapsed(now)); err != nil {
			log.WithError(err).Warn("Overlay failed")
		}
	}

	l.show(out)

	if l.state.Recording() {
		if err := l.state.Sink.Write(out); err != nil {
			l.writeErrors++
			if l.writeErrors == 1 || l.writeErrors%30 == 0 {
				log.WithError(err).Warnf("Write to %s failed (%d errors)", l.state.Sink.Path(), l.writeErrors)
			}
		}
	}

	l.logHealth(now)
	return l.pollKey()
}

func (l *Loop) show(out gocv.Mat) {
	frame := out
	if l.opts.ShowHelp {
		if err := out.CopyTo(&l.hud); err == nil {
			if err := filter.DrawHUD(&l.hud, l.state.Recording()); err != nil {
				log.WithError(err).Debug("HUD failed")
			}
			frame = l.hud
		}
	}
	if err := l.display.Show(frame); err != nil {
		log.WithError(err).Debug("Display failed")
	}
}

func (l *Loop) pollKey() (quit bool, err error) {
	key, ok := l.display.PollKey(l.opts.KeyWait)
	if !ok {
		return false, nil
	}
	return l.HandleKey(key)
}

// HandleKey applies one key press to the loop's state. It reports quit for
// ESC and returns an error only when a recording could not be started.
func (l *Loop) HandleKey(key rune) (quit bool, err error) {
	size := l.lastSize
	if size.X <= 0 || size.Y <= 0 {
		size = l.source.Size()
	}
	env := KeyEnv{Opener: l.opener, Now: l.now(), FrameSize: size, FPS: l.source.FPS()}

	wasRecording := l.state.Recording()
	l.state, quit, err = HandleKey(l.state, key, env)
	if !wasRecording && l.state.Recording() {
		l.writeErrors = 0
	}
	return quit, err
}

func (l *Loop) logHealth(now time.Time) {
	if l.opts.HealthInterval <= 0 || now.Sub(l.lastHealth) < l.opts.HealthInterval {
		return
	}
	l.lastHealth = now

	stats := l.source.Stats()
	fields := logrus.Fields{
		"frames":    stats.Frames,
		"failures":  stats.Failures,
		"fps":       fmt.Sprintf("%.1f", stats.FPS(now)),
		"recording": l.state.Recording(),
		"filter":    l.state.Filter.String(),
		"flip":      l.state.Flip.String(),
	}
	if l.monitor != nil {
		sample, err := l.monitor.Update()
		if err != nil {
			log.WithError(err).Debug("Host sensors incomplete")
		}
		fields["load"] = sample.LoadAvg
		fields["temp_c"] = fmt.Sprintf("%.1f", sample.Temperature)
		if sample.Stressed() {
			log.WithFields(fields).Warn("Health: host under stress")
			return
		}
	}
	log.WithFields(fields).Info("Health")
}

// finalize stops any recording and releases everything the loop owns.
func (l *Loop) finalize() {
	if err := l.state.StopRecording(); err != nil {
		log.WithError(err).Warn("Recording did not close cleanly")
	}
	if err := l.source.Close(); err != nil {
		log.WithError(err).Warn("Capture source did not close cleanly")
	}
	if err := l.display.Close(); err != nil {
		log.WithError(err).Warn("Display did not close cleanly")
	}
	l.proc.Close()
	l.frame.Close()
	l.hud.Close()
	log.Info("Session finished")
}
