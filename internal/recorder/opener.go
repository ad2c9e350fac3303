package recorder

import (
	"fmt"
	"image"
	"os"
	"time"
)

// Backend selects the encoder.
type Backend string

const (
	BackendGoCV   Backend = "gocv"
	BackendFFmpeg Backend = "ffmpeg"
)

// Opener creates sinks for new recordings.
type Opener struct {
	Dir         string
	Ext         string
	Backend     Backend
	Codec       string
	FallbackFPS float64 // used when the source does not report a rate
	Policy      Policy

	suffix func() string
	open   func(backend Backend, path, codec string, fps float64, size image.Point) (frameWriter, error)
	now    func() time.Time
}

func (o *Opener) defaults() {
	if o.suffix == nil {
		o.suffix = newSuffix
	}
	if o.open == nil {
		o.open = openBackend
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.Policy == "" {
		o.Policy = PolicyDisambiguate
	}
}

// Open starts a recording named after startedAt. Frames are expected at
// size; fps is the source rate, or 0 to use FallbackFPS.
func (o *Opener) Open(startedAt time.Time, size image.Point, fps float64) (Sink, error) {
	o.defaults()

	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: invalid frame size %dx%d", ErrSinkNotOpened, size.X, size.Y)
	}
	if fps <= 0 {
		fps = o.FallbackFPS
	}
	if fps <= 0 {
		fps = 30
	}

	if o.Dir != "" {
		if err := os.MkdirAll(o.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("recorder: create output dir: %w", err)
		}
	}

	path, err := resolvePath(o.Dir, FileName(startedAt, o.Ext), o.Policy, o.suffix)
	if err != nil {
		return nil, err
	}

	w, err := o.open(o.Backend, path, o.Codec, fps, size)
	if err != nil {
		return nil, err
	}

	log.Infof("Recording started: %s (%dx%d @ %.2f FPS, %s/%s)",
		path, size.X, size.Y, fps, o.backendName(), o.Codec)
	return newAlignedSink(w, path, fps, size, o.now), nil
}

func (o *Opener) backendName() string {
	if o.Backend == "" {
		return string(BackendGoCV)
	}
	return string(o.Backend)
}

func openBackend(backend Backend, path, codec string, fps float64, size image.Point) (frameWriter, error) {
	if backend == BackendFFmpeg {
		w, err := openFFmpegWriter(path, codec, fps, size)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	w, err := openCVWriter(path, codec, fps, size)
	if err != nil {
		return nil, err
	}
	return w, nil
}
