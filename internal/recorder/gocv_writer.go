package recorder

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// cvWriter encodes through OpenCV's VideoWriter.
type cvWriter struct {
	vw *gocv.VideoWriter
}

func openCVWriter(path, codec string, fps float64, size image.Point) (*cvWriter, error) {
	if codec == "" {
		codec = "mp4v"
	}
	vw, err := gocv.VideoWriterFile(path, codec, fps, size.X, size.Y, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSinkNotOpened, path, err)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("%w: %s (codec %s)", ErrSinkNotOpened, path, codec)
	}
	return &cvWriter{vw: vw}, nil
}

func (w *cvWriter) Write(frame gocv.Mat) error {
	return w.vw.Write(frame)
}

func (w *cvWriter) Close() error {
	return w.vw.Close()
}
