package recorder

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"

	"gocv.io/x/gocv"
)

// ffmpegWriter pipes raw BGR frames into an ffmpeg encoder.
type ffmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
	size   image.Point
}

// ffmpegEncoder maps the FourCCs accepted by the gocv backend onto ffmpeg
// encoder names; anything else is passed through.
func ffmpegEncoder(codec string) string {
	switch strings.ToLower(codec) {
	case "", "avc1", "h264", "x264":
		return "libx264"
	case "mp4v", "fmp4", "xvid", "divx":
		return "mpeg4"
	case "mjpg":
		return "mjpeg"
	default:
		return codec
	}
}

func ffmpegWriterArgs(path, codec string, fps float64, size image.Point) []string {
	args := []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-vcodec", "rawvideo",
		"-s", fmt.Sprintf("%dx%d", size.X, size.Y),
		"-pix_fmt", "bgr24",
		"-r", fmt.Sprintf("%.02f", fps),
		"-i", "-",
		"-an",
		"-vcodec", ffmpegEncoder(codec),
		"-pix_fmt", "yuv420p",
	}
	// yuv420p needs even dimensions.
	if size.X%2 != 0 || size.Y%2 != 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", size.X+size.X%2, size.Y+size.Y%2))
	}
	return append(args, path)
}

func openFFmpegWriter(path, codec string, fps float64, size image.Point) (*ffmpegWriter, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not installed: %v", ErrSinkNotOpened, err)
	}

	cmd := exec.Command("ffmpeg", ffmpegWriterArgs(path, codec, fps, size)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkNotOpened, err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", ErrSinkNotOpened, err)
	}

	log.Debugf("FFmpeg encoder started for %s (PID: %d)", path, cmd.Process.Pid)
	return &ffmpegWriter{cmd: cmd, stdin: stdin, stderr: stderr, size: size}, nil
}

func (w *ffmpegWriter) Write(frame gocv.Mat) error {
	if frame.Cols() != w.size.X || frame.Rows() != w.size.Y || frame.Channels() != 3 {
		return fmt.Errorf("recorder: frame %dx%dx%d does not match %dx%dx3",
			frame.Cols(), frame.Rows(), frame.Channels(), w.size.X, w.size.Y)
	}
	data := frame.ToBytes()
	for total := 0; total < len(data); {
		n, err := w.stdin.Write(data[total:])
		if err != nil {
			return fmt.Errorf("recorder: ffmpeg pipe: %w", err)
		}
		total += n
	}
	return nil
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (w *ffmpegWriter) Close() error {
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("recorder: ffmpeg exited: %w: %s", err, strings.TrimSpace(w.stderr.String()))
	}
	return nil
}
