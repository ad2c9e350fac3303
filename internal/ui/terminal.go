package ui

import (
	"bytes"
	"io"
	"os"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/term"

	"webcam-recorder-go/internal/config"
)

// TerminalDisplay runs without a window. Frames are counted, not shown,
// and keys come from the terminal in raw mode.
type TerminalDisplay struct {
	fd       int
	oldState *term.State
	keys     *keyQueue
	frames   uint64
}

// NewTerminalDisplay reads keys from in. When in is a terminal it is put in
// raw mode so single key presses arrive without Enter; Close restores it.
func NewTerminalDisplay(in *os.File) (*TerminalDisplay, error) {
	d := &TerminalDisplay{fd: int(in.Fd()), keys: newKeyQueue(16)}

	if term.IsTerminal(d.fd) {
		state, err := term.MakeRaw(d.fd)
		if err != nil {
			return nil, err
		}
		d.oldState = state
		config.SetRawConsole(true)
		log.Info("Headless mode: Space toggles recording, F filter, R flip, ESC exits")
	} else {
		log.Info("Headless mode: stdin is not a terminal, keys are line buffered")
	}

	go readKeys(in, d.keys)
	return d, nil
}

// readKeys forwards key presses from r until it fails. Escape sequences
// (arrow keys and the like) arrive as one read starting with ESC and are
// ignored so they do not quit. Ctrl-C is treated as ESC because raw mode
// disables the terminal's interrupt handling.
func readKeys(r io.Reader, q *keyQueue) {
	buf := make([]byte, 32)
	for {
		n, err := r.Read(buf)
		chunk := buf[:n]
		if n > 1 && chunk[0] == keyEscape {
			chunk = nil
		}
		for _, b := range bytes.Runes(chunk) {
			switch b {
			case keyCtrlC:
				q.push(keyEscape)
			case '\r', '\n':
			default:
				q.push(b)
			}
		}
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Debug("Key reader stopped")
			}
			return
		}
	}
}

// Show only counts the frame.
func (d *TerminalDisplay) Show(gocv.Mat) error {
	d.frames++
	return nil
}

// PollKey returns the next key press, waiting at most wait.
func (d *TerminalDisplay) PollKey(wait time.Duration) (rune, bool) {
	return d.keys.poll(wait)
}

// Close restores the terminal mode.
func (d *TerminalDisplay) Close() error {
	log.Debugf("Headless display closed after %d frames", d.frames)
	if d.oldState == nil {
		return nil
	}
	err := term.Restore(d.fd, d.oldState)
	d.oldState = nil
	config.SetRawConsole(false)
	return err
}
