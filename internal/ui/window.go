package ui

import (
	"time"

	"gocv.io/x/gocv"
)

// WindowDisplay is an OpenCV highgui window.
type WindowDisplay struct {
	window *gocv.Window
	shown  bool

	waitKey func(ms int) int
	visible func() bool
}

// NewWindowDisplay opens a window titled title.
func NewWindowDisplay(title string) *WindowDisplay {
	log.Infof("Opening window %q", title)
	w := gocv.NewWindow(title)
	return &WindowDisplay{
		window:  w,
		waitKey: w.WaitKey,
		visible: func() bool {
			// Reads 0 or -1 once the user has closed the window.
			return w.GetWindowProperty(gocv.WindowPropertyVisible) >= 1
		},
	}
}

// Show draws frame in the window.
func (d *WindowDisplay) Show(frame gocv.Mat) error {
	d.shown = true
	return d.window.IMShow(frame)
}

// PollKey pumps the window event loop for up to wait. Closing the window
// counts as ESC.
func (d *WindowDisplay) PollKey(wait time.Duration) (rune, bool) {
	ms := int(wait / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	code := d.waitKey(ms)
	if d.shown && !d.visible() {
		log.Info("Window closed")
		return keyEscape, true
	}
	return keyFromCode(code)
}

// Close destroys the window.
func (d *WindowDisplay) Close() error {
	return d.window.Close()
}

// keyFromCode turns a WaitKey result into a key. Only the low byte is
// meaningful; modifier bits set by some backends are dropped.
func keyFromCode(code int) (rune, bool) {
	if code < 0 {
		return 0, false
	}
	return rune(code & 0xFF), true
}
