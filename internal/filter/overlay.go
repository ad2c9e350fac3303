package filter

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

// Overlay layout, in pixels from the frame's top-left corner.
var (
	indicatorCenter = image.Pt(40, 35)
	indicatorRadius = 10
	timerOrigin     = image.Pt(60, 40)

	// gocv takes colours as RGBA and converts to BGR itself.
	recordRed = color.RGBA{R: 255}
	hudWhite  = color.RGBA{R: 255, G: 255, B: 255}
)

const (
	overlayFont  = gocv.FontHersheySimplex
	overlayScale = 0.5

	titleText = "= Simple Video Recorder ="
	helpText  = "Space: Toggle Recording | F: Filter | R: Flip | ESC: Exit"
)

// FormatElapsed renders d as MM:SS. Minutes keep counting past 59.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// DrawRecordingOverlay burns the recording indicator and elapsed-time
// counter into img.
func DrawRecordingOverlay(img *gocv.Mat, elapsed time.Duration) error {
	if err := gocv.Circle(img, indicatorCenter, indicatorRadius, recordRed, -1); err != nil {
		return fmt.Errorf("filter: draw indicator: %w", err)
	}
	if err := gocv.PutText(img, FormatElapsed(elapsed), timerOrigin, overlayFont, overlayScale, recordRed, 1); err != nil {
		return fmt.Errorf("filter: draw timer: %w", err)
	}
	return nil
}

// DrawHUD draws the mode label and key help onto a preview frame.
func DrawHUD(img *gocv.Mat, recording bool) error {
	mode := "Preview"
	if recording {
		mode = "Recording"
	}
	w, h := img.Cols(), img.Rows()

	lines := []struct {
		text string
		at   image.Point
	}{
		{mode, image.Pt(w-90, 40)},
		{titleText, image.Pt(10, h-40)},
		{helpText, image.Pt(10, h-20)},
	}
	for _, l := range lines {
		if err := gocv.PutText(img, l.text, l.at, overlayFont, overlayScale, hudWhite, 1); err != nil {
			return fmt.Errorf("filter: draw hud: %w", err)
		}
	}
	return nil
}
