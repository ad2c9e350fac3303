package ui

import (
	"image"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"gocv.io/x/gocv"
)

// FyneDisplay shows frames in a fyne window. fyne must own the main
// goroutine: call Run there and drive the session loop from another one.
type FyneDisplay struct {
	fyneApp fyne.App
	window  fyne.Window
	image   *canvas.Image
	keys    *keyQueue

	bufs      [2]*image.RGBA // alternated so fyne never paints a half-written frame
	next      int
	sized     bool
	closeOnce sync.Once
}

// NewFyneDisplay creates the application and its single window.
func NewFyneDisplay(title string) *FyneDisplay {
	fyneApp := app.New()
	window := fyneApp.NewWindow(title)

	d := &FyneDisplay{
		fyneApp: fyneApp,
		window:  window,
		keys:    newKeyQueue(16),
	}

	d.image = canvas.NewImageFromImage(createColoredImage(640, 480, color.RGBA{25, 25, 25, 255}))
	d.image.FillMode = canvas.ImageFillContain
	d.image.ScaleMode = canvas.ImageScaleFastest
	window.SetContent(d.image)
	window.Resize(fyne.NewSize(640, 480))

	window.Canvas().SetOnTypedRune(func(r rune) {
		d.keys.push(r)
	})
	window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			d.keys.push(keyEscape)
		}
	})
	// Closing the window is an exit request; the loop finishes the
	// recording and then calls Close, which quits the app.
	window.SetCloseIntercept(func() {
		log.Info("Window close requested")
		d.keys.push(keyEscape)
	})

	return d
}

// Run shows the window and blocks until the app quits.
func (d *FyneDisplay) Run() {
	d.window.ShowAndRun()
}

// Show converts frame and swaps it into the window.
func (d *FyneDisplay) Show(frame gocv.Mat) error {
	buf, err := toRGBA(frame.ToBytes(), frame.Cols(), frame.Rows(), frame.Channels(), d.bufs[d.next])
	if err != nil {
		return err
	}
	d.bufs[d.next] = buf
	d.next ^= 1

	if !d.sized {
		d.sized = true
		size := fyne.NewSize(float32(frame.Cols()), float32(frame.Rows()))
		d.image.SetMinSize(size)
		d.window.Resize(size)
	}

	d.image.Image = buf
	d.image.Refresh()
	return nil
}

// PollKey returns the next typed key, waiting at most wait.
func (d *FyneDisplay) PollKey(wait time.Duration) (rune, bool) {
	return d.keys.poll(wait)
}

// Close quits the fyne app, which makes Run return.
func (d *FyneDisplay) Close() error {
	d.closeOnce.Do(func() {
		log.Info("Closing window")
		d.fyneApp.Quit()
	})
	return nil
}

func createColoredImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	r, g, b, a := c.RGBA()
	r8, g8, b8, a8 := uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)

	// Fill the first row, then copy it down.
	stride := img.Stride
	for x := 0; x < width; x++ {
		off := x * 4
		img.Pix[off+0] = r8
		img.Pix[off+1] = g8
		img.Pix[off+2] = b8
		img.Pix[off+3] = a8
	}
	firstRow := img.Pix[:stride]
	for y := 1; y < height; y++ {
		copy(img.Pix[y*stride:(y+1)*stride], firstRow)
	}
	return img
}
