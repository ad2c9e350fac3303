package ui

import (
	"fmt"
	"image"
)

// =============================================================================
// BGR to RGBA conversion
// =============================================================================
// fyne draws image.Image values, OpenCV hands us packed BGR (or single
// channel gray) bytes. Conversion writes into a caller-kept *image.RGBA so
// steady-state display allocates nothing; the fyne display alternates two
// of them so the one being painted is never the one being filled.
// =============================================================================

// toRGBA converts packed pixel data into dst, reusing dst when it is large
// enough. channels is 1 (gray), 3 (BGR) or 4 (BGRA).
func toRGBA(pix []byte, w, h, channels int, dst *image.RGBA) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return dst, fmt.Errorf("ui: invalid frame size %dx%d", w, h)
	}
	if len(pix) < w*h*channels {
		return dst, fmt.Errorf("ui: frame has %d bytes, want %d", len(pix), w*h*channels)
	}

	neededLen := w * h * 4
	if dst != nil && cap(dst.Pix) >= neededLen {
		dst.Pix = dst.Pix[:neededLen]
		dst.Stride = w * 4
		dst.Rect = image.Rect(0, 0, w, h)
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	out := dst.Pix
	switch channels {
	case 3:
		for i, o := 0, 0; o < neededLen; i, o = i+3, o+4 {
			out[o+0] = pix[i+2]
			out[o+1] = pix[i+1]
			out[o+2] = pix[i+0]
			out[o+3] = 255
		}
	case 4:
		for i := 0; i < neededLen; i += 4 {
			out[i+0] = pix[i+2]
			out[i+1] = pix[i+1]
			out[i+2] = pix[i+0]
			out[i+3] = 255
		}
	case 1:
		for i, o := 0, 0; o < neededLen; i, o = i+1, o+4 {
			out[o+0] = pix[i]
			out[o+1] = pix[i]
			out[o+2] = pix[i]
			out[o+3] = 255
		}
	default:
		return dst, fmt.Errorf("ui: unsupported channel count %d", channels)
	}
	return dst, nil
}
