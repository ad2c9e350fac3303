package filter

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Canny hysteresis thresholds for the edge filter.
const (
	edgeLowThreshold  = 100
	edgeHighThreshold = 200
)

// sepiaKernel remixes B, G, R (rows are output channels, columns input
// channels, both in OpenCV's BGR order) into a warm monochrome tint.
var sepiaKernel = [3][3]float32{
	{0.131, 0.534, 0.272}, // B'
	{0.168, 0.686, 0.349}, // G'
	{0.189, 0.769, 0.393}, // R'
}

// newSepiaKernel builds the 3x3 transform matrix used by gocv.Transform.
func newSepiaKernel() gocv.Mat {
	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			k.SetFloatAt(r, c, sepiaKernel[r][c])
		}
	}
	return k
}

// flipCode maps a Flip onto OpenCV's flip code. ok is false for FlipNone.
func flipCode(f Flip) (code int, ok bool) {
	switch f {
	case FlipHorizontal:
		return 1, true
	case FlipVertical:
		return 0, true
	default:
		return 0, false
	}
}

// ApplyFlip writes src mirrored according to f into dst.
func ApplyFlip(src gocv.Mat, dst *gocv.Mat, f Flip) error {
	code, ok := flipCode(f)
	if !ok {
		return src.CopyTo(dst)
	}
	if err := gocv.Flip(src, dst, code); err != nil {
		return fmt.Errorf("filter: flip %s: %w", f, err)
	}
	return nil
}

// ApplyFilter writes src transformed by m into dst. The result always has
// the same size and BGR channel layout as src.
func ApplyFilter(src gocv.Mat, dst *gocv.Mat, m Mode) error {
	scratch := gocv.NewMat()
	defer scratch.Close()
	kernel := newSepiaKernel()
	defer kernel.Close()
	return applyFilter(src, dst, &scratch, kernel, m)
}

func applyFilter(src gocv.Mat, dst, scratch *gocv.Mat, kernel gocv.Mat, m Mode) error {
	var err error
	switch m {
	case ModeGrayscale:
		if err = gocv.CvtColor(src, scratch, gocv.ColorBGRToGray); err == nil {
			err = gocv.CvtColor(*scratch, dst, gocv.ColorGrayToBGR)
		}
	case ModeSepia:
		err = gocv.Transform(src, dst, kernel)
	case ModeEdge:
		if err = gocv.Canny(src, scratch, edgeLowThreshold, edgeHighThreshold); err == nil {
			err = gocv.CvtColor(*scratch, dst, gocv.ColorGrayToBGR)
		}
	default:
		err = src.CopyTo(dst)
	}
	if err != nil {
		return fmt.Errorf("filter: %s: %w", m, err)
	}
	return nil
}

// Processor runs the flip and filter stages over a stream of frames,
// reusing its intermediate buffers between calls.
type Processor struct {
	flipped  gocv.Mat
	filtered gocv.Mat
	scratch  gocv.Mat
	kernel   gocv.Mat
}

// NewProcessor allocates the buffers for a Processor. Call Close when done.
func NewProcessor() *Processor {
	return &Processor{
		flipped:  gocv.NewMat(),
		filtered: gocv.NewMat(),
		scratch:  gocv.NewMat(),
		kernel:   newSepiaKernel(),
	}
}

// Process flips then filters src. The returned Mat is either src itself
// (when both stages are identity) or a buffer owned by the Processor that
// stays valid until the next call; callers must not Close it.
func (p *Processor) Process(src gocv.Mat, f Flip, m Mode) (gocv.Mat, error) {
	cur := src
	if code, ok := flipCode(f); ok {
		if err := gocv.Flip(cur, &p.flipped, code); err != nil {
			return src, fmt.Errorf("filter: flip %s: %w", f, err)
		}
		cur = p.flipped
	}
	if m == ModeNone {
		return cur, nil
	}
	if err := applyFilter(cur, &p.filtered, &p.scratch, p.kernel, m); err != nil {
		return src, err
	}
	return p.filtered, nil
}

// Close releases the Processor's buffers.
func (p *Processor) Close() error {
	for _, m := range []*gocv.Mat{&p.flipped, &p.filtered, &p.scratch, &p.kernel} {
		if err := m.Close(); err != nil {
			return err
		}
	}
	return nil
}
