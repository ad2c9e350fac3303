// Package filter holds the per-frame visual transforms: the filter and flip
// mode cycles, the gocv operations behind them, and the overlays drawn on
// top of a processed frame.
package filter

// Mode is a per-frame colour filter.
type Mode int

const (
	ModeNone Mode = iota
	ModeGrayscale
	ModeSepia
	ModeEdge
)

// Modes is the order the filter hotkey cycles through.
var Modes = []Mode{ModeNone, ModeGrayscale, ModeSepia, ModeEdge}

// Next returns the mode after m in Modes, wrapping to the first.
func (m Mode) Next() Mode {
	return Modes[(indexOf(Modes, m)+1)%len(Modes)]
}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "None"
	case ModeGrayscale:
		return "Grayscale"
	case ModeSepia:
		return "Sepia"
	case ModeEdge:
		return "Edge"
	default:
		return "Unknown"
	}
}

// Flip is a mirror applied before filtering.
type Flip int

const (
	FlipNone Flip = iota
	FlipHorizontal
	FlipVertical
)

// Flips is the order the flip hotkey cycles through.
var Flips = []Flip{FlipNone, FlipHorizontal, FlipVertical}

// Next returns the flip after f in Flips, wrapping to the first.
func (f Flip) Next() Flip {
	return Flips[(indexOf(Flips, f)+1)%len(Flips)]
}

func (f Flip) String() string {
	switch f {
	case FlipNone:
		return "None"
	case FlipHorizontal:
		return "Horizontal"
	case FlipVertical:
		return "Vertical"
	default:
		return "Unknown"
	}
}

// indexOf returns the position of v in list. Values outside the list are
// treated as sitting just before the first entry so Next recovers to it.
func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
