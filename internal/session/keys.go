package session

// Key codes delivered by the displays.
const (
	KeyEscape = 27
	KeySpace  = ' '
)

// Action is what a key press asks the loop to do.
type Action int

const (
	ActionNone Action = iota
	ActionToggleRecording
	ActionNextFilter
	ActionNextFlip
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionToggleRecording:
		return "toggle-recording"
	case ActionNextFilter:
		return "next-filter"
	case ActionNextFlip:
		return "next-flip"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

// ActionFor maps a key to its action. Letters match in either case; any
// other key is ignored.
func ActionFor(key rune) Action {
	switch key {
	case KeySpace:
		return ActionToggleRecording
	case 'f', 'F':
		return ActionNextFilter
	case 'r', 'R':
		return ActionNextFlip
	case KeyEscape:
		return ActionQuit
	default:
		return ActionNone
	}
}
