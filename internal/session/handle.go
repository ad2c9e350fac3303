package session

import (
	"image"
	"time"
)

// KeyEnv is what a key press may need beyond the state itself.
type KeyEnv struct {
	Opener    SinkOpener
	Now       time.Time
	FrameSize image.Point // size of the frames a new recording will receive
	FPS       float64     // source rate, 0 if unknown
}

// HandleKey returns the state after key. quit is set for ESC; the caller
// ends the loop and its finalizer closes any open sink. err is set only
// when Space fails to start a recording, in which case the returned state
// is not recording.
func HandleKey(st State, key rune, env KeyEnv) (next State, quit bool, err error) {
	switch ActionFor(key) {
	case ActionNextFilter:
		st.Filter = st.Filter.Next()
		log.Infof("Filter: %s", st.Filter)
	case ActionNextFlip:
		st.Flip = st.Flip.Next()
		log.Infof("Flip: %s", st.Flip)
	case ActionToggleRecording:
		if st.Recording() {
			if err := st.StopRecording(); err != nil {
				log.WithError(err).Warn("Recording did not close cleanly")
			}
			return st, false, nil
		}
		err = st.StartRecording(env.Opener, env.Now, env.FrameSize, env.FPS)
		return st, false, err
	case ActionQuit:
		log.Info("Exit requested")
		return st, true, nil
	}
	return st, false, nil
}
