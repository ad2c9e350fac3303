// Package ui provides the displays the session loop shows frames on and
// polls keys from: an OpenCV highgui window, a fyne window, and a headless
// terminal.
package ui

import (
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "UI")

// Key codes shared by every display.
const (
	keyEscape = 27
	keyCtrlC  = 3
)

// keyQueue buffers key presses produced on another goroutine until the
// loop polls for them.
type keyQueue struct {
	ch chan rune
}

func newKeyQueue(size int) *keyQueue {
	return &keyQueue{ch: make(chan rune, size)}
}

// push enqueues k, dropping it when the loop has fallen behind.
func (q *keyQueue) push(k rune) {
	select {
	case q.ch <- k:
	default:
		log.Debugf("Key queue full, dropping %q", k)
	}
}

// poll returns the next key, waiting at most wait.
func (q *keyQueue) poll(wait time.Duration) (rune, bool) {
	if wait <= 0 {
		select {
		case k := <-q.ch:
			return k, true
		default:
			return 0, false
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case k := <-q.ch:
		return k, true
	case <-timer.C:
		return 0, false
	}
}
