// Package recorder writes processed frames to video files.
//
// A recording is opened through an Opener, which names the file after the
// moment recording started, resolves name collisions, and wraps the chosen
// encoder backend so that the written frame count tracks wall-clock time.
package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var log = logrus.WithField("component", "Recorder")

// Errors
var (
	// ErrSinkNotOpened is returned when the encoder refuses the output file.
	ErrSinkNotOpened = errors.New("recorder: video writer not opened")

	// ErrFileExists is returned under PolicyFail when the target file exists.
	ErrFileExists = errors.New("recorder: output file exists")

	// ErrSinkClosed is returned by Write after Close.
	ErrSinkClosed = errors.New("recorder: sink closed")
)

// Sink receives the frames of one recording.
type Sink interface {
	Write(frame gocv.Mat) error
	Close() error
	Path() string
}

// frameWriter is an encoder backend.
type frameWriter interface {
	Write(frame gocv.Mat) error
	Close() error
}

// fileTimeLayout is the timestamp part of a recording name.
const fileTimeLayout = "20060102_150405"

// FileName returns video_<YYYYMMDD>_<HHMMSS>.<ext> for t in local time.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("video_%s.%s", t.Local().Format(fileTimeLayout), strings.TrimPrefix(ext, "."))
}

// Policy decides what happens when a recording name is already taken.
type Policy string

const (
	PolicyOverwrite    Policy = "overwrite"
	PolicyFail         Policy = "fail"
	PolicyDisambiguate Policy = "disambiguate"
)

// ParsePolicy maps a config value to a Policy; unknown values disambiguate.
func ParsePolicy(s string) Policy {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyOverwrite, PolicyFail, PolicyDisambiguate:
		return p
	default:
		return PolicyDisambiguate
	}
}

// maxSuffixAttempts bounds the disambiguation retries.
const maxSuffixAttempts = 8

// newSuffix returns 8 hex characters from a random UUID.
func newSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// resolvePath returns the path to record into for name under dir.
func resolvePath(dir, name string, policy Policy, suffix func() string) (string, error) {
	path := filepath.Join(dir, name)
	if policy == PolicyOverwrite || !exists(path) {
		return path, nil
	}
	if policy == PolicyFail {
		return "", fmt.Errorf("%w: %s", ErrFileExists, path)
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < maxSuffixAttempts; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, suffix(), ext))
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free name for %s", ErrFileExists, path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
