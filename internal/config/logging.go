package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const megabyte = 1024 * 1024

var log = logrus.WithField("component", "Config")

// =============================================================================
// Rotating File Writer
// =============================================================================

// newRotatingWriter returns a size-rotated log file writer. Sizes are
// configured in bytes; lumberjack rotates on whole megabytes so the
// threshold is rounded up.
func newRotatingWriter(path string, maxBytes, backupCount int) (*lumberjack.Logger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create log dir: %w", err)
		}
	}

	maxMB := (maxBytes + megabyte - 1) / megabyte
	if maxMB < 1 {
		maxMB = 1
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxMB,
		MaxBackups: backupCount,
	}, nil
}

// =============================================================================
// Console Writer
// =============================================================================

// consoleWriter is the stdout log handler. A terminal in raw mode does no
// output processing, so line feeds need an explicit carriage return.
type consoleWriter struct {
	w   io.Writer
	raw atomic.Bool
}

var console = &consoleWriter{w: os.Stdout}

func (c *consoleWriter) Write(p []byte) (int, error) {
	if !c.raw.Load() {
		return c.w.Write(p)
	}
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetRawConsole tells the stdout log handler whether the terminal is in raw
// mode.
func SetRawConsole(raw bool) {
	console.raw.Store(raw)
}

// parseLevel maps the INI level names onto logrus levels.
func parseLevel(name string) logrus.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return logrus.TraceLevel
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// =============================================================================
// ConfigureLogging
// =============================================================================

// ConfigureLogging sets up the standard logrus logger based on Config.
// It configures a rotating file handler and optional stdout handler.
//
// Returns a cleanup function that should be called on shutdown.
func ConfigureLogging(cfg *Config) (cleanup func(), err error) {
	var writers []io.Writer
	var closers []io.Closer

	// Rotating file handler
	if cfg.LogFile != "" {
		rw, rerr := newRotatingWriter(cfg.LogFile, cfg.LogMaxBytes, cfg.LogBackupCount)
		if rerr != nil {
			err = rerr
		} else {
			writers = append(writers, rw)
			closers = append(closers, rw)
		}
	}

	// Stdout handler
	if cfg.LogToStdout {
		writers = append(writers, console)
	}

	// Fallback: if no writers, use stdout
	if len(writers) == 0 {
		writers = append(writers, console)
	}

	var w io.Writer
	if len(writers) == 1 {
		w = writers[0]
	} else {
		w = io.MultiWriter(writers...)
	}

	logrus.SetOutput(w)
	logrus.SetLevel(parseLevel(cfg.LogLevel))
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
		DisableColors:   len(closers) > 0,
	})

	if err != nil {
		log.WithError(err).Warn("Failed to configure file logging")
	}

	cleanup = func() {
		for _, c := range closers {
			c.Close()
		}
	}
	return cleanup, err
}
