package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeINI(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadAppliesSections(t *testing.T) {
	path := writeINI(t, `
; comment
[logging]
level = debug
stdout = off

[camera]
backend = ffmpeg
device_path = /dev/video2
width = 800
height = 600
format = YUYV
max_read_failures = 5

[recording]
output_dir = /tmp/clips
extension = .MKV
backend = ffmpeg
codec = libx264
fps = 25
collision = fail

[display]
backend = fyne
key_wait_ms = 10
show_help = no

[health]
log_interval_sec = 12.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.False(t, cfg.LogToStdout)

	assert.Equal(t, "ffmpeg", cfg.CaptureBackend)
	assert.Equal(t, "/dev/video2", cfg.DevicePath)
	assert.Equal(t, 800, cfg.CaptureWidth)
	assert.Equal(t, 600, cfg.CaptureHeight)
	assert.Equal(t, "yuyv", cfg.CaptureFormat)
	assert.Equal(t, 5, cfg.MaxReadFailures)

	assert.Equal(t, "/tmp/clips", cfg.OutputDir)
	assert.Equal(t, "mkv", cfg.FileExtension)
	assert.Equal(t, "ffmpeg", cfg.RecordBackend)
	assert.Equal(t, "libx264", cfg.Codec)
	assert.Equal(t, 25.0, cfg.RecordFPS)
	assert.Equal(t, "fail", cfg.CollisionPolicy)

	assert.Equal(t, "fyne", cfg.DisplayBackend)
	assert.Equal(t, 10, cfg.KeyWaitMS)
	assert.False(t, cfg.ShowHelp)

	assert.Equal(t, 12.5, cfg.HealthLogIntervalSec)
}

func TestLoadClampsAndIgnoresInvalidValues(t *testing.T) {
	path := writeINI(t, `
[logging]
level = chatty
max_bytes = 10

[camera]
backend = directshow
fps = 999
max_read_failures = 0

[recording]
fps = not-a-number
collision = shrug

[display]
key_wait_ms = 0

[health]
log_interval_sec = 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	def := DefaultConfig()

	assert.Equal(t, def.LogLevel, cfg.LogLevel)
	assert.Equal(t, 1024, cfg.LogMaxBytes)
	assert.Equal(t, def.CaptureBackend, cfg.CaptureBackend)
	assert.Equal(t, 120, cfg.CaptureFPS)
	assert.Equal(t, 1, cfg.MaxReadFailures)
	assert.Equal(t, def.RecordFPS, cfg.RecordFPS)
	assert.Equal(t, def.CollisionPolicy, cfg.CollisionPolicy)
	assert.Equal(t, 1, cfg.KeyWaitMS)
	assert.Equal(t, 5.0, cfg.HealthLogIntervalSec)
}

func TestLoadEnvOverridesLogFile(t *testing.T) {
	t.Setenv("WEBCAM_RECORDER_LOG_FILE", "/var/log/recorder.log")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)
	assert.Equal(t, "/var/log/recorder.log", cfg.LogFile)
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv("WEBCAM_RECORDER_CONFIG", "/etc/recorder.ini")
	assert.Equal(t, "/etc/recorder.ini", ConfigPath())
}

func TestValidate(t *testing.T) {
	ok, warnings := DefaultConfig().Validate()
	assert.True(t, ok)
	assert.Empty(t, warnings)

	cfg := DefaultConfig()
	cfg.Codec = "libx264"
	cfg.CollisionPolicy = "overwrite"
	ok, warnings = cfg.Validate()
	assert.False(t, ok)
	assert.Len(t, warnings, 2)

	cfg = DefaultConfig()
	cfg.RecordBackend = "ffmpeg"
	cfg.Codec = "libx264"
	ok, _ = cfg.Validate()
	assert.True(t, ok)
}
