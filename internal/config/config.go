// Package config manages configuration for the webcam recorder.
//
// Handles loading config from INI files, environment variables,
// and provides default values for all settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// =============================================================================
// Configuration struct
// =============================================================================

// Config holds all runtime configuration values.
type Config struct {
	// Logging
	LogLevel       string
	LogFile        string
	LogMaxBytes    int
	LogBackupCount int
	LogToStdout    bool

	// Camera
	CaptureBackend    string // "gocv" or "ffmpeg"
	CameraIndex       int
	DevicePath        string // ffmpeg backend only; empty = first /dev/video*
	CaptureWidth      int    // 0 = device native
	CaptureHeight     int    // 0 = device native
	CaptureFPS        int    // ffmpeg backend only
	CaptureFormat     string // "mjpeg" or "yuyv"; passed to FFmpeg as -input_format
	MaxReadFailures   int
	KillDeviceHolders bool

	// Recording
	OutputDir       string
	FileExtension   string
	RecordBackend   string // "gocv" or "ffmpeg"
	Codec           string // FourCC for gocv, encoder name for ffmpeg
	RecordFPS       float64
	CollisionPolicy string // "overwrite", "fail" or "disambiguate"

	// Display
	DisplayBackend string // "highgui", "fyne" or "none"
	WindowTitle    string
	KeyWaitMS      int
	ShowHelp       bool

	// Health
	HealthLogIntervalSec float64
}

// Accepted values for the enumerated settings.
var (
	captureBackends   = []string{"gocv", "ffmpeg"}
	captureFormats    = []string{"mjpeg", "yuyv"}
	recordBackends    = []string{"gocv", "ffmpeg"}
	displayBackends   = []string{"highgui", "fyne", "none"}
	collisionPolicies = []string{"overwrite", "fail", "disambiguate"}
	logLevels         = []string{"TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR"}
)

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		// Logging
		LogLevel:       "INFO",
		LogFile:        "./logs/webcam_recorder.log",
		LogMaxBytes:    5 * 1024 * 1024, // 5 MB
		LogBackupCount: 3,
		LogToStdout:    true,

		// Camera
		CaptureBackend:    "gocv",
		CameraIndex:       0,
		DevicePath:        "",
		CaptureWidth:      0,
		CaptureHeight:     0,
		CaptureFPS:        30,
		CaptureFormat:     "mjpeg",
		MaxReadFailures:   30,
		KillDeviceHolders: false,

		// Recording
		OutputDir:       "recordings",
		FileExtension:   "mp4",
		RecordBackend:   "gocv",
		Codec:           "mp4v",
		RecordFPS:       30,
		CollisionPolicy: "disambiguate",

		// Display
		DisplayBackend: "highgui",
		WindowTitle:    "Video Recorder",
		KeyWaitMS:      1,
		ShowHelp:       true,

		// Health
		HealthLogIntervalSec: 30.0,
	}
}

// =============================================================================
// Type parsing helpers
// =============================================================================

// asInt reads key as int with optional min/max clamping.
// Pass nil for unbounded. Returns fallback on parse error.
func asInt(key *ini.Key, fallback int, minVal, maxVal *int) int {
	parsed, err := key.Int()
	if err != nil {
		return fallback
	}
	if minVal != nil && parsed < *minVal {
		parsed = *minVal
	}
	if maxVal != nil && parsed > *maxVal {
		parsed = *maxVal
	}
	return parsed
}

// asFloat reads key as float64 with optional min/max clamping.
func asFloat(key *ini.Key, fallback float64, minVal, maxVal *float64) float64 {
	parsed, err := key.Float64()
	if err != nil {
		return fallback
	}
	if minVal != nil && parsed < *minVal {
		parsed = *minVal
	}
	if maxVal != nil && parsed > *maxVal {
		parsed = *maxVal
	}
	return parsed
}

// asBool reads key as boolean; ini.v1 accepts 1/true/yes/on and their negations.
func asBool(key *ini.Key, fallback bool) bool {
	parsed, err := key.Bool()
	if err != nil {
		return fallback
	}
	return parsed
}

// asChoice lower-cases the value and returns it only if it is one of choices.
func asChoice(key *ini.Key, fallback string, choices []string) string {
	v := strings.ToLower(strings.TrimSpace(key.String()))
	for _, c := range choices {
		if v == c {
			return v
		}
	}
	return fallback
}

// Helper functions to create pointers for min/max bounds
func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// =============================================================================
// Load + Apply
// =============================================================================

// ConfigPath returns the INI file path to use, respecting env vars.
func ConfigPath() string {
	if p := os.Getenv("WEBCAM_RECORDER_CONFIG"); p != "" {
		return p
	}
	return "./config.ini"
}

// Load reads the INI file at the given path (or the default/env path)
// and returns a fully populated Config. Missing sections or keys
// fall back to DefaultConfig() values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	// If file doesn't exist, return defaults (not an error)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		applyEnv(cfg)
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyINI(cfg, f)
	applyEnv(cfg)

	return cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) {
	if logFile := os.Getenv("WEBCAM_RECORDER_LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}
}

// applyINI maps INI key-value pairs onto the Config struct.
func applyINI(cfg *Config, f *ini.File) {
	// [logging]
	if sec, err := f.GetSection("logging"); err == nil {
		if sec.HasKey("level") {
			v := strings.ToUpper(strings.TrimSpace(sec.Key("level").String()))
			for _, l := range logLevels {
				if v == l {
					cfg.LogLevel = v
				}
			}
		}
		if sec.HasKey("file") {
			cfg.LogFile = sec.Key("file").String()
		}
		if sec.HasKey("max_bytes") {
			cfg.LogMaxBytes = asInt(sec.Key("max_bytes"), cfg.LogMaxBytes, intPtr(1024), nil)
		}
		if sec.HasKey("backup_count") {
			cfg.LogBackupCount = asInt(sec.Key("backup_count"), cfg.LogBackupCount, intPtr(1), nil)
		}
		if sec.HasKey("stdout") {
			cfg.LogToStdout = asBool(sec.Key("stdout"), cfg.LogToStdout)
		}
	}

	// [camera]
	if sec, err := f.GetSection("camera"); err == nil {
		if sec.HasKey("backend") {
			cfg.CaptureBackend = asChoice(sec.Key("backend"), cfg.CaptureBackend, captureBackends)
		}
		if sec.HasKey("index") {
			cfg.CameraIndex = asInt(sec.Key("index"), cfg.CameraIndex, intPtr(0), intPtr(63))
		}
		if sec.HasKey("device_path") {
			cfg.DevicePath = strings.TrimSpace(sec.Key("device_path").String())
		}
		if sec.HasKey("width") {
			cfg.CaptureWidth = asInt(sec.Key("width"), cfg.CaptureWidth, intPtr(0), intPtr(3840))
		}
		if sec.HasKey("height") {
			cfg.CaptureHeight = asInt(sec.Key("height"), cfg.CaptureHeight, intPtr(0), intPtr(2160))
		}
		if sec.HasKey("fps") {
			cfg.CaptureFPS = asInt(sec.Key("fps"), cfg.CaptureFPS, intPtr(1), intPtr(120))
		}
		if sec.HasKey("format") {
			cfg.CaptureFormat = asChoice(sec.Key("format"), cfg.CaptureFormat, captureFormats)
		}
		if sec.HasKey("max_read_failures") {
			cfg.MaxReadFailures = asInt(sec.Key("max_read_failures"), cfg.MaxReadFailures, intPtr(1), nil)
		}
		if sec.HasKey("kill_device_holders") {
			cfg.KillDeviceHolders = asBool(sec.Key("kill_device_holders"), cfg.KillDeviceHolders)
		}
	}

	// [recording]
	if sec, err := f.GetSection("recording"); err == nil {
		if sec.HasKey("output_dir") {
			if v := strings.TrimSpace(sec.Key("output_dir").String()); v != "" {
				cfg.OutputDir = v
			}
		}
		if sec.HasKey("extension") {
			if v := strings.TrimPrefix(strings.TrimSpace(sec.Key("extension").String()), "."); v != "" {
				cfg.FileExtension = strings.ToLower(v)
			}
		}
		if sec.HasKey("backend") {
			cfg.RecordBackend = asChoice(sec.Key("backend"), cfg.RecordBackend, recordBackends)
		}
		if sec.HasKey("codec") {
			if v := strings.TrimSpace(sec.Key("codec").String()); v != "" {
				cfg.Codec = v
			}
		}
		if sec.HasKey("fps") {
			cfg.RecordFPS = asFloat(sec.Key("fps"), cfg.RecordFPS, floatPtr(1.0), floatPtr(120.0))
		}
		if sec.HasKey("collision") {
			cfg.CollisionPolicy = asChoice(sec.Key("collision"), cfg.CollisionPolicy, collisionPolicies)
		}
	}

	// [display]
	if sec, err := f.GetSection("display"); err == nil {
		if sec.HasKey("backend") {
			cfg.DisplayBackend = asChoice(sec.Key("backend"), cfg.DisplayBackend, displayBackends)
		}
		if sec.HasKey("window_title") {
			if v := strings.TrimSpace(sec.Key("window_title").String()); v != "" {
				cfg.WindowTitle = v
			}
		}
		if sec.HasKey("key_wait_ms") {
			cfg.KeyWaitMS = asInt(sec.Key("key_wait_ms"), cfg.KeyWaitMS, intPtr(1), intPtr(1000))
		}
		if sec.HasKey("show_help") {
			cfg.ShowHelp = asBool(sec.Key("show_help"), cfg.ShowHelp)
		}
	}

	// [health]
	if sec, err := f.GetSection("health"); err == nil {
		if sec.HasKey("log_interval_sec") {
			cfg.HealthLogIntervalSec = asFloat(sec.Key("log_interval_sec"), cfg.HealthLogIntervalSec, floatPtr(5.0), nil)
		}
	}
}

// =============================================================================
// Validate
// =============================================================================

// Validate checks whether the Config values are reasonable and returns
// warnings. Returns ok=false if any setting is critically problematic.
func (c *Config) Validate() (ok bool, warnings []string) {
	ok = true

	if (c.CaptureWidth == 0) != (c.CaptureHeight == 0) {
		warnings = append(warnings, "Only one of camera width/height set; device native size will be used")
	}

	if c.CaptureBackend == "ffmpeg" && (c.CaptureWidth == 0 || c.CaptureHeight == 0) {
		warnings = append(warnings, "ffmpeg capture backend has no native size probe; 640x480 will be requested")
	}

	if c.RecordBackend == "gocv" && len(c.Codec) != 4 {
		ok = false
		warnings = append(warnings, fmt.Sprintf("gocv recording codec %q is not a FourCC", c.Codec))
	}

	if c.CollisionPolicy == "overwrite" {
		warnings = append(warnings, "Recordings started within the same second will overwrite each other")
	}

	if c.KeyWaitMS > 100 {
		warnings = append(warnings, fmt.Sprintf("Key wait %dms caps the preview at %d FPS", c.KeyWaitMS, 1000/c.KeyWaitMS))
	}

	if c.DisplayBackend == "none" && c.ShowHelp {
		warnings = append(warnings, "show_help has no effect without a display")
	}

	return ok, warnings
}
