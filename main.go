package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"webcam-recorder-go/internal/camera"
	"webcam-recorder-go/internal/config"
	"webcam-recorder-go/internal/helpers"
	"webcam-recorder-go/internal/recorder"
	"webcam-recorder-go/internal/session"
	"webcam-recorder-go/internal/ui"
)

// Version information - set by linker flags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

var log = logrus.WithField("component", "Main")

// errInvalidConfig is returned when Validate rejects the configuration.
var errInvalidConfig = errors.New("invalid configuration")

func init() {
	// OpenCV's highgui expects every window call on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Error("Exiting with error")
		fmt.Fprintf(os.Stderr, "webcam-recorder: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "webcam-recorder",
		Short: "Preview a webcam with live filters and record it to video files",
		Long: `Shows the default camera in a window. Keys:
  Space  start/stop recording (video_<YYYYMMDD>_<HHMMSS>.mp4)
  F      next filter (none, grayscale, sepia, edge)
  R      next flip (none, horizontal, vertical)
  ESC    exit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return run(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to config.ini (default: ./config.ini or $WEBCAM_RECORDER_CONFIG)")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	return cmd
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Webcam Recorder %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Go version: %s\n", GoVersion)
	fmt.Fprintf(w, "  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Warn("Config load error (using defaults)")
		cfg = config.DefaultConfig()
	}

	logCleanup, err := config.ConfigureLogging(cfg)
	if err != nil {
		log.WithError(err).Warn("Logging setup error")
	}
	if logCleanup != nil {
		defer logCleanup()
	}

	log.Infof("Webcam Recorder %s starting...", Version)
	log.Infof("Config: capture=%s display=%s record=%s/%s -> %s (collision=%s)",
		cfg.CaptureBackend, cfg.DisplayBackend, cfg.RecordBackend, cfg.Codec,
		cfg.OutputDir, cfg.CollisionPolicy)

	ok, warnings := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if !ok {
		return errInvalidConfig
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := openSource(cfg)
	if err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	display, err := openDisplay(cfg)
	if err != nil {
		source.Close()
		return fmt.Errorf("open display: %w", err)
	}

	opener := &recorder.Opener{
		Dir:         cfg.OutputDir,
		Ext:         cfg.FileExtension,
		Backend:     recorder.Backend(cfg.RecordBackend),
		Codec:       cfg.Codec,
		FallbackFPS: cfg.RecordFPS,
		Policy:      recorder.ParsePolicy(cfg.CollisionPolicy),
	}

	loop := session.NewLoop(source, display, opener, session.Options{
		MaxReadFailures: cfg.MaxReadFailures,
		KeyWait:         time.Duration(cfg.KeyWaitMS) * time.Millisecond,
		ShowHelp:        cfg.ShowHelp,
		HealthInterval:  time.Duration(cfg.HealthLogIntervalSec * float64(time.Second)),
	})

	fyneDisplay, isFyne := display.(*ui.FyneDisplay)
	if !isFyne {
		err = loop.Run(ctx)
	} else {
		// fyne keeps the main thread; the loop runs beside it and quits
		// the app from its finalizer.
		errCh := make(chan error, 1)
		go func() {
			errCh <- loop.Run(ctx)
		}()
		fyneDisplay.Run()
		cancel()
		err = <-errCh
	}

	if err != nil {
		return err
	}
	log.Info("Exited cleanly")
	return nil
}

func openSource(cfg *config.Config) (session.Source, error) {
	if cfg.CaptureBackend == "ffmpeg" {
		devicePath := cfg.DevicePath
		if devicePath == "" {
			devicePath = pickDevicePath(cfg.CameraIndex)
		}
		helpers.FreeDevice(devicePath, cfg.KillDeviceHolders)

		src, err := camera.OpenFFmpeg(devicePath, camera.Options{
			Width:  cfg.CaptureWidth,
			Height: cfg.CaptureHeight,
			FPS:    cfg.CaptureFPS,
			Format: cfg.CaptureFormat,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	helpers.FreeDevice(camera.DevicePathForIndex(cfg.CameraIndex), cfg.KillDeviceHolders)
	src, err := camera.OpenDevice(cfg.CameraIndex, camera.Options{
		Width:  cfg.CaptureWidth,
		Height: cfg.CaptureHeight,
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

// pickDevicePath prefers /dev/video<index>, falling back to the first
// video node found.
func pickDevicePath(index int) string {
	want := camera.DevicePathForIndex(index)
	cams, err := camera.DiscoverCameras()
	if err != nil {
		log.WithError(err).Warn("Camera discovery failed")
		return want
	}
	for _, c := range cams {
		log.Debugf("Found %s: %s (%s)", c.DeviceID, c.DevicePath, c.Name)
		if c.DevicePath == want {
			return want
		}
	}
	if len(cams) > 0 {
		log.Warnf("%s not found, using %s (%s)", want, cams[0].DevicePath, cams[0].Name)
		return cams[0].DevicePath
	}
	return want
}

func openDisplay(cfg *config.Config) (session.Display, error) {
	switch cfg.DisplayBackend {
	case "fyne":
		return ui.NewFyneDisplay(cfg.WindowTitle), nil
	case "none":
		d, err := ui.NewTerminalDisplay(os.Stdin)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return ui.NewWindowDisplay(cfg.WindowTitle), nil
	}
}
