package camera

// =============================================================================
// CAPTURE DEFAULTS
// =============================================================================
// Used when the configuration leaves a value at 0. The gocv backend asks the
// device for its native mode instead; the ffmpeg backend has no probe and
// requests these explicitly.
//
//   Resolution   | Pixels    | Notes
//   -------------|-----------|------------------------------------------
//   1280x720     | 921,600   | Most USB webcams, MJPEG only at 30 FPS
//   640x480      | 307,200   | Supported everywhere, YUYV still at 30 FPS
//
// MJPEG is strongly recommended - uses 10x less USB bandwidth than raw YUYV.
// =============================================================================

const (
	// DefaultWidth is the capture width in pixels
	DefaultWidth = 640

	// DefaultHeight is the capture height in pixels
	DefaultHeight = 480

	// DefaultFPS is the requested capture rate
	DefaultFPS = 30

	// DefaultFormat is the preferred ffmpeg -input_format
	// Options: "mjpeg" (recommended), "yuyv" (fallback)
	DefaultFormat = "mjpeg"
)

// Options selects the capture mode. Zero values fall back to the device
// native mode (gocv) or the defaults above (ffmpeg).
type Options struct {
	Width  int
	Height int
	FPS    int
	Format string
}

// withDefaults fills zero fields from the package defaults.
func (o Options) withDefaults() Options {
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = DefaultWidth, DefaultHeight
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	return o
}
