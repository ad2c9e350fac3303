package camera

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpeg(body ...byte) []byte {
	out := append([]byte{0xFF, 0xD8}, body...)
	return append(out, 0xFF, 0xD9)
}

func TestMJPEGSplitterSplitsConcatenatedFrames(t *testing.T) {
	first := jpeg(1, 2, 3)
	second := jpeg(4, 5)

	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0x11}) // garbage before the first frame
	stream.Write(first)
	stream.Write(second)

	s := newMJPEGSplitter(&stream)

	got, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMJPEGSplitterHandlesOneByteReads(t *testing.T) {
	frame := jpeg(0xFF, 0x00, 7, 8)
	s := newMJPEGSplitter(iotest.OneByteReader(bytes.NewReader(append(frame, frame...))))

	for i := 0; i < 2; i++ {
		got, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, frame, got)
	}
}

func TestMJPEGSplitterMarkerAcrossReads(t *testing.T) {
	// SOI split over two reads must still be found.
	stream := io.MultiReader(
		bytes.NewReader([]byte{0x10, 0xFF}),
		bytes.NewReader([]byte{0xD8, 9, 0xFF, 0xD9}),
	)
	s := newMJPEGSplitter(stream)

	got, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, jpeg(9), got)
}

func TestMJPEGSplitterTruncatedFrame(t *testing.T) {
	s := newMJPEGSplitter(bytes.NewReader([]byte{0xFF, 0xD8, 1, 2, 3}))

	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOptionsWithDefaults(t *testing.T) {
	got := Options{}.withDefaults()
	assert.Equal(t, Options{Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS, Format: DefaultFormat}, got)

	// A half-set size is replaced as a pair.
	got = Options{Width: 1280, FPS: 15, Format: "yuyv"}.withDefaults()
	assert.Equal(t, Options{Width: DefaultWidth, Height: DefaultHeight, FPS: 15, Format: "yuyv"}, got)

	got = Options{Width: 1280, Height: 720}.withDefaults()
	assert.Equal(t, 1280, got.Width)
	assert.Equal(t, 720, got.Height)
}

func TestFormatAttemptsOrder(t *testing.T) {
	s := &FFmpegSource{devicePath: "/dev/video0", opts: Options{Format: "yuyv"}.withDefaults()}
	attempts := s.formatAttempts()
	require.Len(t, attempts, 3)
	assert.Contains(t, attempts[0], "yuyv422")
	assert.Contains(t, attempts[1], "mjpeg")
	assert.NotContains(t, attempts[2], "-input_format")

	for _, args := range attempts {
		assert.Contains(t, args, "/dev/video0")
		assert.Contains(t, args, "640x480")
		assert.Equal(t, "-", args[len(args)-1])
	}
}
