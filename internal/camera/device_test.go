package camera

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverInSkipsRegularFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "video0"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "null"), nil, 0o644))

	cameras, err := discoverIn(dir, dir)
	require.NoError(t, err)
	assert.Empty(t, cameras)
}

func TestDiscoverInMissingDir(t *testing.T) {
	_, err := discoverIn(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, err)
}

func TestDeviceName(t *testing.T) {
	sys := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sys, "video0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sys, "video0", "name"), []byte("Integrated Camera: Integrated C\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(sys, "video2"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sys, "video2", "name"), []byte("  \n"), 0o644))

	assert.Equal(t, "Integrated Camera: Integrated C", deviceName(sys, "video0"))
	assert.Equal(t, "Camera video1", deviceName(sys, "video1"))
	assert.Equal(t, "Camera video2", deviceName(sys, "video2"))
}

func TestDevicePathForIndex(t *testing.T) {
	assert.Equal(t, "/dev/video0", DevicePathForIndex(0))
	assert.Equal(t, "/dev/video3", DevicePathForIndex(3))
}

func TestStats(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newStats(start)

	s.markFailure()
	s.markFailure()
	assert.Equal(t, 2, s.Consecutive)
	assert.Zero(t, s.FPS(start))

	for i := 1; i <= 30; i++ {
		s.markFrame(start.Add(time.Duration(i) * time.Second / 30))
	}
	assert.Equal(t, uint64(30), s.Frames)
	assert.Equal(t, uint64(2), s.Failures)
	assert.Zero(t, s.Consecutive)
	assert.InDelta(t, 30.0, s.FPS(start.Add(time.Second)), 0.01)

	// Stale source reports no rate.
	assert.Zero(t, s.FPS(start.Add(5*time.Second)))
}
