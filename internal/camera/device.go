package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Camera represents a camera device node
type Camera struct {
	DeviceID   string
	DevicePath string
	Name       string
}

// DiscoverCameras finds the video device nodes on Linux, sorted by path.
func DiscoverCameras() ([]Camera, error) {
	return discoverIn("/dev", "/sys/class/video4linux")
}

func discoverIn(devDir, sysDir string) ([]Camera, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, fmt.Errorf("camera: scan %s: %w", devDir, err)
	}

	var cameras []Camera
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "video") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // node vanished between ReadDir and Info
		}
		if info.Mode()&os.ModeDevice == 0 {
			continue
		}
		cameras = append(cameras, Camera{
			DeviceID:   e.Name(),
			DevicePath: filepath.Join(devDir, e.Name()),
			Name:       deviceName(sysDir, e.Name()),
		})
	}

	sort.Slice(cameras, func(i, j int) bool {
		return cameras[i].DevicePath < cameras[j].DevicePath
	})
	return cameras, nil
}

// deviceName returns the driver's name for id, or a generic one when the
// kernel does not expose it.
func deviceName(sysDir, id string) string {
	data, err := os.ReadFile(filepath.Join(sysDir, id, "name"))
	if err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Camera %s", id)
}

// DevicePathForIndex returns the conventional Linux node for a capture index.
func DevicePathForIndex(index int) string {
	return fmt.Sprintf("/dev/video%d", index)
}
