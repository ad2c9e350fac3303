package perf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestMonitorReadsAllSensors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proc/loadavg", "0.52 0.40 0.31 1/123 4567\n")
	writeFile(t, root, "sys/class/thermal/thermal_zone0/temp", "50000\n")
	writeFile(t, root, "sys/class/thermal/thermal_zone1/temp", "60000\n")
	writeFile(t, root, "proc/meminfo", "MemTotal:  1000 kB\nMemFree: 100 kB\nMemAvailable:  250 kB\n")

	m := &Monitor{root: root}
	s, err := m.Update()
	require.NoError(t, err)

	assert.InDelta(t, 0.52, s.LoadAvg, 1e-9)
	assert.InDelta(t, 55.0, s.Temperature, 1e-9)
	assert.InDelta(t, 75.0, s.MemoryUsage, 1e-9)
	assert.False(t, s.Stressed())
	assert.Equal(t, s, m.Last())
}

func TestMonitorMissingSensorsKeepPartialSample(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proc/loadavg", "2.00 1.00 1.00 1/1 1\n")

	m := &Monitor{root: root}
	s, err := m.Update()
	assert.ErrorIs(t, err, ErrTemperatureNotFound)
	assert.InDelta(t, 2.0, s.LoadAvg, 1e-9)
	assert.Zero(t, s.Temperature)
	assert.True(t, s.Stressed())
}

func TestMonitorBadLoadAverage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proc/loadavg", "\n")

	_, err := (&Monitor{root: root}).Update()
	assert.ErrorIs(t, err, ErrInvalidLoadAverage)
}
