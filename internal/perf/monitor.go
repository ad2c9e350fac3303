// Package perf samples host load for the periodic health log.
package perf

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Errors
var (
	ErrInvalidLoadAverage  = errors.New("perf: invalid load average format")
	ErrTemperatureNotFound = errors.New("perf: temperature sensors not found")
)

// thermalZones are read relative to the monitor root.
var thermalZones = []string{
	"sys/class/thermal/thermal_zone0/temp",
	"sys/class/thermal/thermal_zone1/temp",
	"sys/class/thermal/thermal_zone2/temp",
	"sys/devices/virtual/thermal/thermal_zone0/temp",
}

// Sample is one reading of host health. Zero fields were unavailable.
type Sample struct {
	LoadAvg     float64
	Temperature float64 // Celsius
	MemoryUsage float64 // percent
	TakenAt     time.Time
}

// Stressed reports whether the host is likely to drop frames.
func (s Sample) Stressed() bool {
	return s.LoadAvg > 1.5 || s.Temperature > 70.0
}

// Monitor reads /proc and /sys.
type Monitor struct {
	root string
	last Sample
}

// NewMonitor creates a monitor reading the live system.
func NewMonitor() *Monitor {
	return &Monitor{root: "/"}
}

// Update takes a new sample. Every sensor is optional: the sample always
// carries what could be read, and the error names the first missing one.
func (m *Monitor) Update() (Sample, error) {
	s := Sample{TakenAt: time.Now()}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var err error
	s.LoadAvg, err = m.readLoadAverage()
	keep(err)
	s.Temperature, err = m.readTemperature()
	keep(err)
	s.MemoryUsage, _ = m.readMemoryUsage() // non-critical

	m.last = s
	return s, firstErr
}

// Last returns the most recent sample.
func (m *Monitor) Last() Sample {
	return m.last
}

func (m *Monitor) path(rel string) string {
	return filepath.Join(m.root, rel)
}

func (m *Monitor) readLoadAverage() (float64, error) {
	data, err := os.ReadFile(m.path("proc/loadavg"))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 1 {
		return 0, ErrInvalidLoadAverage
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, ErrInvalidLoadAverage
	}
	return load, nil
}

// readTemperature averages all readable thermal zones.
func (m *Monitor) readTemperature() (float64, error) {
	var total float64
	var count int
	for _, zone := range thermalZones {
		data, err := os.ReadFile(m.path(zone))
		if err != nil {
			continue
		}
		if temp, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64); err == nil {
			// millidegrees Celsius
			total += temp / 1000.0
			count++
		}
	}
	if count == 0 {
		return 0, ErrTemperatureNotFound
	}
	return total / float64(count), nil
}

func (m *Monitor) readMemoryUsage() (float64, error) {
	data, err := os.ReadFile(m.path("proc/meminfo"))
	if err != nil {
		return 0, err
	}

	var memTotal, memAvailable int64
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			memTotal, _ = strconv.ParseInt(fields[1], 10, 64)
		case "MemAvailable:":
			memAvailable, _ = strconv.ParseInt(fields[1], 10, 64)
		}
	}
	if memTotal <= 0 {
		return 0, nil
	}
	return 100.0 * float64(memTotal-memAvailable) / float64(memTotal), nil
}
