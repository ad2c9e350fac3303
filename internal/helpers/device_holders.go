// Package helpers holds host-level utilities used before a camera is opened.
package helpers

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "KillHolders")

// DefaultGrace is the wait between SIGTERM and SIGKILL.
const DefaultGrace = 400 * time.Millisecond

// =============================================================================
// Device holder cleanup
// =============================================================================
// A webcam can only be opened by one process. A crashed previous run (or a
// leftover ffmpeg) keeps /dev/videoN busy, so the node is cleared first:
//
//   1. lsof -t lists PIDs holding the node
//   2. fuser -v is used when lsof finds nothing
//   3. our own PID is never touched
//   4. SIGTERM, grace period, SIGKILL for survivors
// =============================================================================

// FreeDevice terminates processes holding devicePath and returns the PIDs it
// signalled. It is a no-op when enabled is false.
func FreeDevice(devicePath string, enabled bool) []int {
	return FreeDeviceWithGrace(devicePath, enabled, DefaultGrace)
}

// FreeDeviceWithGrace is FreeDevice with an explicit SIGTERM grace period.
func FreeDeviceWithGrace(devicePath string, enabled bool, grace time.Duration) []int {
	if !enabled || devicePath == "" {
		return nil
	}

	pids := parsePIDLines(runCmd("lsof", "-t", devicePath))
	if len(pids) == 0 {
		pids = parseFuserPIDs(runCmd("fuser", "-v", devicePath))
	}
	pids = withoutPID(pids, os.Getpid())
	if len(pids) == 0 {
		log.Debugf("No holders of %s", devicePath)
		return nil
	}

	log.Warnf("Killing holders of %s: %v", devicePath, pids)

	for _, pid := range pids {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			if isPermissionError(err) {
				runCmd("sudo", "-n", "fuser", "-k", devicePath)
				break
			}
			log.WithError(err).Warnf("Failed to SIGTERM pid %d", pid)
		}
	}

	time.Sleep(grace)

	for _, pid := range pids {
		if !isPIDAlive(pid) {
			continue
		}
		if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
			if isPermissionError(err) {
				runCmd("sudo", "-n", "fuser", "-k", devicePath)
				continue
			}
			log.WithError(err).Warnf("Failed to SIGKILL pid %d", pid)
		}
	}
	return pids
}

// parsePIDLines reads one PID per line (lsof -t output).
func parsePIDLines(out string) []int {
	seen := make(map[int]struct{})
	for _, line := range strings.Split(out, "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && pid > 0 {
			seen[pid] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

var digitRegexp = regexp.MustCompile(`\b(\d+)\b`)

// parseFuserPIDs extracts PIDs from fuser output. The device path itself is
// stripped first so its trailing number is not mistaken for a PID.
func parseFuserPIDs(out string) []int {
	seen := make(map[int]struct{})
	for _, line := range strings.Split(out, "\n") {
		if i := strings.Index(line, ":"); i >= 0 {
			line = line[i+1:]
		}
		for _, match := range digitRegexp.FindAllString(line, -1) {
			if pid, err := strconv.Atoi(match); err == nil && pid > 0 {
				seen[pid] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

func withoutPID(pids []int, self int) []int {
	out := pids[:0]
	for _, pid := range pids {
		if pid != self {
			out = append(out, pid)
		}
	}
	return out
}

func isPIDAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

// runCmd runs a command with a 2 second timeout and returns trimmed stdout.
// Failures (missing tool, timeout, non-zero exit) yield "".
func runCmd(name string, args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func isPermissionError(err error) bool {
	return errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func sortedKeys(m map[int]struct{}) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
