package camera

import "time"

// Stats counts what a source has produced since it was opened.
type Stats struct {
	Frames      uint64
	Failures    uint64
	Consecutive int // failures since the last good frame
	StartedAt   time.Time
	LastFrameAt time.Time
}

func newStats(now time.Time) Stats {
	return Stats{StartedAt: now}
}

func (s *Stats) markFrame(now time.Time) {
	s.Frames++
	s.Consecutive = 0
	s.LastFrameAt = now
}

func (s *Stats) markFailure() {
	s.Failures++
	s.Consecutive++
}

// FPS returns the average frame rate since the source opened, or 0 if the
// last frame is more than a second old.
func (s Stats) FPS(now time.Time) float64 {
	if s.LastFrameAt.IsZero() || now.Sub(s.LastFrameAt) > time.Second {
		return 0
	}
	uptime := now.Sub(s.StartedAt).Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(s.Frames) / uptime
}
