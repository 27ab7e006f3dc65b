package bench

import (
	"time"
)

// HourglassStats summarises one hourglass run: a tight loop that reads the
// monotonic clock back to back and records the gaps between reads. Large
// gaps are time the core spent somewhere else (interrupts, the emulation
// layer, a co-scheduled thread).
type HourglassStats struct {
	Core      int           `json:"core"`
	Duration  time.Duration `json:"duration_ns"`
	Loops     uint64        `json:"loops"`
	MinGap    time.Duration `json:"min_gap_ns"`
	MaxGap    time.Duration `json:"max_gap_ns"`
	AvgGap    time.Duration `json:"avg_gap_ns"`
	Detours   uint64        `json:"detours"`
	Threshold time.Duration `json:"threshold_ns"`
}

// DetourThreshold is the gap above which a clock read counts as a detour.
const DetourThreshold = 10 * time.Microsecond

// Hourglass spins for d reading the clock and returns gap statistics.
// stop is polled between reads so a shutdown can end the phase early; it
// may be nil.
func Hourglass(core int, d time.Duration, stop func() bool) HourglassStats {
	st := HourglassStats{Core: core, Threshold: DetourThreshold, MinGap: time.Duration(1<<63 - 1)}

	start := time.Now()
	prev := start
	deadline := start.Add(d)
	for {
		now := time.Now()
		gap := now.Sub(prev)
		prev = now
		st.Loops++
		if gap < st.MinGap {
			st.MinGap = gap
		}
		if gap > st.MaxGap {
			st.MaxGap = gap
		}
		if gap > DetourThreshold {
			st.Detours++
		}
		if !now.Before(deadline) || (stop != nil && stop()) {
			break
		}
	}

	st.Duration = prev.Sub(start)
	if st.Loops > 0 {
		st.AvgGap = st.Duration / time.Duration(st.Loops)
	}
	return st
}
