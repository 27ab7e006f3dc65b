// ════════════════════════════════════════════════════════════════════════════════════════════════
// Rendezvous Barrier
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Phase-Counted Multi-Core Meeting Point
//
// Description:
//   Releases a fixed party of cores together once all of them have arrived, then resets for the
//   next phase. Arrivals are counted with an atomic increment; the last arrival clears the count
//   and advances the phase word, which is the release signal every other core polls on.
//
// Invariants:
//   - 0 ≤ arrived ≤ expected at all times.
//   - expected is fixed once (at construction or by the activation step) and never changes after.
//   - The phase only moves forward; a core cannot complete the same phase twice.
//
// Liveness:
//   Every core that can reach a shared rendezvous must eventually reach it. A missing party stalls
//   the rest forever; nothing here detects that.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package barrier

import (
	"sync/atomic"

	"smpbench/debug"
	"smpbench/spin"
	"smpbench/utils"
)

// Barrier is a reusable rendezvous for a fixed number of parties.
type Barrier struct {
	expected uint32
	sentinel uint32 // "not yet sized" marker; 0 when built sized
	_        [56]byte
	arrived  uint32
	_        [60]byte
	phase    uint64
	_        [56]byte
}

// New returns a barrier sized for parties cores. Zero parties can never
// release and is a configuration error.
func New(parties uint32) *Barrier {
	if parties == 0 {
		debug.Fatal("BARRIER", "constructed with zero expected parties")
	}
	return &Barrier{expected: parties}
}

// NewUnsized returns a barrier whose party count holds the activation
// sentinel maxCPU+1. It must be resolved with Resize before any core awaits.
func NewUnsized(maxCPU uint32) *Barrier {
	s := maxCPU + 1
	return &Barrier{expected: s, sentinel: s}
}

// Parties returns the current party count, which is the sentinel until the
// barrier is sized.
func (b *Barrier) Parties() uint32 {
	return atomic.LoadUint32(&b.expected)
}

// Sentinel returns the "not yet sized" marker, or 0 for barriers built sized.
func (b *Barrier) Sentinel() uint32 {
	return b.sentinel
}

// IsSized reports whether the party count has been fixed.
func (b *Barrier) IsSized() bool {
	return b.sentinel == 0 || atomic.LoadUint32(&b.expected) != b.sentinel
}

// Phase returns the number of completed rendezvous.
func (b *Barrier) Phase() uint64 {
	return atomic.LoadUint64(&b.phase)
}

// Arrived returns how many parties are waiting in the current phase.
func (b *Barrier) Arrived() uint32 {
	return atomic.LoadUint32(&b.arrived)
}

// Resize replaces the sentinel with the real party count. It may run once,
// before any core awaits; the caller serialises it (see activation).
func (b *Barrier) Resize(parties uint32) {
	switch {
	case parties == 0:
		debug.Fatal("BARRIER", "resize to zero parties")
	case b.IsSized():
		debug.Fatal("BARRIER", "party count already fixed at "+utils.Itoa(int(b.Parties())))
	case parties >= b.sentinel:
		debug.Fatal("BARRIER", "party count "+utils.Itoa(int(parties))+" collides with sentinel")
	}
	atomic.StoreUint32(&b.expected, parties)
}

// Await blocks the calling core until every party has arrived for the
// current phase, then releases all of them together. It returns the index of
// the phase that was just completed.
func (b *Barrier) Await() uint64 {
	n := atomic.LoadUint32(&b.expected)
	if n == 0 || !b.IsSized() {
		debug.Fatal("BARRIER", "await on unsized barrier")
	}

	// The phase must be sampled before arriving: once this core is counted
	// the last arrival may advance it at any moment.
	phase := atomic.LoadUint64(&b.phase)

	if atomic.AddUint32(&b.arrived, 1) == n {
		atomic.StoreUint32(&b.arrived, 0)
		atomic.StoreUint64(&b.phase, phase+1)
		return phase
	}

	spin.Until(func() bool {
		return atomic.LoadUint64(&b.phase) != phase
	})
	return phase
}
