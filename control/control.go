// control.go - Bring-up flags shared by every core
// ============================================================================
// SYSTEM CONTROL STATE
// ============================================================================
//
// Control holds the long-lived words the bring-up path shares:
//   • Emulation: whether a machine's boot-time firmware emulation layer is
//     still active (one per payload machine, switched off by activation)
//   • stop: process-wide cooperative shutdown request, set from the signal
//     handler and polled by long-running phases
//
// The online-core count is per launch and lives in cores.Group.
// All accessors are atomic.

package control

import (
	"sync/atomic"

	"smpbench/debug"
	"smpbench/utils"
)

// ============================================================================
// FIRMWARE EMULATION LAYER
// ============================================================================

// Emulation is the boot-time firmware emulation layer of one machine. The
// zero value is active.
type Emulation struct {
	off           uint32 // 1 = deactivated
	deactivations uint32 // Deactivate calls, observed by tests
}

// NewEmulation returns an active emulation layer.
func NewEmulation() *Emulation {
	return &Emulation{}
}

// Active reports whether the layer is still on.
//
//go:nosplit
//go:inline
func (e *Emulation) Active() bool {
	return atomic.LoadUint32(&e.off) == 0
}

// Deactivate switches the layer off. The layer is not idempotent-safe by
// contract; callers must guarantee a single call (see
// activation.Coordinator). Every call is counted so a second one is visible.
func (e *Emulation) Deactivate() {
	n := atomic.AddUint32(&e.deactivations, 1)
	atomic.StoreUint32(&e.off, 1)
	if n > 1 {
		debug.DropMessage("EMULATION", "deactivated "+utils.Itoa(int(n))+" times")
		return
	}
	debug.DropMessage("EMULATION", "firmware emulation layer off")
}

// Deactivations returns how many times Deactivate ran.
func (e *Emulation) Deactivations() uint32 {
	return atomic.LoadUint32(&e.deactivations)
}

// ============================================================================
// SHUTDOWN
// ============================================================================

var stop uint32 // 1 = shutdown requested

// Shutdown asks long-running phases (hourglass loops) to wind down.
//
//go:nosplit
//go:inline
func Shutdown() {
	atomic.StoreUint32(&stop, 1)
}

// Stopping reports whether Shutdown was requested.
//
//go:nosplit
//go:inline
func Stopping() bool {
	return atomic.LoadUint32(&stop) != 0
}

// ClearShutdown withdraws a pending shutdown request.
func ClearShutdown() {
	atomic.StoreUint32(&stop, 0)
}
