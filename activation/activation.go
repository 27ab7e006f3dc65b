// Package activation performs the one-time switch from boot mode to
// multi-core mode: fixing the barrier's party count to the number of cores
// actually online and turning the firmware emulation layer off.
package activation

import (
	"smpbench/barrier"
	"smpbench/control"
	"smpbench/debug"
	"smpbench/spin"
	"smpbench/utils"
)

// Coordinator runs the activation step. It is built once by the payload setup
// and shared by reference with every core.
type Coordinator struct {
	mu         *spin.Mutex
	barrier    *barrier.Barrier
	online     func() uint32
	deactivate func()
}

// New wires a coordinator to a launch's online counter and a machine's
// emulation layer.
func New(mu *spin.Mutex, b *barrier.Barrier, online func() uint32, emu *control.Emulation) *Coordinator {
	return NewWith(mu, b, online, emu.Deactivate)
}

// NewWith lets callers substitute the one-time side effect.
func NewWith(mu *spin.Mutex, b *barrier.Barrier, online func() uint32, deactivate func()) *Coordinator {
	return &Coordinator{mu: mu, barrier: b, online: online, deactivate: deactivate}
}

// Activate must be called once by every core before its first Await on the
// coordinated barrier. The first core to get here sizes the barrier and runs
// the side effect; everyone else finds the sentinel resolved and does
// nothing. It reports whether the calling core performed the transition.
//
// Zero online cores is a configuration error and halts.
func (c *Coordinator) Activate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.barrier.IsSized() {
		return false
	}

	n := c.online()
	if n == 0 {
		debug.Fatal("ACTIVATE", "zero cores online")
	}
	c.barrier.Resize(n)
	c.deactivate()
	debug.DropMessage("ACTIVATE", "barrier sized to "+utils.Itoa(int(n))+" cores")
	return true
}
