// mutex.go
//
// Busy-polling mutual exclusion over a single shared flag. A core that wants
// the lock keeps trying to move the flag from free to held; there is no
// sleeping, no queue and no timeout.
//
// Hazards (caller responsibility, not detected here):
//   • Recursive Lock by the holder deadlocks.
//   • A holder that never calls Unlock stalls every other core forever.

package spin

import (
	"runtime"
	"sync/atomic"

	"smpbench/constants"
)

const (
	unlocked uint32 = 0
	locked   uint32 = 1
)

// Mutex is a spin lock. The zero value is unlocked and ready to use; it must
// not be copied after first use.
type Mutex struct {
	state uint32
	_     [60]byte // keep the flag alone on its cache line
}

// Lock spins until the calling core owns the mutex.
func (m *Mutex) Lock() {
	Until(func() bool {
		return atomic.CompareAndSwapUint32(&m.state, unlocked, locked)
	})
}

// TryLock makes a single acquisition attempt.
//
//go:nosplit
func (m *Mutex) TryLock() bool {
	return atomic.CompareAndSwapUint32(&m.state, unlocked, locked)
}

// Unlock releases the mutex. Releasing a mutex that is not held is a
// programming error and panics.
//
//go:nosplit
func (m *Mutex) Unlock() {
	if !atomic.CompareAndSwapUint32(&m.state, locked, unlocked) {
		panic("spin: unlock of unlocked mutex")
	}
}

// Locked reports whether some core currently holds the mutex.
func (m *Mutex) Locked() bool {
	return atomic.LoadUint32(&m.state) == locked
}

// Until polls cond until it returns true. Every failed poll executes
// cpuRelax; every SpinYieldMask+1 failed polls the thread is offered back to
// the Go scheduler so peers sharing an OS thread still make progress.
func Until(cond func() bool) {
	for spins := 1; !cond(); spins++ {
		cpuRelax()
		if spins&constants.SpinYieldMask == 0 {
			runtime.Gosched()
		}
	}
}
