// ════════════════════════════════════════════════════════════════════════════════════════════════
// Per-Core Launcher
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Core Bring-Up
//
// Description:
//   Starts one thread of control per core. Each core is a goroutine locked to its own OS thread
//   and, on Linux, pinned to one CPU of the process affinity mask. Every core announces itself in
//   its group's online counter and then waits at a start gate, so by the time any core enters the
//   payload the online count is final.
//
// Threading model:
//   Cores never block on channels or the scheduler inside the payload; every wait is a spin loop.
//   The launcher itself only waits for all cores to return.
//
// State:
//   A Group owns everything one launch shares: the online count and the CPU layout. Groups are
//   independent, so separate launches never see each other's cores.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package cores

import (
	"runtime"
	"sync"
	"sync/atomic"

	"smpbench/barrier"
	"smpbench/debug"
	"smpbench/utils"
)

// Group is the shared state of one launch. A Group launches once.
type Group struct {
	online   atomic.Uint32
	launched atomic.Bool
	layout   []int // written before any core starts, read-only afterwards
}

// NewGroup returns a group with no cores online.
func NewGroup() *Group {
	return &Group{}
}

// Online returns the number of this group's cores that reached the payload
// entry.
func (g *Group) Online() uint32 {
	return g.online.Load()
}

// CPUFor returns the logical CPU that core id is pinned to, or -1 when
// pinning is unavailable or the group has not launched.
func (g *Group) CPUFor(id int) int {
	if len(g.layout) == 0 {
		return -1
	}
	return g.layout[id%len(g.layout)]
}

// Launch runs fn on n cores with ids 0..n-1 and returns once every core has
// returned. n must be positive and the group must not have launched before.
func (g *Group) Launch(n int, fn func(id int)) {
	if n <= 0 {
		debug.Fatal("CORES", "launch with "+utils.Itoa(n)+" cores")
	}
	if !g.launched.CompareAndSwap(false, true) {
		debug.Fatal("CORES", "group launched twice")
	}

	gate := barrier.New(uint32(n))
	g.layout = allowedCPUs()

	var wg sync.WaitGroup
	wg.Add(n)
	for id := 0; id < n; id++ {
		go func(id int) {
			// ── thread & affinity ─────────────────────────────
			// The thread is never unlocked: a goroutine that exits while
			// locked retires its thread, so no pinned mask leaks back into
			// the scheduler's pool.
			runtime.LockOSThread()
			defer wg.Done()
			if cpu := g.CPUFor(id); cpu >= 0 {
				setAffinity(cpu)
			}

			g.online.Add(1)
			gate.Await()
			fn(id)
		}(id)
	}
	wg.Wait()
}

// Launch runs fn on n cores of a fresh group.
func Launch(n int, fn func(id int)) {
	NewGroup().Launch(n, fn)
}
