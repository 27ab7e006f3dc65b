// ════════════════════════════════════════════════════════════════════════════════════════════════
// Multi-Core Benchmark Payload
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Per-Core Payload & Shared Setup
//
// Description:
//   Every online core runs Machine.Run once. The Machine is the explicitly constructed singleton
//   that owns the shared mutex, the activation-sized barrier, the buffer handle and the console.
//   It is built and fully initialised before any core is started.
//
// Phases (all cores):
//   1. Activation        first core sizes the barrier and turns the emulation layer off
//   2. Hourglass (1 CPU) core 0 alone, after a rendezvous
//   3. Hourglass (2 CPU) cores 0 and 1 together, when two or more cores are online
//   4. Publication       core 0 allocates, fills and publishes; everyone acquires after the barrier
//   5. Grid              core 0 measures the stride × range matrix over the published buffer
//   6. Final rendezvous  nobody leaves before the grid is printed
//
// Core 0 additionally answers the topology query right after activation; it does not wait on
// any peer to do so.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package payload

import (
	"sync/atomic"
	"time"

	"smpbench/activation"
	"smpbench/barrier"
	"smpbench/bench"
	"smpbench/constants"
	"smpbench/control"
	"smpbench/cores"
	"smpbench/debug"
	"smpbench/handoff"
	"smpbench/pages"
	"smpbench/report"
	"smpbench/spin"
	"smpbench/topology"
	"smpbench/utils"
)

// Options configures one payload run.
type Options struct {
	Grid      bench.Config
	Hourglass time.Duration // per hourglass phase; 0 skips the phases
	Alloc     pages.Allocator
	Out       *utils.Sink
	Topology  bool               // core 0 answers the topology query
	Emulation *control.Emulation // nil: the machine gets its own active layer
}

// Result is everything the cores measured. Slices indexed by core id are
// written only by that core.
type Result struct {
	Cores     int
	Activator int // core that performed the activation step
	Topology  *topology.Topology
	Hourglass []bench.HourglassStats
	Grid      *bench.Grid
	Verified  []bool  // per core: consumer saw the complete fill
	Errors    []error // per core: publication or grid failure

	// EmulationActive and Deactivations describe the machine's firmware
	// emulation layer after the run.
	EmulationActive bool
	Deactivations   uint32
}

// Machine is the shared state of one payload run.
type Machine struct {
	opts    Options
	mu      spin.Mutex
	barrier *barrier.Barrier
	coord   *activation.Coordinator
	handle  *handoff.Handle
	group   *cores.Group
	emu     *control.Emulation

	activator atomic.Int32
	res       Result
	twoCore   [2]bench.HourglassStats
	oneCore   bench.HourglassStats
}

// NewMachine builds the shared state for up to constants.MaxCPU cores. The
// barrier starts out holding the activation sentinel. Every machine owns its
// own online counter, so machines never observe each other's cores.
func NewMachine(opts Options) *Machine {
	if opts.Alloc == nil {
		opts.Alloc = pages.Default()
	}
	if opts.Emulation == nil {
		opts.Emulation = control.NewEmulation()
	}
	m := &Machine{
		opts:    opts,
		barrier: barrier.NewUnsized(constants.MaxCPU),
		handle:  handoff.NewHandle(constants.CoordinatorCore),
		group:   cores.NewGroup(),
		emu:     opts.Emulation,
	}
	m.coord = activation.New(&m.mu, m.barrier, m.group.Online, m.emu)
	m.activator.Store(-1)
	m.res.Verified = make([]bool, constants.MaxCPU)
	m.res.Errors = make([]error, constants.MaxCPU)
	return m
}

// Barrier exposes the coordinated barrier (for inspection in tests).
func (m *Machine) Barrier() *barrier.Barrier {
	return m.barrier
}

// Handle exposes the published buffer handle.
func (m *Machine) Handle() *handoff.Handle {
	return m.handle
}

// Launch runs the payload on n cores of this machine's group and returns once
// all of them finished. A machine launches once.
func (m *Machine) Launch(n int) {
	if n > constants.MaxCPU {
		debug.Fatal("PAYLOAD", utils.Itoa(n)+" cores exceeds MaxCPU "+utils.Itoa(constants.MaxCPU))
	}
	m.group.Launch(n, m.Run)
}

// Run is the per-core payload. Every online core calls it exactly once.
func (m *Machine) Run(id int) {
	if m.coord.Activate() {
		m.activator.Store(int32(id))
	}
	online := int(m.barrier.Parties())

	if id == constants.CoordinatorCore && m.opts.Topology {
		m.queryTopology(id)
	}

	m.hourglassPhases(id, online)

	m.barrier.Await()

	view, err := handoff.Exchange(id, m.barrier, m.handle, m.opts.Alloc,
		pages.For(m.opts.Grid.BufferBytes()), fillPattern)
	if err != nil {
		m.res.Errors[id] = err
		debug.DropError("CORE "+utils.Itoa(id)+" publication", err)
	} else {
		m.res.Verified[id] = view.Uniform(constants.FillPattern) && view.Verify()
	}

	if id == constants.CoordinatorCore && err == nil {
		m.runGrid(id, view)
	}

	m.barrier.Await()
}

// Result collects the measurements. Call it only after every core returned.
func (m *Machine) Result() Result {
	r := m.res
	r.Cores = int(m.barrier.Parties())
	r.Activator = int(m.activator.Load())
	r.EmulationActive = m.emu.Active()
	r.Deactivations = m.emu.Deactivations()
	r.Verified = r.Verified[:r.Cores]
	r.Errors = r.Errors[:r.Cores]
	if m.opts.Hourglass > 0 {
		r.Hourglass = append(r.Hourglass, m.oneCore)
		if r.Cores > 1 {
			r.Hourglass = append(r.Hourglass, m.twoCore[0], m.twoCore[1])
		}
	}
	return r
}

func (m *Machine) hourglassPhases(id, online int) {
	d := m.opts.Hourglass
	if d <= 0 {
		return
	}

	if id == constants.CoordinatorCore {
		m.println("1 CPU hourglass (" + d.String() + ") -------------------------------")
	}
	m.barrier.Await()
	if id == constants.CoordinatorCore {
		m.oneCore = bench.Hourglass(id, d, control.Stopping)
	}

	if online > 1 {
		if id == constants.CoordinatorCore {
			m.println("2 CPUs hourglass (" + d.String() + ") ------------------------------")
		}
		m.barrier.Await()
		if id < 2 {
			m.twoCore[id] = bench.Hourglass(id, d, control.Stopping)
		}
	}
}

func (m *Machine) queryTopology(id int) {
	t, err := topology.Query(m.group.CPUFor(id))
	if err != nil {
		debug.DropError("TOPOLOGY", err)
	}
	m.res.Topology = &t
	m.println("topology: " + t.String())
}

func (m *Machine) runGrid(id int, view handoff.View) {
	g, err := bench.Run(view.Bytes(), m.opts.Grid)
	if err != nil {
		m.res.Errors[id] = err
		debug.DropError("GRID", err)
		return
	}
	m.res.Grid = g
	for _, line := range report.MatrixLines(g) {
		m.println(line)
	}
}

func (m *Machine) println(s string) {
	if m.opts.Out != nil {
		m.opts.Out.Println(s)
	}
}

func fillPattern(b []byte) {
	pages.Fill(b, constants.FillPattern)
}

// Launch builds a Machine, runs it on n cores and returns the result.
func Launch(n int, opts Options) Result {
	m := NewMachine(opts)
	m.Launch(n)
	return m.Result()
}
