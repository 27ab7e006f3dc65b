// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🧪 TEST SUITE: MULTI-CORE PAYLOAD
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Coverage:
//   - End-to-end run on several cores with a small grid
//   - Activation performed exactly once, by one of the launched cores
//   - Every core verifies the published buffer
//   - Hourglass phases produce one-core and two-core statistics
//   - Back-to-back launches in one process each count only their own cores
// ════════════════════════════════════════════════════════════════════════════════════════════════

package payload

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"smpbench/bench"
	"smpbench/constants"
	"smpbench/control"
	"smpbench/debug"
	"smpbench/pages"
	"smpbench/utils"
)

func TestMain(m *testing.M) {
	debug.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func smallGrid() bench.Config {
	return bench.Config{
		MinStridePow2: 2,
		MaxStridePow2: 3,
		MinRangePow2:  12,
		MaxRangePow2:  13,
		Accesses:      256,
	}
}

func TestLaunchEndToEnd(t *testing.T) {
	var out bytes.Buffer
	res := Launch(3, Options{
		Grid:     smallGrid(),
		Alloc:    pages.Heap{},
		Out:      utils.NewSink(&out),
		Topology: true,
	})

	if res.Cores != 3 {
		t.Fatalf("Cores = %d, want 3", res.Cores)
	}
	if res.Activator < 0 || res.Activator > 2 {
		t.Fatalf("Activator = %d", res.Activator)
	}
	if res.Deactivations != 1 || res.EmulationActive {
		t.Fatalf("emulation deactivated %d times", res.Deactivations)
	}
	for id := 0; id < res.Cores; id++ {
		if res.Errors[id] != nil {
			t.Fatalf("core %d: %v", id, res.Errors[id])
		}
		if !res.Verified[id] {
			t.Fatalf("core %d did not verify the buffer", id)
		}
	}
	if res.Grid == nil || len(res.Grid.Strides) != 2 || len(res.Grid.Ranges) != 2 {
		t.Fatalf("grid = %+v", res.Grid)
	}
	if res.Topology == nil || res.Hourglass != nil {
		t.Fatalf("topology %v, hourglass %v", res.Topology, res.Hourglass)
	}

	text := out.String()
	for _, want := range []string{"topology: cpu", "str.|range    4k    8k"} {
		if !strings.Contains(text, want) {
			t.Fatalf("console output missing %q:\n%s", want, text)
		}
	}
}

func TestHourglassPhases(t *testing.T) {
	var out bytes.Buffer
	res := Launch(2, Options{
		Grid:      smallGrid(),
		Hourglass: 2 * time.Millisecond,
		Alloc:     pages.Heap{},
		Out:       utils.NewSink(&out),
	})

	if len(res.Hourglass) != 3 {
		t.Fatalf("%d hourglass records, want 3", len(res.Hourglass))
	}
	if res.Hourglass[0].Core != 0 || res.Hourglass[1].Core != 0 || res.Hourglass[2].Core != 1 {
		t.Fatalf("hourglass cores = %d %d %d", res.Hourglass[0].Core, res.Hourglass[1].Core, res.Hourglass[2].Core)
	}
	for i, st := range res.Hourglass {
		if st.Loops == 0 || st.Duration < 2*time.Millisecond {
			t.Fatalf("record %d: %+v", i, st)
		}
	}
	if !strings.Contains(out.String(), "1 CPU hourglass") || !strings.Contains(out.String(), "2 CPUs hourglass") {
		t.Fatalf("phase banners missing:\n%s", out.String())
	}
}

func TestSingleCoreSkipsTwoCoreHourglass(t *testing.T) {
	res := Launch(1, Options{Grid: smallGrid(), Hourglass: time.Millisecond, Alloc: pages.Heap{}})
	if res.Cores != 1 || res.Activator != 0 || len(res.Hourglass) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !res.Verified[0] {
		t.Fatal("single core did not verify its own buffer")
	}
}

func TestLaunchTooManyCoresIsFatal(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("launch above MaxCPU should halt")
		}
	}()
	Launch(constants.MaxCPU+1, Options{Grid: smallGrid()})
}

// TestRepeatedLaunches runs the payload several times in one process. Each
// launch must size its barrier to its own cores and finish; a launch that
// saw earlier cores would spin forever.
func TestRepeatedLaunches(t *testing.T) {
	for i, n := range []int{2, 2, 3, 1} {
		done := make(chan Result, 1)
		go func() {
			done <- Launch(n, Options{Grid: smallGrid(), Alloc: pages.Heap{}})
		}()

		var res Result
		select {
		case res = <-done:
		case <-time.After(10 * time.Second):
			t.Fatalf("launch %d of %d cores did not finish", i, n)
		}
		if res.Cores != n {
			t.Fatalf("launch %d: Cores = %d, want %d", i, res.Cores, n)
		}
		if res.Deactivations != 1 || res.EmulationActive {
			t.Fatalf("launch %d: emulation deactivated %d times", i, res.Deactivations)
		}
		for id := 0; id < n; id++ {
			if !res.Verified[id] {
				t.Fatalf("launch %d: core %d did not verify the buffer", i, id)
			}
		}
	}
}

// TestSuppliedEmulationLayer: a caller-provided layer is the one switched
// off.
func TestSuppliedEmulationLayer(t *testing.T) {
	emu := control.NewEmulation()
	res := Launch(2, Options{Grid: smallGrid(), Alloc: pages.Heap{}, Emulation: emu})
	if emu.Active() || emu.Deactivations() != 1 || res.Deactivations != 1 {
		t.Fatalf("layer active=%v deactivations=%d", emu.Active(), emu.Deactivations())
	}
}
