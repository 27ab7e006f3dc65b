// ════════════════════════════════════════════════════════════════════════════════════════════════
// smpbench - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Multi-Core Bring-Up & Memory Benchmark
// Component: Main Entry Point & System Orchestration
//
// Description:
//   Phased orchestration: early boot decoding → multi-core payload → result recording.
//
// Architecture:
//   - Phase 0: Configuration and the memory-map decode (single thread, before any core starts)
//   - Phase 1: Multi-core payload (activation, hourglass, publication, grid)
//   - Phase 2: Persistence and export of the measured run
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smpbench/config"
	"smpbench/control"
	"smpbench/debug"
	"smpbench/memmap"
	"smpbench/payload"
	"smpbench/report"
	"smpbench/results"
	"smpbench/utils"
)

func main() {
	cfg := loadConfig()
	out := utils.NewSink(os.Stdout)

	// PHASE 0: Early boot decoding, outside the multi-core payload
	if cfg.MmapImage != "" {
		if err := dumpMemoryMap(out, cfg.MmapImage); err != nil {
			debug.DropError("MMAP", err)
		}
	}

	setupSignalHandling()

	// PHASE 1: Multi-core payload
	debug.DropMessage("INIT", "starting "+utils.Itoa(cfg.Cores)+" cores")
	started := time.Now()
	res := payload.Launch(cfg.Cores, payload.Options{
		Grid:      cfg.Grid,
		Hourglass: cfg.Hourglass(),
		Out:       out,
		Topology:  cfg.Topology,
	})
	debug.DropMessage("DONE", "activation by core "+utils.Itoa(res.Activator)+
		", emulation active: "+boolString(res.EmulationActive))

	for id, err := range res.Errors {
		if err != nil {
			debug.DropError("CORE "+utils.Itoa(id), err)
		}
	}
	for id, ok := range res.Verified {
		if !ok {
			debug.DropMessage("VERIFY", "core "+utils.Itoa(id)+" saw an incomplete buffer")
		}
	}

	// PHASE 2: Record the run
	run := &results.Run{
		Started:   started,
		Cores:     res.Cores,
		Activator: res.Activator,
		Grid:      res.Grid,
		Hourglass: res.Hourglass,
		Topology:  res.Topology,
	}
	record(cfg, run)
}

// loadConfig merges defaults, the optional JSON file and command-line flags.
func loadConfig() config.Config {
	var (
		path       = flag.String("config", "", "JSON run configuration")
		cores      = flag.Int("cores", 0, "number of cores to start (default: all usable CPUs)")
		hourglass  = flag.Duration("hourglass", -1, "duration of each hourglass phase (0 disables)")
		db         = flag.String("db", "", "sqlite results database")
		jsonPath   = flag.String("json", "", "write the run as JSON to this file")
		png        = flag.String("png", "", "write a heatmap of the grid to this PNG file")
		mmap       = flag.String("mmap", "", "saved multiboot info image whose memory map to decode")
		noTopology = flag.Bool("no-topology", false, "skip the topology query")
		accesses   = flag.Int("accesses", 0, "loads per grid cell")
		maxRange   = flag.Int("max-range-pow2", 0, "largest range exponent")
	)
	flag.Parse()

	cfg := config.Default()
	if *path != "" {
		var err error
		if cfg, err = config.Load(*path); err != nil {
			debug.Fatal("CONFIG", err.Error())
		}
	}
	if *cores > 0 {
		cfg.Cores = *cores
	}
	if *hourglass >= 0 {
		cfg.HourglassMs = int(*hourglass / time.Millisecond)
	}
	if *db != "" {
		cfg.DBPath = *db
	}
	if *jsonPath != "" {
		cfg.JSONPath = *jsonPath
	}
	if *png != "" {
		cfg.PNGPath = *png
	}
	if *mmap != "" {
		cfg.MmapImage = *mmap
	}
	if *noTopology {
		cfg.Topology = false
	}
	if *accesses > 0 {
		cfg.Grid.Accesses = *accesses
	}
	if *maxRange > 0 {
		cfg.Grid.MaxRangePow2 = *maxRange
	}
	if err := cfg.Validate(); err != nil {
		debug.Fatal("CONFIG", err.Error())
	}
	return cfg
}

// dumpMemoryMap decodes the memory map of a saved boot info image and prints
// one line per entry.
func dumpMemoryMap(out *utils.Sink, path string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := memmap.ParseInfo(image)
	if err != nil {
		return err
	}
	if info.HasMem() {
		out.Println("mem_lower: " + utils.Utoa(uint64(info.MemLower)) + "k  mem_upper: " + utils.Utoa(uint64(info.MemUpper)) + "k")
	}
	region, err := info.MemoryMap(memmap.ImageResolver(image))
	if err != nil {
		return err
	}
	out.Println("mmap_length: " + utils.Utoa(uint64(info.MmapLength)) + "  mmap_addr: " + utils.Hex64(uint64(info.MmapAddr)))
	walkErr := region.Walk(func(e memmap.Entry) bool {
		out.Println("  " + e.String())
		return true
	})
	out.Println("available: " + utils.SizeLabel(region.Available()))
	return walkErr
}

// record persists the run to sqlite and writes the optional JSON and PNG.
func record(cfg config.Config, run *results.Run) {
	if cfg.DBPath != "" {
		store, err := results.Open(cfg.DBPath)
		if err != nil {
			debug.DropError("RESULTS", err)
		} else {
			if _, err := store.SaveRun(run); err != nil {
				debug.DropError("RESULTS", err)
			}
			store.Close()
		}
	}
	if cfg.JSONPath != "" {
		if err := results.ExportFile(cfg.JSONPath, run); err != nil {
			debug.DropError("EXPORT", err)
		}
	}
	if cfg.PNGPath != "" && run.Grid != nil {
		if err := report.Heatmap(run.Grid, cfg.PNGPath); err != nil {
			debug.DropError("HEATMAP", err)
		}
	}
}

// setupSignalHandling turns SIGINT/SIGTERM into a cooperative stop request
// for the hourglass phases. Rendezvous points are not interruptible.
func setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "interrupt received, finishing current phase")
		control.Shutdown()
	}()
}

func boolString(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
