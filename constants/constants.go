// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go - Global bring-up tunables & benchmark bounds
//
// Purpose:
//   - Defines the core-count ceiling that seeds the activation sentinel.
//   - Fixes the page size and the stride/range grid of the memory benchmark.
//   - Names the default on-disk artefacts (results DB, JSON, heatmap).
//
// ⚠️ No runtime logic here; all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Core Topology ──────────────────────────────

const (
	// MaxCPU is the largest number of cores the payload will coordinate.
	// The barrier's "not yet sized" sentinel is MaxCPU+1, a count no real
	// rendezvous can ever reach.
	MaxCPU = 64

	// CoordinatorCore is the core that owns every single-owner step
	// (allocation, grid measurement, topology query).
	CoordinatorCore = 0
)

// ─────────────────────────────── Spinning ─────────────────────────────────

const (
	// SpinYieldMask controls how often a spinning core hands its thread back
	// to the Go scheduler: once every SpinYieldMask+1 failed polls.
	// Must be 2^n-1.
	SpinYieldMask = (1 << 10) - 1
)

// ───────────────────────────── Memory Pages ───────────────────────────────

const (
	// PageSize is the allocation granule of the page allocator.
	PageSize = 4096

	// FillPattern is the byte the producer stamps over a published buffer
	// so consumers can tell a fully initialised view from a zeroed one.
	FillPattern = 0xA5
)

// ─────────────────────────── Benchmark Grid ───────────────────────────────

const (
	// MinStridePow2 / MaxStridePow2 bound the stride rows: 4 B … 512 B.
	MinStridePow2 = 2
	MaxStridePow2 = 9

	// MinRangePow2 / MaxRangePow2 bound the range columns: 4 KiB … 32 MiB.
	// The buffer is sized to 1<<MaxRangePow2 so every column is resident.
	MinRangePow2 = 12
	MaxRangePow2 = 25

	// Accesses is the fixed number of strided loads per grid cell.
	Accesses = 1 << 20

	// HourglassSeconds is the default duration of each hourglass phase.
	HourglassSeconds = 1
)

// ─────────────────────────── Memory-Map Layout ────────────────────────────

const (
	// MmapSizeField is the width of the per-entry size prefix. It is not
	// counted in the entry's own record_size.
	MmapSizeField = 4

	// MmapMinRecord is the smallest record_size that still holds
	// base (8) + length (8) + type (4).
	MmapMinRecord = 20

	// MmapTypeAvailable is the only region type code given its own name.
	MmapTypeAvailable = 1
)

// ─────────────────────────── Output Artefacts ─────────────────────────────

const (
	// ResultsDBPath is the default sqlite database for recorded runs.
	ResultsDBPath = "smpbench_results.db"

	// HeatmapCell is the pixel size of one grid cell in the PNG heatmap.
	HeatmapCell = 48
)
