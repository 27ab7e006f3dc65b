// ════════════════════════════════════════════════════════════════════════════════════════════════
// Benchmark Grid Runner
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Stride × Range Memory Latency Matrix
//
// Description:
//   For every power-of-two stride (rows) and every power-of-two working-set range (columns) the
//   runner performs a fixed number of loads that step through the buffer by `stride` bytes and
//   wrap inside its first `range` bytes. Each cell records the elapsed wall time and the average
//   cost per load.
//
// Preconditions:
//   - Runs on the coordinator core only, after the publication rendezvous, so the buffer is
//     complete and resident.
//   - The buffer covers the largest configured range.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package bench

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"smpbench/constants"
)

var (
	// ErrBadConfig reports an unusable grid configuration.
	ErrBadConfig = errors.New("bench: invalid grid configuration")

	// ErrBufferTooSmall reports a buffer that does not cover the largest range.
	ErrBufferTooSmall = errors.New("bench: buffer smaller than largest range")
)

// sink keeps the measured loads observable so the compiler cannot drop them.
var sink atomic.Uint64

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Config bounds the grid. Strides and ranges are 1<<pow for each pow in the
// inclusive bounds.
type Config struct {
	MinStridePow2 int `json:"min_stride_pow2"`
	MaxStridePow2 int `json:"max_stride_pow2"`
	MinRangePow2  int `json:"min_range_pow2"`
	MaxRangePow2  int `json:"max_range_pow2"`
	Accesses      int `json:"accesses"`
}

// DefaultConfig is the 4 B…512 B by 4 KiB…32 MiB grid.
func DefaultConfig() Config {
	return Config{
		MinStridePow2: constants.MinStridePow2,
		MaxStridePow2: constants.MaxStridePow2,
		MinRangePow2:  constants.MinRangePow2,
		MaxRangePow2:  constants.MaxRangePow2,
		Accesses:      constants.Accesses,
	}
}

// Validate checks the bounds.
func (c Config) Validate() error {
	switch {
	case c.MinStridePow2 < 0 || c.MinRangePow2 < 0:
		return fmt.Errorf("%w: negative exponent", ErrBadConfig)
	case c.MinStridePow2 > c.MaxStridePow2:
		return fmt.Errorf("%w: stride bounds %d > %d", ErrBadConfig, c.MinStridePow2, c.MaxStridePow2)
	case c.MinRangePow2 > c.MaxRangePow2:
		return fmt.Errorf("%w: range bounds %d > %d", ErrBadConfig, c.MinRangePow2, c.MaxRangePow2)
	case c.MaxRangePow2 > 40 || c.MaxStridePow2 > 40:
		return fmt.Errorf("%w: exponent above 40", ErrBadConfig)
	case c.Accesses <= 0:
		return fmt.Errorf("%w: accesses must be positive", ErrBadConfig)
	}
	return nil
}

// BufferBytes is the buffer size that covers the largest range.
func (c Config) BufferBytes() int {
	return 1 << c.MaxRangePow2
}

// Strides lists the row strides in ascending order.
func (c Config) Strides() []uint64 {
	return pow2s(c.MinStridePow2, c.MaxStridePow2)
}

// Ranges lists the column ranges in ascending order.
func (c Config) Ranges() []uint64 {
	return pow2s(c.MinRangePow2, c.MaxRangePow2)
}

func pow2s(lo, hi int) []uint64 {
	out := make([]uint64, 0, hi-lo+1)
	for p := lo; p <= hi; p++ {
		out = append(out, 1<<uint(p))
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MEASUREMENT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Cell is one measured (stride, range) configuration.
type Cell struct {
	Stride      uint64        `json:"stride"`
	Range       uint64        `json:"range"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	NsPerAccess float64       `json:"ns_per_access"`
}

// RangeStride performs accesses loads from buf, advancing stride bytes per
// load and wrapping inside the first rng bytes. rng must be a power of two
// no larger than len(buf).
//
//go:norace
func RangeStride(buf []byte, rng, stride uint64, accesses int) Cell {
	mask := rng - 1
	var off uint64
	var acc uint64

	start := time.Now()
	for i := 0; i < accesses; i++ {
		acc += uint64(buf[off])
		off = (off + stride) & mask
	}
	elapsed := time.Since(start)

	sink.Add(acc)
	if elapsed < 0 {
		elapsed = 0
	}
	return Cell{
		Stride:      stride,
		Range:       rng,
		Elapsed:     elapsed,
		NsPerAccess: float64(elapsed.Nanoseconds()) / float64(accesses),
	}
}

// Grid is the measured matrix: Cells[i][j] is Strides[i] × Ranges[j].
type Grid struct {
	Strides  []uint64 `json:"strides"`
	Ranges   []uint64 `json:"ranges"`
	Accesses int      `json:"accesses"`
	Cells    [][]Cell `json:"cells"`
}

// At returns the cell for row i, column j.
func (g *Grid) At(i, j int) Cell {
	return g.Cells[i][j]
}

// Run measures every cell of the configured grid over buf, rows in
// ascending stride order and columns in ascending range order.
func Run(buf []byte, cfg Config) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(buf) < cfg.BufferBytes() {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrBufferTooSmall, len(buf), cfg.BufferBytes())
	}

	g := &Grid{
		Strides:  cfg.Strides(),
		Ranges:   cfg.Ranges(),
		Accesses: cfg.Accesses,
	}
	g.Cells = make([][]Cell, len(g.Strides))
	for i, stride := range g.Strides {
		row := make([]Cell, len(g.Ranges))
		for j, rng := range g.Ranges {
			row[j] = RangeStride(buf, rng, stride, cfg.Accesses)
		}
		g.Cells[i] = row
	}
	return g, nil
}
