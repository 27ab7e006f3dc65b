// Package config loads the optional JSON run configuration. Every field has
// a compile-time default in constants; the file overrides what it names and
// command-line flags override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"smpbench/bench"
	"smpbench/constants"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is one run's settings.
type Config struct {
	Cores       int          `json:"cores"`
	HourglassMs int          `json:"hourglass_ms"`
	Grid        bench.Config `json:"grid"`
	Topology    bool         `json:"topology"`
	DBPath      string       `json:"db_path"`
	JSONPath    string       `json:"json_path"`
	PNGPath     string       `json:"png_path"`
	MmapImage   string       `json:"mmap_image"` // saved multiboot info image to decode
}

// Default returns the built-in settings: every CPU the process may use, a
// one-second hourglass and the full grid.
func Default() Config {
	return Config{
		Cores:       min(runtime.NumCPU(), constants.MaxCPU),
		HourglassMs: constants.HourglassSeconds * 1000,
		Grid:        bench.DefaultConfig(),
		Topology:    true,
		DBPath:      constants.ResultsDBPath,
	}
}

// Hourglass returns the per-phase hourglass duration.
func (c Config) Hourglass() time.Duration {
	return time.Duration(c.HourglassMs) * time.Millisecond
}

// Load reads path over the defaults. Fields absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := sonnet.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate rejects settings the payload cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Cores < 1:
		return fmt.Errorf("%w: cores %d < 1", ErrInvalid, c.Cores)
	case c.Cores > constants.MaxCPU:
		return fmt.Errorf("%w: cores %d > MaxCPU %d", ErrInvalid, c.Cores, constants.MaxCPU)
	case c.HourglassMs < 0:
		return fmt.Errorf("%w: negative hourglass", ErrInvalid)
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
