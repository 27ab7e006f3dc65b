package report

import (
	"errors"
	"fmt"

	"github.com/fogleman/gg"

	"smpbench/bench"
	"smpbench/constants"
	"smpbench/utils"
)

// ErrEmptyGrid is returned when there is nothing to draw.
var ErrEmptyGrid = errors.New("report: empty grid")

const (
	marginLeft = 64
	marginTop  = 32
)

// Heatmap draws g as a colour-coded PNG at path: one square per cell, rows by
// stride, columns by range, cold (blue) for the fastest cell and hot (red)
// for the slowest.
func Heatmap(g *bench.Grid, path string) error {
	dc, err := HeatmapContext(g)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

// HeatmapContext renders g into a drawing context without saving it.
func HeatmapContext(g *bench.Grid) (*gg.Context, error) {
	if g == nil || len(g.Strides) == 0 || len(g.Ranges) == 0 {
		return nil, ErrEmptyGrid
	}
	const cell = constants.HeatmapCell
	w := marginLeft + cell*len(g.Ranges)
	h := marginTop + cell*len(g.Strides)

	lo, hi := bounds(g)

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for j, r := range g.Ranges {
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(utils.SizeLabel(r), float64(marginLeft+j*cell+cell/2), marginTop/2, 0.5, 0.5)
	}
	for i, s := range g.Strides {
		y := float64(marginTop + i*cell)
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(utils.Utoa(s), marginLeft/2, y+cell/2, 0.5, 0.5)
		for j := range g.Ranges {
			t := norm(g.At(i, j).NsPerAccess, lo, hi)
			dc.SetRGB(t, 0.2, 1-t)
			dc.DrawRectangle(float64(marginLeft+j*cell), y, cell-1, cell-1)
			dc.Fill()
		}
	}
	return dc, nil
}

func bounds(g *bench.Grid) (lo, hi float64) {
	lo, hi = g.At(0, 0).NsPerAccess, g.At(0, 0).NsPerAccess
	for _, row := range g.Cells {
		for _, c := range row {
			lo = min(lo, c.NsPerAccess)
			hi = max(hi, c.NsPerAccess)
		}
	}
	return lo, hi
}

func norm(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}
