// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: matrix.go - Console rendering of the stride × range grid
//
// Layout:
//
//	str.|range    4k    8k   16k ...
//	  4        1.2   1.2   1.3 ...
//
// One header row of range labels, then one row per stride. Cells hold the
// average nanoseconds per access. Rows and columns keep the grid's order,
// which is ascending by construction.
// ─────────────────────────────────────────────────────────────────────────────

package report

import (
	"io"
	"strconv"

	"smpbench/bench"
	"smpbench/utils"
)

const cellWidth = 6

// MatrixLines renders g as text lines without trailing newlines.
func MatrixLines(g *bench.Grid) []string {
	lines := make([]string, 0, len(g.Strides)+1)

	header := "str.|range"
	for _, r := range g.Ranges {
		header += utils.PadLeft(utils.SizeLabel(r), cellWidth)
	}
	lines = append(lines, header)

	for i, stride := range g.Strides {
		row := utils.PadLeft(utils.Utoa(stride), 4) + "      "
		for j := range g.Ranges {
			row += utils.PadLeft(formatCell(g.At(i, j)), cellWidth)
		}
		lines = append(lines, row)
	}
	return lines
}

// WriteMatrix writes the rendered grid to w.
func WriteMatrix(w io.Writer, g *bench.Grid) error {
	for _, line := range MatrixLines(g) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func formatCell(c bench.Cell) string {
	return strconv.FormatFloat(c.NsPerAccess, 'f', 1, 64)
}
