package terminal

import (
	"unicode"

	"github.com/rivo/uniseg"
)

// maxMarkBytes caps the combining sequence stored on one cell.
const maxMarkBytes = 32

type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrInverse
	AttrUnderline
)

// Cell is one grid position. A wide rune occupies its cell plus a
// continuation cell to its right with Width 0. Mark holds zero-width
// combining runes that followed Rune.
type Cell struct {
	Rune  rune
	Mark  string
	Width uint8
	Attr  Attr
}

func blankCell() Cell {
	return Cell{Rune: ' ', Width: 1}
}

func continuationCell(attr Attr) Cell {
	return Cell{Width: 0, Attr: attr}
}

func (c Cell) IsContinuation() bool {
	return c.Width == 0
}

func (c Cell) IsBlank() bool {
	return c.Width == 1 && c.Rune == ' ' && c.Mark == ""
}

// isCombining reports whether r attaches to the preceding rune.
func isCombining(r rune) bool {
	if r == 0x200d || (r >= 0xfe00 && r <= 0xfe0f) {
		return true
	}
	return unicode.In(r, unicode.Mn, unicode.Me)
}

func rowIsBlank(row []Cell) bool {
	for _, cell := range row {
		if !cell.IsBlank() {
			return false
		}
	}
	return true
}

func runeWidth(r rune) int {
	if r < 0x20 || r == 0x7f {
		return 0
	}
	if r < 0x7f {
		return 1
	}
	return uniseg.StringWidth(string(r))
}

func blankRow(cols int) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = blankCell()
	}
	return row
}

func newGrid(cols, rows int) [][]Cell {
	grid := make([][]Cell, rows)
	for i := range grid {
		grid[i] = blankRow(cols)
	}
	return grid
}
