package game

import (
	"github.com/ghthor/webblok/block"
)

const (
	PlayWidth  = 11
	PlayHeight = 20

	FieldWidth  = PlayWidth + 2 + 2  // play field + walls + sentinels
	FieldHeight = PlayHeight + 1 + 1 // play field + floor + sentinel

	// Playable cells occupy [PlayLeft, PlayRight] x [0, FloorRow).
	PlayLeft  = 2
	PlayRight = FieldWidth - 3
	FloorRow  = PlayHeight
)

type Field [FieldHeight][FieldWidth]block.Cell

type Position struct {
	X, Y int
}

// SpawnPosition is where every new piece enters the field.
var SpawnPosition = Position{X: 5, Y: 0}

// emptyRow is a playable row: sentinel, wall, 11 empty cells, wall, sentinel.
var emptyRow = func() (row [FieldWidth]block.Cell) {
	row[PlayLeft-1] = block.Wall
	row[PlayRight+1] = block.Wall
	return row
}()

// NewField returns an empty well with its walls and floor in place.
func NewField() Field {
	var f Field
	for y := range PlayHeight {
		f[y] = emptyRow
	}
	for x := PlayLeft - 1; x <= PlayRight+1; x++ {
		f[FloorRow][x] = block.Wall
	}
	return f
}

// Collides reports whether shape placed at pos overlaps a non empty cell.
// Shape cells that land outside the grid are ignored.
func Collides(f *Field, pos Position, shape *block.Shape) bool {
	for y := range 4 {
		for x := range 4 {
			if shape[y][x] == block.None {
				continue
			}
			fx, fy := pos.X+x, pos.Y+y
			if fy < 0 || fy >= FieldHeight || fx < 0 || fx >= FieldWidth {
				continue
			}
			if f[fy][fx] != block.None {
				return true
			}
		}
	}
	return false
}

// Fix writes the set cells of shape into the field at pos. Nothing outside
// the shape's own cells is touched.
func Fix(f *Field, pos Position, shape *block.Shape) {
	for y := range 4 {
		for x := range 4 {
			if shape[y][x] == block.None {
				continue
			}
			fx, fy := pos.X+x, pos.Y+y
			if fy < 0 || fy >= FieldHeight || fx < 0 || fx >= FieldWidth {
				continue
			}
			f[fy][fx] = shape[y][x]
		}
	}
}

func rowFull(row *[FieldWidth]block.Cell) bool {
	for x := PlayLeft; x <= PlayRight; x++ {
		if row[x] == block.None {
			return false
		}
	}
	return true
}

// FullLines counts the rows that EraseLine would remove.
func FullLines(f *Field) int {
	n := 0
	for y := range PlayHeight {
		if rowFull(&f[y]) {
			n++
		}
	}
	return n
}

// EraseLine removes every full row, scanning top to bottom and pulling the
// rows above each one down by one. It returns the number of rows removed.
func EraseLine(f *Field) int {
	cleared := 0
	for y := range PlayHeight {
		if !rowFull(&f[y]) {
			continue
		}
		for n := y; n > 0; n-- {
			f[n] = f[n-1]
		}
		f[0] = emptyRow
		cleared++
	}
	return cleared
}
