// Package block holds the piece catalog: cell tags, the seven 4x4 shapes and the
// rotation transforms. Orientation is never stored, a Shape value is the
// orientation.
package block

import (
	"math/rand"
)

type Cell uint8

const (
	None Cell = iota
	Wall
	Ghost
	I
	O
	S
	Z
	J
	L
	T
)

var cellNames = [...]string{"none", "wall", "ghost", "I", "O", "S", "Z", "J", "L", "T"}

func (c Cell) String() string {
	if int(c) < len(cellNames) {
		return cellNames[c]
	}
	return "invalid"
}

// IsPiece reports whether the cell is one of the seven piece colors.
func (c Cell) IsPiece() bool {
	return c >= I && c <= T
}

// Kinds lists the seven pieces in catalog order.
var Kinds = [7]Cell{I, O, S, Z, J, L, T}

type Shape [4][4]Cell

var shapes = [7]Shape{
	{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{I, I, I, I},
		{0, 0, 0, 0},
	},
	{
		{0, 0, 0, 0},
		{0, O, O, 0},
		{0, O, O, 0},
		{0, 0, 0, 0},
	},
	{
		{0, 0, 0, 0},
		{0, S, S, 0},
		{S, S, 0, 0},
		{0, 0, 0, 0},
	},
	{
		{0, 0, 0, 0},
		{Z, Z, 0, 0},
		{0, Z, Z, 0},
		{0, 0, 0, 0},
	},
	{
		{0, 0, 0, 0},
		{J, 0, 0, 0},
		{J, J, J, 0},
		{0, 0, 0, 0},
	},
	{
		{0, 0, 0, 0},
		{0, 0, L, 0},
		{L, L, L, 0},
		{0, 0, 0, 0},
	},
	{
		{0, 0, 0, 0},
		{0, T, 0, 0},
		{T, T, T, 0},
		{0, 0, 0, 0},
	},
}

// ShapeOf returns the spawn orientation of kind. Non piece cells return the
// zero Shape.
func ShapeOf(kind Cell) Shape {
	if !kind.IsPiece() {
		return Shape{}
	}
	return shapes[kind-I]
}

// RandKind picks one of the seven kinds uniformly.
func RandKind(r *rand.Rand) Cell {
	return Kinds[r.Intn(len(Kinds))]
}

// Kind returns the color of the first set cell, or None for an empty mask.
func (s Shape) Kind() Cell {
	for y := range 4 {
		for x := range 4 {
			if s[y][x] != None {
				return s[y][x]
			}
		}
	}
	return None
}

func (s Shape) Count() int {
	n := 0
	for y := range 4 {
		for x := range 4 {
			if s[y][x] != None {
				n++
			}
		}
	}
	return n
}

func (s Shape) IsZero() bool {
	return s == Shape{}
}

// RotateRight turns the mask 90 degrees clockwise.
func RotateRight(s Shape) Shape {
	var r Shape
	for y := range 4 {
		for x := range 4 {
			r[y][x] = s[4-1-x][y]
		}
	}
	return r
}

// RotateLeft turns the mask 90 degrees counter-clockwise.
func RotateLeft(s Shape) Shape {
	var r Shape
	for y := range 4 {
		for x := range 4 {
			r[4-1-x][y] = s[y][x]
		}
	}
	return r
}
