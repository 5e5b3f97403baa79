// Package ai picks placements for the active piece. Every hold, rotation and
// column shift is dropped and the resulting field scored.
package ai

import (
	"github.com/ghthor/webblok/block"
	"github.com/ghthor/webblok/game"
)

// Horizontal shifts tried from the piece's current column.
const (
	MinShift = -4
	MaxShift = 5
)

// Eval returns the game with the active piece moved to its best resting
// place, ready to be locked. g itself is never modified. If no candidate
// scores above zero g is returned unchanged.
func Eval(g *game.Game) *game.Game {
	best, bestScore := g, 0.0

	for _, hold := range [2]bool{true, false} {
		held := g.Clone()
		if hold && held.Hold() && game.Collides(&held.Field, held.Pos, &held.Block) {
			// the piece swapped in has no room at spawn
			continue
		}

		for rotations := range 4 {
			rotated := held.Clone()
			for range rotations {
				rotated.Rotate(game.Right)
			}

			for dx := MinShift; dx <= MaxShift; dx++ {
				c := rotated.Clone()
				c.MoveTo(game.Position{X: max(c.Pos.X+dx, 0), Y: c.Pos.Y})
				c.HardDrop()

				f := c.Field
				game.Fix(&f, c.Pos, &c.Block)
				if score := Evaluate(Extract(&f)); score > bestScore {
					best, bestScore = c, score
				}
			}
		}
	}

	return best
}

// Features are the board measurements the heuristic scores.
type Features struct {
	Lines      int // full rows
	HeightMax  int // tallest column
	HeightDiff int // sum of height differences between neighbouring columns
	DeadSpace  int // empty cells below an occupied cell
}

// Feature ranges used for min-max normalisation.
const (
	maxLines      = 4
	maxHeight     = game.PlayHeight
	maxHeightDiff = 200
	maxDeadSpace  = 200
)

// Weights applied after normalisation.
const (
	weightLines      = 100
	weightHeightMax  = 1
	weightHeightDiff = 10
	weightDeadSpace  = 100
)

func normalize(v, lo, hi float64) float64 {
	return (v - lo) / (hi - lo)
}

// Evaluate scores a field, higher is better.
func Evaluate(ft Features) float64 {
	lines := normalize(float64(ft.Lines), 0, maxLines)
	heightMax := 1 - normalize(float64(ft.HeightMax), 0, maxHeight)
	heightDiff := 1 - normalize(float64(ft.HeightDiff), 0, maxHeightDiff)
	deadSpace := 1 - normalize(float64(ft.DeadSpace), 0, maxDeadSpace)

	return lines*weightLines +
		heightMax*weightHeightMax +
		heightDiff*weightHeightDiff +
		deadSpace*weightDeadSpace
}

func Extract(f *game.Field) Features {
	heights := ColumnHeights(f)
	ft := Features{
		Lines:     game.FullLines(f),
		DeadSpace: DeadSpace(f),
	}
	for i, h := range heights {
		ft.HeightMax = max(ft.HeightMax, h)
		if i > 0 {
			ft.HeightDiff += abs(h - heights[i-1])
		}
	}
	return ft
}

// ColumnHeights measures each playable column from the bottom of the field,
// floor row included, to its topmost occupied cell. An empty column is 0, a
// block resting on the floor is 2.
func ColumnHeights(f *game.Field) (heights [game.PlayWidth]int) {
	for i := range heights {
		x := game.PlayLeft + i
		for y := range game.PlayHeight {
			if f[y][x] != block.None {
				heights[i] = game.FieldHeight - 1 - y
				break
			}
		}
	}
	return heights
}

// DeadSpace counts empty cells that have an occupied cell somewhere above
// them in the same column.
func DeadSpace(f *game.Field) int {
	n := 0
	for x := game.PlayLeft; x <= game.PlayRight; x++ {
		covered := false
		for y := range game.PlayHeight {
			switch {
			case f[y][x] != block.None:
				covered = true
			case covered:
				n++
			}
		}
	}
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
