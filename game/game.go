// Package game is the rule engine: the field, the active piece and its
// mutators, line clears and scoring. A Game is not safe for concurrent use,
// wrap it in a Session for that.
package game

import (
	"errors"
	"math/rand"

	"github.com/ghthor/webblok/block"
	"github.com/ghthor/webblok/unsafering"
)

const NextLength = 3

// ErrGameOver is returned once a freshly spawned piece collides.
var ErrGameOver = errors.New("game over")

type Direction int

const (
	Right Direction = iota // clockwise
	Left
)

type Game struct {
	Field Field
	Pos   Position
	Block block.Shape

	Held     block.Shape
	HasHeld  bool
	HoldUsed bool

	Score   int
	Lines   int
	Pieces  int
	Cleared int // rows removed by the most recent lock

	next *unsafering.Buffer[block.Shape]
	bag  *Bag
	over bool
}

// New starts a game on an empty field. The first active piece is a uniform
// random kind, the next queue is dealt from the bag.
func New(rng *rand.Rand) *Game {
	g := &Game{
		Field: NewField(),
		Pos:   SpawnPosition,
		Block: block.ShapeOf(block.RandKind(rng)),
		next:  unsafering.New[block.Shape](NextLength),
		bag:   NewBag(rng),
	}
	for g.next.Len() < NextLength {
		g.next.Push(block.ShapeOf(g.bag.Draw()))
	}
	return g
}

// Clone returns a deep copy suitable for speculative play.
func (g *Game) Clone() *Game {
	c := *g
	c.next = g.next.Clone()
	c.bag = g.bag.Clone()
	return &c
}

func (g *Game) Over() bool {
	return g.over
}

// Next returns the queued shapes, soonest first.
func (g *Game) Next() []block.Shape {
	next := make([]block.Shape, 0, NextLength)
	for s := range g.next.Iter() {
		next = append(next, s)
	}
	return next
}

// MoveTo commits pos if the active shape fits there.
func (g *Game) MoveTo(pos Position) bool {
	if g.over || pos == g.Pos || Collides(&g.Field, pos, &g.Block) {
		return false
	}
	g.Pos = pos
	return true
}

// Move shifts the piece by (dx, dy). A coordinate that would go negative
// keeps its current value.
func (g *Game) Move(dx, dy int) bool {
	return g.MoveTo(Position{
		X: offset(g.Pos.X, dx),
		Y: offset(g.Pos.Y, dy),
	})
}

func offset(v, d int) int {
	if v+d < 0 {
		return v
	}
	return v + d
}

// kicks are tried in order when a rotated shape does not fit in place.
var kicks = [...]Position{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	{0, -2}, {2, 0}, {0, 2}, {-2, 0},
}

// Rotate turns the piece 90 degrees. If the rotated shape collides the
// nearest kick offset that fits is used instead; with none the piece stays.
func (g *Game) Rotate(dir Direction) bool {
	if g.over {
		return false
	}

	var rotated block.Shape
	switch dir {
	case Left:
		rotated = block.RotateLeft(g.Block)
	default:
		rotated = block.RotateRight(g.Block)
	}

	if !Collides(&g.Field, g.Pos, &rotated) {
		g.Block = rotated
		return true
	}

	for _, k := range kicks {
		pos := Position{X: offset(g.Pos.X, k.X), Y: offset(g.Pos.Y, k.Y)}
		if !Collides(&g.Field, pos, &rotated) {
			g.Pos = pos
			g.Block = rotated
			return true
		}
	}
	return false
}

// HardDrop moves the piece straight down as far as it fits.
func (g *Game) HardDrop() {
	g.Pos = g.Ghost()
}

// Ghost is the position a hard drop would land on.
func (g *Game) Ghost() Position {
	pos := g.Pos
	for {
		below := Position{X: pos.X, Y: pos.Y + 1}
		if Collides(&g.Field, below, &g.Block) {
			return pos
		}
		pos = below
	}
}

// Hold stashes the active piece. Only one hold is allowed per locked piece.
func (g *Game) Hold() bool {
	if g.over || g.HoldUsed {
		return false
	}

	if g.HasHeld {
		g.Held, g.Block = g.Block, g.Held
		g.Pos = SpawnPosition
	} else {
		g.Held = g.Block
		g.HasHeld = true
		// a blocked spawn here is caught by the next lock
		_ = g.spawn()
	}
	g.HoldUsed = true
	return true
}

// Fix merges the active piece into the field without clearing rows or
// spawning.
func (g *Game) Fix() {
	Fix(&g.Field, g.Pos, &g.Block)
}

// Lock fixes the active piece, clears and scores full rows and spawns the
// next piece. ErrGameOver is returned when that piece has no room; the field
// keeps the locked piece and the game stays over.
func (g *Game) Lock() error {
	if g.over {
		return ErrGameOver
	}

	g.Fix()
	g.Cleared = EraseLine(&g.Field)
	g.Lines += g.Cleared
	g.Score += ScoreFor(g.Cleared)
	g.Pieces++
	g.HoldUsed = false

	if err := g.spawn(); err != nil {
		g.over = true
		return err
	}
	return nil
}

// Step drops the piece one row, locking it when it cannot move.
func (g *Game) Step() error {
	if g.over {
		return ErrGameOver
	}
	if g.Move(0, 1) {
		return nil
	}
	return g.Lock()
}

// spawn promotes the head of the next queue and deals one piece from the bag
// onto its tail.
func (g *Game) spawn() error {
	g.Pos = SpawnPosition
	g.Block, _ = g.next.Shift(block.ShapeOf(g.bag.Draw()))
	if Collides(&g.Field, g.Pos, &g.Block) {
		return ErrGameOver
	}
	return nil
}
