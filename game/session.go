package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ghthor/webblok/block"
)

// Snapshot is a read-only copy of a game for rendering.
type Snapshot struct {
	Field Field
	Pos   Position
	Ghost Position
	Block block.Shape

	Held     block.Shape
	HasHeld  bool
	HoldUsed bool
	Next     []block.Shape

	Score  int
	Lines  int
	Pieces int
	Level  int
	Over   bool
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Field: g.Field,
		Pos:   g.Pos,
		Ghost: g.Ghost(),
		Block: g.Block,

		Held:     g.Held,
		HasHeld:  g.HasHeld,
		HoldUsed: g.HoldUsed,
		Next:     g.Next(),

		Score:  g.Score,
		Lines:  g.Lines,
		Pieces: g.Pieces,
		Level:  Level(g.Lines),
		Over:   g.over,
	}
}

// Compose returns the field with the ghost and the active piece drawn in.
// After game over only the field is returned.
func (s Snapshot) Compose() Field {
	f := s.Field
	if s.Over {
		return f
	}
	for y := range 4 {
		for x := range 4 {
			if s.Block[y][x] == block.None {
				continue
			}
			gx, gy := s.Ghost.X+x, s.Ghost.Y+y
			if gy < FieldHeight && gx < FieldWidth && f[gy][gx] == block.None {
				f[gy][gx] = block.Ghost
			}
		}
	}
	Fix(&f, s.Pos, &s.Block)
	return f
}

// Planner picks the state to commit for the active piece. It must not retain
// or share the game it is given.
type Planner func(*Game) *Game

// ErrReset ends a gravity loop whose game was replaced by Reset.
var ErrReset = errors.New("game reset")

// Session guards a live game. Every method holds the lock for one logical
// step.
type Session struct {
	mu  sync.Mutex
	g   *Game
	gen uint64

	// epoch counts games, a gravity loop only steps the game it started on
	epoch uint64

	// Interval is the gravity delay for a given number of cleared lines.
	Interval func(lines int) time.Duration
}

func NewSession(rng *rand.Rand) *Session {
	return &Session{
		g:        New(rng),
		Interval: GravityInterval,
	}
}

// Reset throws the current game away and starts a new one.
func (s *Session) Reset(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g = New(rng)
	s.gen++
	s.epoch++
}

// Do runs fn with the lock held. It is the escape hatch for callers that need
// several mutators to form a single step.
func (s *Session) Do(fn func(g *Game) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := fn(s.g)
	if changed {
		s.gen++
	}
	return changed
}

func (s *Session) Move(dx, dy int) bool {
	return s.Do(func(g *Game) bool { return g.Move(dx, dy) })
}

func (s *Session) Rotate(dir Direction) bool {
	return s.Do(func(g *Game) bool { return g.Rotate(dir) })
}

func (s *Session) Hold() bool {
	return s.Do(func(g *Game) bool { return g.Hold() })
}

func (s *Session) HardDropAndLock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.g.over {
		return ErrGameOver
	}
	s.g.HardDrop()
	return s.lock()
}

func (s *Session) GravityStepOrLock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gravityStep()
}

// gravityStepIn steps the game only while it is still the one of epoch.
func (s *Session) gravityStepIn(epoch uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrReset
	}
	return s.gravityStep()
}

// gravityStep must be called with mu held.
func (s *Session) gravityStep() error {
	if s.g.over {
		return ErrGameOver
	}
	if s.g.Move(0, 1) {
		s.gen++
		return nil
	}
	return s.lock()
}

// lock must be called with mu held.
func (s *Session) lock() error {
	err := s.g.Lock()
	s.gen++
	if s.g.Cleared > 0 {
		log.Debug("lines cleared", "rows", s.g.Cleared, "lines", s.g.Lines, "score", s.g.Score)
	}
	if err != nil {
		log.Debug("game over", "score", s.g.Score, "lines", s.g.Lines, "pieces", s.g.Pieces)
	}
	return err
}

// AutoStep asks plan for the next placement on a private copy and commits it.
// The plan is dropped when the game moved on while it was being computed.
func (s *Session) AutoStep(plan Planner) error {
	s.mu.Lock()
	if s.g.over {
		s.mu.Unlock()
		return ErrGameOver
	}
	sandbox := s.g.Clone()
	gen := s.gen
	s.mu.Unlock()

	best := plan(sandbox)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		log.Debug("stale placement dropped", "gen", gen, "now", s.gen)
		return nil
	}
	s.g = best
	return s.lock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Snapshot()
}

func (s *Session) interval() (time.Duration, uint64) {
	s.mu.Lock()
	lines, epoch := s.g.Lines, s.epoch
	s.mu.Unlock()
	return s.Interval(lines), epoch
}

// RunGravity drops the piece one row per interval until ctx is canceled or
// the game ends. notify, if set, is called with a fresh snapshot after every
// step. Cancellation does not wait for the next tick. A Reset ends the loop
// with ErrReset before it can step the new game.
func (s *Session) RunGravity(ctx context.Context, notify func(Snapshot)) error {
	d, epoch := s.interval()
	t := time.NewTimer(d)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-t.C:
		}
		if err := context.Cause(ctx); err != nil {
			return err
		}

		err := s.gravityStepIn(epoch)
		if errors.Is(err, ErrReset) {
			return err
		}
		if notify != nil {
			notify(s.Snapshot())
		}
		if err != nil {
			return err
		}
		d, _ = s.interval()
		t.Reset(d)
	}
}
