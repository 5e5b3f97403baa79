package webblok

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ghthor/webblok/ai"
	"github.com/ghthor/webblok/game"
	"github.com/ghthor/webblok/scorelog"
	"golang.org/x/sync/errgroup"
)

const ModeHeadless = "headless"

type HeadlessOptions struct {
	Games int
	Seed  int64 // game i is seeded with Seed+i

	// MaxPieces ends a game that is still going after this many pieces,
	// 0 plays every game until it is over.
	MaxPieces int

	// Parallel bounds how many games run at once, 0 means unbounded.
	Parallel int

	Store scorelog.Store
}

// PlayHeadless lets the search play one game to its end, to maxPieces or
// until ctx is done, whichever comes first.
func PlayHeadless(ctx context.Context, rng *rand.Rand, maxPieces int) (game.Snapshot, error) {
	s := game.NewSession(rng)
	for {
		if err := context.Cause(ctx); err != nil {
			return s.Snapshot(), err
		}
		if err := s.AutoStep(ai.Eval); err != nil {
			if errors.Is(err, game.ErrGameOver) {
				return s.Snapshot(), nil
			}
			return s.Snapshot(), err
		}
		if maxPieces > 0 && s.Snapshot().Pieces >= maxPieces {
			return s.Snapshot(), nil
		}
	}
}

// RunHeadless plays opts.Games games and records each result in opts.Store.
// The results come back in game order.
func RunHeadless(ctx context.Context, opts HeadlessOptions) ([]scorelog.Result, error) {
	results := make([]scorelog.Result, opts.Games)

	grp, grpCtx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		grp.SetLimit(opts.Parallel)
	}

	for i := range opts.Games {
		grp.Go(func() error {
			started := time.Now()
			snap, err := PlayHeadless(grpCtx, rand.New(rand.NewSource(opts.Seed+int64(i))), opts.MaxPieces)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}

			res := scorelog.NewResult(time.Now(), ModeHeadless, "", started, snap)
			if opts.Store != nil {
				if res, err = opts.Store.SaveResult(res); err != nil {
					return fmt.Errorf("game %d: saving result: %w", i, err)
				}
			}
			results[i] = res

			log.Info("game finished", "game", i, "score", res.Score, "lines", res.Lines, "pieces", res.Pieces, "duration", res.Duration)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
