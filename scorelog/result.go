package scorelog

import (
	"time"

	"github.com/ghthor/webblok/game"
)

func init() {
	Register[Result]()
}

const KindResult = "result"

// Result is the final tally of one game.
type Result struct {
	At       time.Time
	Mode     string
	Player   string
	Score    int
	Lines    int
	Pieces   int
	Duration time.Duration

	recId int64
}

var _ Record = Result{}

func (Result) Kind() string {
	return KindResult
}

func (r Result) Ts() time.Time {
	return r.At
}

func (r Result) WithId(id int64) Record {
	r.recId = id
	return r
}

func (r Result) Id() int64 {
	return r.recId
}

// NewResult tallies a finished game from its last snapshot.
func NewResult(at time.Time, mode, player string, started time.Time, s game.Snapshot) Result {
	return Result{
		At:       at,
		Mode:     mode,
		Player:   player,
		Score:    s.Score,
		Lines:    s.Lines,
		Pieces:   s.Pieces,
		Duration: at.Sub(started),
	}
}

// Store is where finished games go.
type Store interface {
	SaveResult(Result) (Result, error)
	TopResults(n int) ([]Result, error)
	RecentResults(n int) ([]Result, error)
}
