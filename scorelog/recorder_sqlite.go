package scorelog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SqliteRecorder struct {
	ctx context.Context
	db  *sql.DB
}

var _ Store = &SqliteRecorder{}

func NewSqlite(ctx context.Context, filename string) (*SqliteRecorder, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(1000)", filename))
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			ts DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			kind TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			msg JSON NOT NULL CHECK (json_valid(msg))
		);
		CREATE INDEX IF NOT EXISTS results_kind_score ON results(kind, score DESC, id);
	`)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("error initializing sqlite table: %w", err),
			db.Close(),
		)
	}

	return &SqliteRecorder{
		ctx: ctx,
		db:  db,
	}, nil
}

func (r *SqliteRecorder) Close() error {
	return r.db.Close()
}

func busy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// Save writes rec, retrying while another connection holds the database.
func (r *SqliteRecorder) Save(rec Record, score int) (Record, error) {
	b, err := Encode(rec)
	if err != nil {
		return nil, err
	}

	ts := rec.Ts()
	if ts.IsZero() {
		ts = time.Now()
	}

	exp := &backoff.ExponentialBackOff{
		InitialInterval:     10 * time.Millisecond,
		RandomizationFactor: 0.2,
		Multiplier:          1.5,
		MaxInterval:         250 * time.Millisecond,
	}
	id, err := backoff.Retry(r.ctx, func() (int64, error) {
		res, err := r.db.ExecContext(r.ctx, `INSERT INTO results(ts, kind, score, msg) VALUES (?, ?, ?, ?)`, ts, rec.Kind(), score, string(b))
		if err != nil {
			if busy(err) {
				return 0, err
			}
			return 0, backoff.Permanent(err)
		}
		return res.LastInsertId()
	},
		backoff.WithBackOff(exp),
		backoff.WithMaxElapsedTime(2*time.Second),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Warn("scorelog save", "error", err, "retrying", d)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error saving record: %w", err)
	}

	return rec.WithId(id), nil
}

func (r *SqliteRecorder) SaveResult(res Result) (Result, error) {
	rec, err := r.Save(res, res.Score)
	if err != nil {
		return res, err
	}
	return rec.(Result), nil
}

// RecentResults returns the n latest games, latest first.
func (r *SqliteRecorder) RecentResults(n int) ([]Result, error) {
	return r.results(`
SELECT id, msg
FROM results
WHERE kind = ?
ORDER BY ts DESC, id DESC
LIMIT ?
`, KindResult, n)
}

// TopResults returns the n best scores, best first. Earlier games win ties.
func (r *SqliteRecorder) TopResults(n int) ([]Result, error) {
	return r.results(`
SELECT id, msg
FROM results
WHERE kind = ?
ORDER BY score DESC, id ASC
LIMIT ?
`, KindResult, n)
}

func (r *SqliteRecorder) results(q string, args ...any) ([]Result, error) {
	recs, err := r.query(q, args...)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(recs))
	for _, rec := range recs {
		res, ok := rec.(Result)
		if !ok {
			return nil, fmt.Errorf("row of kind %s decoded as %T", rec.Kind(), rec)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *SqliteRecorder) query(q string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(r.ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("results query error: %w", err)
	}

	recs := make([]Record, 0)
	for rows.Next() {
		var (
			id     int64
			rawMsg string
		)
		err = rows.Scan(&id, &rawMsg)
		if err != nil {
			break
		}

		var rec Record
		rec, err = Decode([]byte(rawMsg))
		if err != nil {
			break
		}
		recs = append(recs, rec.WithId(id))
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("rows close error: %w", closeErr)
	}
	if err != nil {
		return nil, fmt.Errorf("rows scan error: %w", err)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows unexpected error: %w", rows.Err())
	}

	return recs, nil
}
