package blokfall

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ghthor/webblok/game"
	"github.com/ghthor/webblok/scorelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type memStore struct {
	mu      sync.Mutex
	results []scorelog.Result
}

func (s *memStore) SaveResult(r scorelog.Result) (scorelog.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := r.WithId(int64(len(s.results) + 1)).(scorelog.Result)
	s.results = append(s.results, saved)
	return saved, nil
}

func (s *memStore) TopResults(n int) ([]scorelog.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	top := slices.Clone(s.results)
	slices.SortStableFunc(top, func(a, b scorelog.Result) int { return cmp.Compare(b.Score, a.Score) })
	return top[:min(n, len(top))], nil
}

func (s *memStore) RecentResults(n int) ([]scorelog.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := slices.Clone(s.results)
	slices.Reverse(recent)
	return recent[:min(n, len(recent))], nil
}

func never(int) time.Duration { return time.Hour }

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestPlayKeys(t *testing.T) {
	m := New(t.Context(), Options{Seed: 1, Interval: never})
	require.NotNil(t, m.Init())
	require.Contains(t, m.View(), "SCORE")

	m.Update(keyPress("left"))
	require.Equal(t, game.SpawnPosition.X-1, m.Snapshot().Pos.X)

	m.Update(keyPress("right"))
	m.Update(keyPress("right"))
	require.Equal(t, game.SpawnPosition.X+1, m.Snapshot().Pos.X)

	m.Update(keyPress("down"))
	require.Equal(t, 1, m.Snapshot().Pos.Y)

	m.Update(keyPress(" "))
	require.True(t, m.Snapshot().HasHeld)
	require.Equal(t, game.SpawnPosition, m.Snapshot().Pos)

	m.Update(keyPress("up"))
	require.Equal(t, 1, m.Snapshot().Pieces)
	require.False(t, m.Snapshot().HoldUsed)

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
	require.Error(t, m.gravity.Err(), "quit stops gravity")
}

func TestGravitySteps(t *testing.T) {
	m := New(t.Context(), Options{
		Seed:     2,
		Interval: func(int) time.Duration { return time.Millisecond },
	})
	cmd := m.Init()

	for range 3 {
		msg := cmd()
		require.IsType(t, StepMsg{}, msg)
		_, cmd = m.Update(msg)
		require.NotNil(t, cmd)
	}
	require.Equal(t, 3, m.Snapshot().Pos.Y)

	_, cmd = m.Update(keyPress("q"))
	require.Equal(t, tea.QuitMsg{}, cmd())
	require.ErrorIs(t, m.gravity.Err(), context.Canceled)
}

func TestGameOverSavesResult(t *testing.T) {
	store := &memStore{}
	m := New(t.Context(), Options{Seed: 3, Interval: never, Store: store, Player: "tester"})
	m.Init()

	var cmd tea.Cmd
	for range 200 {
		if _, cmd = m.Update(keyPress("up")); m.Over() {
			break
		}
	}
	require.True(t, m.Over())
	require.True(t, m.Snapshot().Over)
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, ResultsMsg{}, msg)
	m.Update(msg)

	require.Len(t, store.results, 1)
	require.Len(t, msg.(ResultsMsg).Recent, 1)
	assert.Equal(t, "tester", store.results[0].Player)
	assert.Equal(t, string(ModePlay), store.results[0].Mode)
	assert.Equal(t, m.Snapshot().Pieces, store.results[0].Pieces)
	view := m.View()
	require.Contains(t, view, "GAME OVER")
	require.Contains(t, view, "best")
	require.Contains(t, view, "last")

	// input is ignored until restart
	pieces := m.Snapshot().Pieces
	m.Update(keyPress("up"))
	require.Equal(t, pieces, m.Snapshot().Pieces)

	m.Update(keyPress("r"))
	require.False(t, m.Over())
	require.Zero(t, m.Snapshot().Pieces)
	require.NotContains(t, m.View(), "GAME OVER")
	m.Update(keyPress("q"))
}

func TestAutoTicks(t *testing.T) {
	m := New(t.Context(), Options{Mode: ModeAuto, Seed: 4})
	require.NotNil(t, m.Init())

	_, cmd := m.Update(AutoTickMsg{time.Now(), m.tick})
	require.NotNil(t, cmd)
	require.Equal(t, 1, m.Snapshot().Pieces)

	_, cmd = m.Update(AutoTickMsg{time.Now(), m.tick - 1})
	require.Nil(t, cmd, "stale ticks are dropped")
	require.Equal(t, 1, m.Snapshot().Pieces)

	// movement keys are not bound in auto mode
	m.Update(keyPress("up"))
	require.Equal(t, 1, m.Snapshot().Pieces)
}

func TestProgram(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)

	m := New(ctx, Options{Mode: ModeAuto, Seed: 5})

	var b bytes.Buffer
	p := tea.NewProgram(m,
		tea.WithInput(nil),
		tea.WithOutput(&b),
		tea.WithContext(ctx),
	)

	grp, _ := errgroup.WithContext(ctx)
	grp.Go(func() error {
		_, err := p.Run()
		return err
	})

	p.Send(keyPress("?"))
	p.Send(keyPress("q"))
	require.NoError(t, grp.Wait())

	got := m.View()
	require.Contains(t, got, "NEXT")
	require.Contains(t, got, "holes")
}
