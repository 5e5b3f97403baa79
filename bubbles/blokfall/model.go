package blokfall

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/ghthor/webblok/ai"
	"github.com/ghthor/webblok/game"
	"github.com/ghthor/webblok/scorelog"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

type Mode string

const (
	ModePlay Mode = "play"
	ModeAuto Mode = "auto"
)

// AutoInterval is the delay between two placements in auto mode.
const AutoInterval = 100 * time.Millisecond

type Options struct {
	Mode   Mode
	Seed   int64 // 0 picks a seed from the clock
	Player string

	// Store receives the result of every finished game, optional.
	Store scorelog.Store

	// Interval overrides the gravity delay, mostly for tests.
	Interval func(lines int) time.Duration
}

type (
	// StepMsg carries the state after a gravity step.
	StepMsg struct {
		game.Snapshot
		gen int64
	}

	// GravityDoneMsg is sent once the gravity loop has stopped.
	GravityDoneMsg struct {
		Err error
		gen int64
	}

	AutoTickMsg struct {
		time.Time
		Tick int64
	}

	ResultsMsg struct {
		Saved  scorelog.Result
		Top    []scorelog.Result
		Recent []scorelog.Result
		Err    error
	}

	GameResetMsg struct{}
)

type Model struct {
	ctx  context.Context
	opts Options

	session *game.Session
	snap    game.Snapshot
	started time.Time
	over    bool

	// gravity runs in its own goroutine and reports through steps. gen tells
	// the messages of a stopped loop apart from the current one.
	gravity     context.Context
	stopGravity context.CancelFunc
	steps       chan tea.Msg
	gen         int64

	// tick invalidates pending auto ticks
	tick int64

	keys KeyMap
	help help.Model

	b       strings.Builder
	render  bool
	table   *table.Table
	overlay *overlay.Model
	tableView

	top    []scorelog.Result
	recent []scorelog.Result
	debug  bool
	err   error
}

var _ tea.Model = &Model{}

func New(ctx context.Context, opts Options) *Model {
	if opts.Mode == "" {
		opts.Mode = ModePlay
	}
	if opts.Interval == nil {
		opts.Interval = game.GravityInterval
	}

	keys := DefaultKeyMap()
	if opts.Mode == ModeAuto {
		keys = keys.autoKeys()
	}

	return &Model{
		ctx:  ctx,
		opts: opts,
		keys: keys,
		help: help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	m.table = table.New().Border(lipgloss.RoundedBorder())
	m.overlay = overlay.New(nil, nil, overlay.Center, overlay.Center, 0, 0)
	return m.Reset()
}

func (m *Model) newRand() *rand.Rand {
	seed := m.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Reset starts a fresh game and the loop that drives it.
func (m *Model) Reset() tea.Cmd {
	m.stop()

	if m.session == nil {
		m.session = game.NewSession(m.newRand())
		m.session.Interval = m.opts.Interval
	} else {
		m.session.Reset(m.newRand())
	}
	m.snap = m.session.Snapshot()
	m.started = time.Now()
	m.over = false
	m.err = nil
	m.render = true

	switch m.opts.Mode {
	case ModeAuto:
		return m.NewAutoTick()
	default:
		return m.startGravity()
	}
}

func (m *Model) startGravity() tea.Cmd {
	m.gen++
	gen := m.gen

	ctx, cancel := context.WithCancel(m.ctx)
	m.gravity, m.stopGravity = ctx, cancel
	steps := make(chan tea.Msg, 1)
	m.steps = steps

	go func() {
		err := m.session.RunGravity(ctx, func(s game.Snapshot) {
			select {
			case steps <- StepMsg{s, gen}:
			case <-ctx.Done():
			}
		})
		select {
		case steps <- GravityDoneMsg{err, gen}:
		case <-ctx.Done():
		}
	}()

	return m.waitForStep()
}

func (m *Model) waitForStep() tea.Cmd {
	if m.gravity == nil {
		return nil
	}
	steps, done := m.steps, m.gravity.Done()
	return func() tea.Msg {
		select {
		case msg := <-steps:
			return msg
		case <-done:
			return nil
		}
	}
}

// stop halts the gravity loop and invalidates pending steps and auto ticks.
func (m *Model) stop() {
	if m.stopGravity != nil {
		m.stopGravity()
		m.stopGravity = nil
	}
	m.gen++
	m.tick++
}

func (m *Model) NewAutoTick() tea.Cmd {
	m.tick++
	tick := m.tick
	return tea.Tick(AutoInterval, func(t time.Time) tea.Msg {
		return AutoTickMsg{t, tick}
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.UpdateBlokFall(msg)
}

func (m *Model) UpdateBlokFall(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.HandleKey(msg)

	case StepMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.snap = msg.Snapshot
		m.render = true
		return m, m.waitForStep()

	case GravityDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.settle(msg.Err)

	case AutoTickMsg:
		if msg.Tick != m.tick || m.over {
			// Tick was canceled
			return m, nil
		}
		err := m.session.AutoStep(ai.Eval)
		if err != nil {
			return m, m.settle(err)
		}
		m.refresh()
		return m, m.NewAutoTick()

	case ResultsMsg:
		if msg.Err != nil {
			log.Error("saving result", "error", msg.Err)
			m.err = msg.Err
		}
		m.top = msg.Top
		m.recent = msg.Recent
		m.render = true

	case GameResetMsg:
		return m, m.Reset()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.render = true
	}
	return m, nil
}

// HandleKey translates one key press into a session call.
func (m *Model) HandleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stop()
		return tea.Quit

	case key.Matches(msg, m.keys.Restart):
		return m.Reset()

	case key.Matches(msg, m.keys.Debug):
		m.debug = !m.debug
		m.render = true
		return nil
	}

	if m.over {
		return nil
	}

	var changed bool
	switch {
	case key.Matches(msg, m.keys.Left):
		changed = m.session.Move(-1, 0)
	case key.Matches(msg, m.keys.Right):
		changed = m.session.Move(1, 0)
	case key.Matches(msg, m.keys.SoftDrop):
		changed = m.session.Move(0, 1)
	case key.Matches(msg, m.keys.RotateCW):
		changed = m.session.Rotate(game.Right)
	case key.Matches(msg, m.keys.RotateCCW):
		changed = m.session.Rotate(game.Left)
	case key.Matches(msg, m.keys.Hold):
		changed = m.session.Hold()
	case key.Matches(msg, m.keys.HardDrop):
		if err := m.session.HardDropAndLock(); err != nil {
			return m.settle(err)
		}
		changed = true
	}
	if changed {
		m.refresh()
	}
	return nil
}

func (m *Model) refresh() {
	m.snap = m.session.Snapshot()
	m.render = true
}

// settle handles the end of the driving loop. Only a game over is expected
// here; anything else is shown to the player.
func (m *Model) settle(err error) tea.Cmd {
	m.refresh()
	if !errors.Is(err, game.ErrGameOver) {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, game.ErrReset) {
			m.err = err
		}
		return nil
	}
	if m.over {
		return nil
	}

	m.over = true
	m.stop()
	log.Info("game over", "mode", m.opts.Mode, "score", m.snap.Score, "lines", m.snap.Lines, "pieces", m.snap.Pieces)
	return m.saveResult(scorelog.NewResult(time.Now(), string(m.opts.Mode), m.opts.Player, m.started, m.snap))
}

func (m *Model) saveResult(res scorelog.Result) tea.Cmd {
	store := m.opts.Store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		saved, err := store.SaveResult(res)
		if err != nil {
			return ResultsMsg{Saved: res, Err: err}
		}
		top, terr := store.TopResults(5)
		recent, rerr := store.RecentResults(3)
		return ResultsMsg{Saved: saved, Top: top, Recent: recent, Err: errors.Join(terr, rerr)}
	}
}

// Snapshot is the state last shown to the player.
func (m *Model) Snapshot() game.Snapshot {
	return m.snap
}

func (m *Model) Over() bool {
	return m.over
}
