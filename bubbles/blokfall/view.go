package blokfall

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/ghthor/webblok/ai"
	"github.com/ghthor/webblok/block"
	"github.com/ghthor/webblok/game"
)

const (
	DefaultBlock = "  "
	DebugBlock   = "╺╸"
	GhostBlock   = "[]"
	DefaultEmpty = "  "
)

var cellStyles = map[block.Cell]lipgloss.Style{
	block.Wall:  lipgloss.NewStyle().Background(lipgloss.Color("#7f7f7f")),
	block.Ghost: lipgloss.NewStyle().Foreground(lipgloss.Color("#7f7f7f")),
	block.I:     lipgloss.NewStyle().Background(lipgloss.Color("#0000ff")),
	block.O:     lipgloss.NewStyle().Background(lipgloss.Color("#00ff00")),
	block.S:     lipgloss.NewStyle().Background(lipgloss.Color("#00ffff")),
	block.Z:     lipgloss.NewStyle().Background(lipgloss.Color("#ff0000")),
	block.J:     lipgloss.NewStyle().Background(lipgloss.Color("#ff00ff")),
	block.L:     lipgloss.NewStyle().Background(lipgloss.Color("#ff7f00")),
	block.T:     lipgloss.NewStyle().Background(lipgloss.Color("#ffff00")),
}

var (
	Bold      = lipgloss.NewStyle().Bold(true)
	Faint     = lipgloss.NewStyle().Faint(true)
	StyleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	StyleOver = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(0, 1).
			Bold(true)
)

// text is a static tea.Model so plain strings can be layered by the overlay.
type text string

func (t text) Init() tea.Cmd                       { return nil }
func (t text) Update(tea.Msg) (tea.Model, tea.Cmd) { return t, nil }
func (t text) View() string                        { return string(t) }

type tableView struct {
	board string
	side  string
}

var _ table.Data = tableView{}

func (t tableView) At(row, col int) string {
	switch col {
	case 0:
		return t.board
	case 1:
		return t.side
	default:
		return ""
	}
}

func (t tableView) Rows() int    { return 1 }
func (t tableView) Columns() int { return 2 }

func (m *Model) View() string {
	if !m.render {
		return m.b.String()
	}

	m.b.Reset()
	m.PrintField(&m.b, m.snap.Compose())
	board := m.b.String()
	if m.over {
		m.overlay.Foreground = text(m.gameOverView())
		m.overlay.Background = text(board)
		board = m.overlay.View()
	}
	m.tableView.board = board

	m.b.Reset()
	m.PrintSide(&m.b)
	m.tableView.side = m.b.String()

	m.b.Reset()
	m.table.Data(m.tableView)
	m.b.WriteString(m.table.Render())
	m.b.WriteString("\n")
	m.b.WriteString(m.help.View(m.keys))
	if m.err != nil {
		m.b.WriteString("\n")
		m.b.WriteString(StyleErr.Render(m.err.Error()))
	}

	m.render = false
	return m.b.String()
}

func (m *Model) filled(c block.Cell) string {
	switch {
	case c == block.None:
		return DefaultEmpty
	case c == block.Ghost:
		return cellStyles[c].Render(GhostBlock)
	case m.debug && c.IsPiece():
		return cellStyles[c].Render(DebugBlock)
	default:
		return cellStyles[c].Render(DefaultBlock)
	}
}

// PrintField draws the well from wall to wall, floor included.
func (m *Model) PrintField(w io.Writer, f game.Field) {
	for y := 0; y <= game.FloorRow; y++ {
		for x := game.PlayLeft - 1; x <= game.PlayRight+1; x++ {
			fmt.Fprint(w, m.filled(f[y][x]))
		}
		if y < game.FloorRow {
			fmt.Fprintln(w)
		}
	}
}

// PrintShape draws the occupied rows of a 4x4 mask.
func (m *Model) PrintShape(w io.Writer, s block.Shape) {
	rows := make([]string, 0, 4)
	for y := range 4 {
		var (
			b     strings.Builder
			empty = true
		)
		for x := range 4 {
			b.WriteString(m.filled(s[y][x]))
			if s[y][x] != block.None {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, b.String())
		}
	}
	fmt.Fprintln(w, strings.Join(rows, "\n"))
}

func (m *Model) PrintSide(w io.Writer) {
	s := &m.snap

	fmt.Fprintln(w, Bold.Render("HOLD"))
	switch {
	case !s.HasHeld:
		fmt.Fprintln(w, Faint.Render("-"))
	case s.HoldUsed:
		fmt.Fprintln(w, Faint.Render(s.Held.Kind().String()))
	default:
		m.PrintShape(w, s.Held)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, Bold.Render("NEXT"))
	for _, next := range s.Next {
		m.PrintShape(w, next)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d\n", Bold.Render("SCORE"), s.Score)
	fmt.Fprintf(w, "%s %d\n", Bold.Render("LINES"), s.Lines)
	fmt.Fprintf(w, "%s %d\n", Bold.Render("LEVEL"), s.Level)
	fmt.Fprintf(w, "%s %s", Bold.Render("MODE "), m.opts.Mode)

	if m.debug {
		ft := ai.Extract(&s.Field)
		fmt.Fprintln(w)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "pos    %d,%d\n", s.Pos.X, s.Pos.Y)
		fmt.Fprintf(w, "pieces %d\n", s.Pieces)
		fmt.Fprintf(w, "height %d\n", ft.HeightMax)
		fmt.Fprintf(w, "bumpy  %d\n", ft.HeightDiff)
		fmt.Fprintf(w, "holes  %d", ft.DeadSpace)
	}
}

func (m *Model) gameOverView() string {
	var b strings.Builder
	fmt.Fprintln(&b, "GAME OVER")
	fmt.Fprintf(&b, "score %d\n", m.snap.Score)
	fmt.Fprintf(&b, "lines %d", m.snap.Lines)
	if len(m.top) > 0 {
		fmt.Fprintf(&b, "\n\n%s", Faint.Render("best"))
		for i, r := range m.top {
			fmt.Fprintf(&b, "\n%d. %d", i+1, r.Score)
		}
	}
	if len(m.recent) > 0 {
		fmt.Fprintf(&b, "\n\n%s", Faint.Render("last"))
		for _, r := range m.recent {
			fmt.Fprintf(&b, "\n%d %s", r.Score, r.At.Format(time.TimeOnly))
		}
	}
	fmt.Fprintf(&b, "\n\n%s", Faint.Render("r to restart"))
	return StyleOver.Render(b.String())
}
