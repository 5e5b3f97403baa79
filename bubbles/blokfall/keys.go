package blokfall

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	SoftDrop  key.Binding
	HardDrop  key.Binding
	RotateCW  key.Binding
	RotateCCW key.Binding
	Hold      key.Binding
	Restart   key.Binding
	Debug     key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "right"),
		),
		SoftDrop: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		HardDrop: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "drop"),
		),
		RotateCW: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "↷"),
		),
		RotateCCW: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "↶"),
		),
		Hold: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "hold"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Debug: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "debug"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// autoKeys is the reduced map shown while the computer is playing.
func (k KeyMap) autoKeys() KeyMap {
	return KeyMap{
		Restart: k.Restart,
		Debug:   k.Debug,
		Quit:    k.Quit,
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	bindings := []key.Binding{
		k.Left, k.Right, k.SoftDrop, k.HardDrop,
		k.RotateCW, k.RotateCCW, k.Hold, k.Restart, k.Quit,
	}
	short := bindings[:0]
	for _, b := range bindings {
		if len(b.Keys()) > 0 {
			short = append(short, b)
		}
	}
	return short
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Debug}}
}
