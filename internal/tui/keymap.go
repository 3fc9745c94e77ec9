package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Toggle  key.Binding
	Start   key.Binding
	Copy    key.Binding
	End     key.Binding
	Restart key.Binding
	Options key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "less")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "more")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	Start:   key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter", "start")),
	Copy:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy link")),
	End:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "end round")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "play again")),
	Options: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "options")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) optionsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Left, k.Right, k.Start, k.Copy, k.Quit}
}

func (k keyMap) gameHelp() []key.Binding {
	return []key.Binding{k.End}
}

func (k keyMap) summaryHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Restart, k.Options, k.Quit}
}
