package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds the dashboard actions.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Best    key.Binding
	Refresh key.Binding
	Requote key.Binding
	Clear   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      bind("↑/k", "up", "up", "k"),
		Down:    bind("↓/j", "down", "down", "j"),
		Select:  bind("enter", "use route", "enter", " "),
		Best:    bind("b", "use best", "b"),
		Refresh: bind("r", "refresh", "r"),
		Requote: bind("s", "re-quote", "s"),
		Clear:   bind("e", "clear errors", "e"),
		Help:    bind("?", "help", "?"),
		Quit:    bind("q", "quit", "q", "ctrl+c"),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Best, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Best},
		{k.Refresh, k.Requote, k.Clear},
		{k.Help, k.Quit},
	}
}
