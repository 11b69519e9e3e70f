package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the review panel bindings.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Keep       key.Binding
	Undo       key.Binding
	Pending    key.Binding
	Revert     key.Binding
	Reapply    key.Binding
	Transcript key.Binding
	Copy       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() KeyMap {
	return KeyMap{
		Up:         key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "prev")),
		Down:       key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		Keep:       key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "keep")),
		Undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Pending:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pending")),
		Revert:     key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "revert")),
		Reapply:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "reapply")),
		Transcript: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "transcript")),
		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy diff")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Keep, k.Undo, k.Pending, k.Revert, k.Transcript, k.Copy, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Keep, k.Undo, k.Pending},
		{k.Revert, k.Reapply},
		{k.Transcript, k.Copy, k.Quit},
	}
}
