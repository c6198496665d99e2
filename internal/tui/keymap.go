package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Keymap defines the form keybindings.
type Keymap struct {
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
	Edit    key.Binding
	Clear   key.Binding
	Comment key.Binding
	Submit  key.Binding
	Refresh key.Binding
	Open    key.Binding
	CopyKey key.Binding
	Dismiss key.Binding
}

// DefaultKeymap returns the default keybindings.
func DefaultKeymap() Keymap {
	return Keymap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Edit:    key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		Clear:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
		Comment: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
		Submit:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "create")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Open:    key.NewBinding(key.WithKeys("o", "u"), key.WithHelp("o", "copy url")),
		CopyKey: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy key")),
		Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
	}
}

// helpLine renders the short help for the enabled bindings.
func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, "  "))
}
