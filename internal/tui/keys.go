package tui

import "github.com/charmbracelet/bubbles/key"

// browserKeys are the browser's action bindings. Navigation and filtering
// come from the list component.
type browserKeys struct {
	quit    key.Binding
	view    key.Binding
	get     key.Binding
	delete  key.Binding
	refresh key.Binding
	dismiss key.Binding
	yes     key.Binding
	no      key.Binding
}

func newBrowserKeys() browserKeys {
	return browserKeys{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		view: key.NewBinding(
			key.WithKeys("v", "enter"),
			key.WithHelp("v", "view"),
		),
		get: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "download"),
		),
		delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss error"),
		),
		yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		no: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "cancel"),
		),
	}
}

func (k browserKeys) shortHelp() []key.Binding {
	return []key.Binding{k.view, k.get, k.delete, k.refresh}
}
