package ui

import "github.com/charmbracelet/bubbles/key"

var keys = struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Tab      key.Binding
	Filter   key.Binding
	AISearch key.Binding
	AIClear  key.Binding
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Refresh  key.Binding
	Debug    key.Binding
	Escape   key.Binding
	Enter    key.Binding
	Confirm  key.Binding
	Deny     key.Binding
	NextFld  key.Binding
	PrevFld  key.Binding
	Save     key.Binding
}{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:       key.NewBinding(key.WithKeys("k", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down")),
	Top:      key.NewBinding(key.WithKeys("g", "home")),
	Bottom:   key.NewBinding(key.WithKeys("G", "end")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "local/ai")),
	Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	AISearch: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "ai search")),
	AIClear:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear ai")),
	New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Edit:     key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Debug:    key.NewBinding(key.WithKeys("D")),
	Escape:   key.NewBinding(key.WithKeys("esc")),
	Enter:    key.NewBinding(key.WithKeys("enter")),
	Confirm:  key.NewBinding(key.WithKeys("y", "Y")),
	Deny:     key.NewBinding(key.WithKeys("n", "N", "esc")),
	NextFld:  key.NewBinding(key.WithKeys("tab", "down")),
	PrevFld:  key.NewBinding(key.WithKeys("shift+tab", "up")),
	Save:     key.NewBinding(key.WithKeys("ctrl+s")),
}

// sortKeys maps 1-5 to table columns in display order.
var sortKeys = []key.Binding{
	key.NewBinding(key.WithKeys("1")),
	key.NewBinding(key.WithKeys("2")),
	key.NewBinding(key.WithKeys("3")),
	key.NewBinding(key.WithKeys("4")),
	key.NewBinding(key.WithKeys("5")),
}
