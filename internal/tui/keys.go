package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/interdiff-go/internal/app"
)

type keyMap struct {
	ForceQuit key.Binding
	Quit      key.Binding

	// List
	Up              key.Binding
	Down            key.Binding
	Open            key.Binding
	ToggleUnchanged key.Binding
	OlderBase       key.Binding
	NewerBase       key.Binding
	OlderComparison key.Binding
	NewerComparison key.Binding
	OlderBoth       key.Binding
	NewerBoth       key.Binding

	// Diff
	Back         key.Binding
	HalfPageDown key.Binding
	HalfPageUp   key.Binding
	PageDown     key.Binding
	PageUp       key.Binding
	Top          key.Binding
	Bottom       key.Binding
	Copy         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),

		Up:              key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑↓/jk", "navigate")),
		Down:            key.NewBinding(key.WithKeys("j", "down")),
		Open:            key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "view")),
		ToggleUnchanged: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "show unchanged")),
		OlderBase:       key.NewBinding(key.WithKeys("["), key.WithHelp("[]", "base")),
		NewerBase:       key.NewBinding(key.WithKeys("]")),
		OlderComparison: key.NewBinding(key.WithKeys("{"), key.WithHelp("{}", "comp")),
		NewerComparison: key.NewBinding(key.WithKeys("}")),
		OlderBoth:       key.NewBinding(key.WithKeys("<"), key.WithHelp("<>", "both")),
		NewerBoth:       key.NewBinding(key.WithKeys(">")),

		Back:         key.NewBinding(key.WithKeys("q", "backspace", "left"), key.WithHelp("q", "back")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		PageDown:     key.NewBinding(key.WithKeys("ctrl+f", "pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("ctrl+b", "pgup")),
		Top:          key.NewBinding(key.WithKeys("g")),
		Bottom:       key.NewBinding(key.WithKeys("G")),
		Copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy diff to clipboard")),
	}
}

// eventFor maps a key press on the given screen to a controller event. It
// returns nil for keys without a binding there.
func (k keyMap) eventFor(screen app.Screen, msg tea.KeyMsg) app.Event {
	if key.Matches(msg, k.ForceQuit) {
		return app.Quit{}
	}
	switch screen.(type) {
	case app.ListView:
		return k.listEvent(msg)
	case app.DiffView:
		return k.diffEvent(msg)
	}
	if key.Matches(msg, k.Quit) {
		return app.Quit{}
	}
	return nil
}

func (k keyMap) listEvent(msg tea.KeyMsg) app.Event {
	switch {
	case key.Matches(msg, k.Quit):
		return app.Quit{}
	case key.Matches(msg, k.Up):
		return app.Scroll{By: app.ScrollLine, Up: true}
	case key.Matches(msg, k.Down):
		return app.Scroll{By: app.ScrollLine}
	case key.Matches(msg, k.Open):
		return app.EnterDiff{}
	case key.Matches(msg, k.ToggleUnchanged):
		return app.ToggleUnchanged{}
	case key.Matches(msg, k.OlderBase):
		return app.ShiftPatchset{Base: -1}
	case key.Matches(msg, k.NewerBase):
		return app.ShiftPatchset{Base: 1}
	case key.Matches(msg, k.OlderComparison):
		return app.ShiftPatchset{Comparison: -1}
	case key.Matches(msg, k.NewerComparison):
		return app.ShiftPatchset{Comparison: 1}
	case key.Matches(msg, k.OlderBoth):
		return app.ShiftPatchset{Base: -1, Comparison: -1}
	case key.Matches(msg, k.NewerBoth):
		return app.ShiftPatchset{Base: 1, Comparison: 1}
	}
	return nil
}

func (k keyMap) diffEvent(msg tea.KeyMsg) app.Event {
	switch {
	case key.Matches(msg, k.Back):
		return app.BackToList{}
	case key.Matches(msg, k.Up):
		return app.Scroll{By: app.ScrollLine, Up: true}
	case key.Matches(msg, k.Down):
		return app.Scroll{By: app.ScrollLine}
	case key.Matches(msg, k.HalfPageDown):
		return app.Scroll{By: app.ScrollHalfPage}
	case key.Matches(msg, k.HalfPageUp):
		return app.Scroll{By: app.ScrollHalfPage, Up: true}
	case key.Matches(msg, k.PageDown):
		return app.Scroll{By: app.ScrollPage}
	case key.Matches(msg, k.PageUp):
		return app.Scroll{By: app.ScrollPage, Up: true}
	case key.Matches(msg, k.Top):
		return app.Scroll{By: app.ScrollTop}
	case key.Matches(msg, k.Bottom):
		return app.Scroll{By: app.ScrollBottom}
	case key.Matches(msg, k.Copy):
		return app.CopyToClipboard{}
	}
	return nil
}
