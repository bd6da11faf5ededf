package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the application
type KeyMap struct {
	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Task actions
	Add      key.Binding
	Delete   key.Binding
	Toggle   key.Binding
	Priority key.Binding
	Due      key.Binding

	// Filters
	FilterAll     key.Binding
	FilterToday   key.Binding
	FilterWeek    key.Binding
	FilterOverdue key.Binding
	CycleProject  key.Binding
	CycleLabel    key.Binding
	Search        key.Binding

	// Views
	ListView     key.Binding
	CalendarView key.Binding
	StatsView    key.Binding

	// General
	Help    key.Binding
	Quit    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),

		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle done"),
		),
		Priority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "priority"),
		),
		Due: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "schedule"),
		),

		FilterAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "all"),
		),
		FilterToday: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		FilterWeek: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "week"),
		),
		FilterOverdue: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "overdue"),
		),
		CycleProject: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "project"),
		),
		CycleLabel: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "label"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),

		ListView: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "list"),
		),
		CalendarView: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "calendar"),
		),
		StatsView: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "stats"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("escape"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Add, k.Delete, k.Toggle, k.Priority},
		{k.FilterAll, k.FilterToday, k.FilterWeek, k.FilterOverdue},
		{k.CycleProject, k.CycleLabel, k.Search},
		{k.ListView, k.CalendarView, k.StatsView, k.Help, k.Quit},
	}
}
