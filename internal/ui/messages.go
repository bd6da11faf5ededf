package ui

// View represents the current active view
type View int

const (
	ViewList View = iota
	ViewCalendar
	ViewStats
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewCalendar:
		return "Calendar"
	case ViewStats:
		return "Stats"
	default:
		return "List"
	}
}

// SwitchViewMsg requests a view change
type SwitchViewMsg struct {
	View View
}

// ErrorMsg contains an error to display
type ErrorMsg struct {
	Err error
}

// StatusMsg contains a status message to display
type StatusMsg struct {
	Message string
}
