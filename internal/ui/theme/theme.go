package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the UI
type Theme struct {
	Name string

	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color

	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	PriorityLow    lipgloss.Color
	PriorityMedium lipgloss.Color
	PriorityHigh   lipgloss.Color
}

// Nord is the default theme
var Nord = Theme{
	Name:           "nord",
	Foreground:     lipgloss.Color("#D8DEE9"),
	Subtle:         lipgloss.Color("#4C566A"),
	Highlight:      lipgloss.Color("#434C5E"),
	Border:         lipgloss.Color("#3B4252"),
	Primary:        lipgloss.Color("#88C0D0"),
	Success:        lipgloss.Color("#A3BE8C"),
	Warning:        lipgloss.Color("#EBCB8B"),
	Error:          lipgloss.Color("#BF616A"),
	Info:           lipgloss.Color("#81A1C1"),
	PriorityLow:    lipgloss.Color("#A3BE8C"),
	PriorityMedium: lipgloss.Color("#EBCB8B"),
	PriorityHigh:   lipgloss.Color("#BF616A"),
}

// Dracula is an alternative dark theme
var Dracula = Theme{
	Name:           "dracula",
	Foreground:     lipgloss.Color("#F8F8F2"),
	Subtle:         lipgloss.Color("#6272A4"),
	Highlight:      lipgloss.Color("#44475A"),
	Border:         lipgloss.Color("#44475A"),
	Primary:        lipgloss.Color("#BD93F9"),
	Success:        lipgloss.Color("#50FA7B"),
	Warning:        lipgloss.Color("#F1FA8C"),
	Error:          lipgloss.Color("#FF5555"),
	Info:           lipgloss.Color("#8BE9FD"),
	PriorityLow:    lipgloss.Color("#50FA7B"),
	PriorityMedium: lipgloss.Color("#F1FA8C"),
	PriorityHigh:   lipgloss.Color("#FF5555"),
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	Header       lipgloss.Style
	Footer       lipgloss.Style
	TaskNormal   lipgloss.Style
	TaskSelected lipgloss.Style
	TaskDone     lipgloss.Style
	TaskOverdue  lipgloss.Style
	DueDate      lipgloss.Style
	Label        lipgloss.Style
	Panel        lipgloss.Style
	ErrorText    lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Padding(0, 1),

		TaskNormal: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		TaskSelected: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Highlight).
			Padding(0, 1),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Strikethrough(true).
			Padding(0, 1),

		TaskOverdue: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),

		DueDate: lipgloss.NewStyle().
			Foreground(t.Warning),

		Label: lipgloss.NewStyle().
			Foreground(t.Info),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		ErrorText: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range []Theme{Nord, Dracula} {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}
