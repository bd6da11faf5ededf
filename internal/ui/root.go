package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/halden/nextstep/internal/app"
	"github.com/halden/nextstep/internal/ui/theme"
	"github.com/halden/nextstep/internal/ui/views"
)

// RootModel is the main application model that manages views
type RootModel struct {
	app    *app.App
	keys   KeyMap
	width  int
	height int

	currentView  View
	listView     views.ListView
	calendarView views.CalendarView
	statsView    views.StatsView
	helpVisible  bool

	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model
func NewRootModel(application *app.App) RootModel {
	return RootModel{
		app:          application,
		keys:         DefaultKeyMap(),
		currentView:  ViewList,
		listView:     views.NewListView(application),
		calendarView: views.NewCalendarView(application),
		statsView:    views.NewStatsView(application),
	}
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return m.listView.Init()
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Reserve space for header and footer
		contentHeight := m.height - 4
		m.listView = m.listView.SetSize(m.width, contentHeight)
		m.calendarView = m.calendarView.SetSize(m.width, contentHeight)
		m.statsView = m.statsView.SetSize(m.width, contentHeight)

	case tea.KeyMsg:
		m.statusMsg = ""
		m.errorMsg = ""

		isInputMode := false
		switch m.currentView {
		case ViewList:
			isInputMode = m.listView.IsInputMode()
		case ViewCalendar:
			isInputMode = m.calendarView.IsInputMode()
		case ViewStats:
			isInputMode = m.statsView.IsInputMode()
		}

		// ctrl+c always quits, 'q' only outside input mode
		if key.Matches(msg, m.keys.Quit) {
			if msg.String() == "ctrl+c" || !isInputMode {
				m.listView.Close()
				m.calendarView.Close()
				m.statsView.Close()
				return m, tea.Quit
			}
		}

		if !isInputMode {
			switch {
			case key.Matches(msg, m.keys.Help):
				m.helpVisible = !m.helpVisible
				return m, nil

			case key.Matches(msg, m.keys.ListView):
				m.currentView = ViewList
				return m, nil

			case key.Matches(msg, m.keys.CalendarView):
				if m.currentView != ViewCalendar {
					m.currentView = ViewCalendar
					var cmd tea.Cmd
					m.calendarView, cmd = m.calendarView.Init()
					return m, cmd
				}
				return m, nil

			case key.Matches(msg, m.keys.StatsView):
				if m.currentView != ViewStats {
					m.currentView = ViewStats
					var cmd tea.Cmd
					m.statsView, cmd = m.statsView.Init()
					return m, cmd
				}
				return m, nil
			}
		}

	case ErrorMsg:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case SwitchViewMsg:
		m.currentView = msg.View
		return m, nil
	}

	// Delegate to both views: the list keeps draining projection snapshots
	// even while the calendar is on screen, so switching back is instant.
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if _, isKey := msg.(tea.KeyMsg); !isKey || m.currentView == ViewList {
		m.listView, cmd = m.listView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if _, isKey := msg.(tea.KeyMsg); !isKey || m.currentView == ViewCalendar {
		m.calendarView, cmd = m.calendarView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if _, isKey := msg.(tea.KeyMsg); !isKey || m.currentView == ViewStats {
		m.statsView, cmd = m.statsView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	contentHeight := m.height - 4
	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		switch m.currentView {
		case ViewCalendar:
			content = m.calendarView.View()
		case ViewStats:
			content = m.statsView.View()
		default:
			content = m.listView.View()
		}
	}

	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("nextstep")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	viewIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.currentView.String()))

	filterIndicator := ""
	if m.currentView == ViewList {
		filterIndicator = viewStyle.Render(m.listView.FilterDescription())
	}

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator)
	rightSide := filterIndicator

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}

	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the footer/status bar
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	keyHint := func(k, desc string) string {
		return lipgloss.NewStyle().Foreground(t.Foreground).Bold(true).Render(k) +
			lipgloss.NewStyle().Foreground(t.Subtle).Render(" "+desc)
	}
	sep := lipgloss.NewStyle().Foreground(t.Border).Render(" │ ")

	var statusLine string
	if m.errorMsg != "" {
		statusLine = styles.ErrorText.Render(m.errorMsg)
	} else if m.statusMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg)
	}

	var line1, line2 string
	switch m.currentView {
	case ViewList:
		if m.listView.IsInputMode() {
			line1 = keyHint("enter", "confirm") + sep + keyHint("esc", "cancel")
		} else {
			line1 = keyHint("a", "add") + sep +
				keyHint("tab", "done") + sep +
				keyHint("d", "del") + sep +
				keyHint("p", "priority") + sep +
				keyHint("s", "schedule") + sep +
				keyHint("/", "search")
			line2 = keyHint("A", "all") + sep +
				keyHint("t", "today") + sep +
				keyHint("w", "week") + sep +
				keyHint("o", "overdue") + sep +
				keyHint("P/L", "project/label") + sep +
				keyHint("1/2/3", "views") + sep +
				keyHint("?", "help")
		}

	case ViewCalendar:
		line1 = keyHint("h/j/k/l", "days") + sep +
			keyHint("H/L", "months") + sep +
			keyHint("t", "today")
		line2 = keyHint("1/2/3", "views") + sep + keyHint("?", "help")

	case ViewStats:
		line1 = keyHint("1/2/3", "views") + sep + keyHint("?", "help")
	}

	var lines []string
	if statusLine != "" {
		lines = append(lines, statusLine)
	}
	if line1 != "" {
		lines = append(lines, line1)
	}
	if line2 != "" {
		lines = append(lines, line2)
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Info).MarginTop(1)
	keyStyle := lipgloss.NewStyle().Foreground(t.Foreground).Bold(true).Width(14)
	descStyle := lipgloss.NewStyle().Foreground(t.Subtle)

	section := func(b *strings.Builder, title string, rows [][]string) {
		b.WriteString(sectionStyle.Render(title))
		b.WriteString("\n")
		for _, kv := range rows {
			b.WriteString(keyStyle.Render(kv[0]))
			b.WriteString(descStyle.Render(kv[1]))
			b.WriteString("\n")
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("nextstep help"))
	b.WriteString("\n")

	section(&b, "Navigation", [][]string{
		{"↑/k ↓/j", "Move up/down"},
		{"g / G", "Top/bottom"},
	})
	section(&b, "Task actions", [][]string{
		{"a", "Add task (@label !high due:tomorrow)"},
		{"tab", "Toggle done"},
		{"d", "Delete task"},
		{"p", "Cycle priority"},
		{"s", "Cycle due date (today/tomorrow/none)"},
	})
	section(&b, "Filters", [][]string{
		{"A", "All tasks"},
		{"t", "Due today"},
		{"w", "Due this week"},
		{"o", "Overdue"},
		{"P", "Cycle project filter"},
		{"L", "Cycle label filter"},
		{"/", "Search as you type"},
	})
	section(&b, "Views", [][]string{
		{"1", "Task list"},
		{"2", "Calendar"},
		{"3", "Statistics"},
		{"?", "Toggle this help"},
		{"q / ctrl+c", "Quit"},
	})

	b.WriteString("\n")
	b.WriteString(descStyle.Render("Press ? to close"))
	return b.String()
}
