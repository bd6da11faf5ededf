package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/halden/nextstep/internal/app"
	"github.com/halden/nextstep/internal/model"
	"github.com/halden/nextstep/internal/query"
	"github.com/halden/nextstep/internal/ui/theme"
	"github.com/halden/nextstep/internal/window"
)

// Local message types for calendar view
type countsMsg struct {
	counts query.Counts
	ok     bool
}

type dayTasksMsg struct {
	day   int
	tasks []model.Task
	err   error
}

// CalendarView shows a month grid with per-day due-task counts, plus the
// selected day's tasks. The counts come from an aggregator watch that follows
// store changes; the day panel reloads when the selection moves.
type CalendarView struct {
	app    *app.App
	width  int
	height int

	year  int
	month time.Month

	selectedDay int
	firstDay    time.Weekday

	counts    map[int64]int
	watchCh   <-chan query.Counts
	stopWatch func()

	dayTasks []model.Task
	loadErr  error
}

// NewCalendarView creates a new calendar view for the current month.
func NewCalendarView(application *app.App) CalendarView {
	now := time.Now()
	return CalendarView{
		app:         application,
		year:        now.Year(),
		month:       now.Month(),
		selectedDay: now.Day(),
		firstDay:    application.Config.FirstDay(),
		counts:      make(map[int64]int),
	}
}

// Init starts the month watch and loads the selected day.
func (v CalendarView) Init() (CalendarView, tea.Cmd) {
	v = v.restartWatch()
	return v, tea.Batch(v.waitCounts(), v.loadDayTasks())
}

// Close stops the aggregator watch.
func (v CalendarView) Close() {
	if v.stopWatch != nil {
		v.stopWatch()
	}
}

// SetSize sets the view dimensions
func (v CalendarView) SetSize(width, height int) CalendarView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode reports whether the view is capturing text input.
func (v CalendarView) IsInputMode() bool {
	return false
}

// restartWatch cancels the current watch, if any, and starts one for the
// displayed month.
func (v CalendarView) restartWatch() CalendarView {
	if v.stopWatch != nil {
		v.stopWatch()
	}

	win, err := window.Month(v.year, v.month, time.Local)
	if err != nil {
		v.loadErr = err
		return v
	}

	v.watchCh, v.stopWatch = v.app.Aggregator.Watch(win)
	return v
}

func (v CalendarView) waitCounts() tea.Cmd {
	ch := v.watchCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		counts, ok := <-ch
		return countsMsg{counts: counts, ok: ok}
	}
}

func (v CalendarView) loadDayTasks() tea.Cmd {
	database := v.app.DB
	day := v.selectedDay
	start := time.Date(v.year, v.month, day, 0, 0, 0, 0, time.Local)

	return func() tea.Msg {
		win, err := window.DayRange(start, start)
		if err != nil {
			return dayTasksMsg{day: day, err: err}
		}
		tasks, err := database.TasksInWindow(context.Background(), win)
		return dayTasksMsg{day: day, tasks: tasks, err: err}
	}
}

// Update handles messages
func (v CalendarView) Update(msg tea.Msg) (CalendarView, tea.Cmd) {
	switch msg := msg.(type) {
	case countsMsg:
		if !msg.ok {
			// Watch canceled; a month change already started a new one.
			return v, nil
		}
		v.counts = msg.counts.ByDay
		v.loadErr = msg.counts.Err
		// Counts changed means the store changed; the day panel may be stale.
		return v, tea.Batch(v.waitCounts(), v.loadDayTasks())

	case dayTasksMsg:
		if msg.day != v.selectedDay {
			return v, nil // selection moved on; drop the stale load
		}
		v.dayTasks = msg.tasks
		if msg.err != nil {
			v.loadErr = msg.err
		}
		return v, nil

	case tea.KeyMsg:
		daysInMonth := v.daysInMonth()

		switch msg.String() {
		case "h", "left":
			if v.selectedDay > 1 {
				v.selectedDay--
				return v, v.loadDayTasks()
			}

		case "l", "right":
			if v.selectedDay < daysInMonth {
				v.selectedDay++
				return v, v.loadDayTasks()
			}

		case "k", "up":
			if v.selectedDay > 7 {
				v.selectedDay -= 7
				return v, v.loadDayTasks()
			}

		case "j", "down":
			if v.selectedDay+7 <= daysInMonth {
				v.selectedDay += 7
				return v, v.loadDayTasks()
			}

		case "H", "pgup":
			v.month--
			if v.month < 1 {
				v.month = 12
				v.year--
			}
			v.clampSelectedDay()
			v = v.restartWatch()
			return v, tea.Batch(v.waitCounts(), v.loadDayTasks())

		case "L", "pgdown":
			v.month++
			if v.month > 12 {
				v.month = 1
				v.year++
			}
			v.clampSelectedDay()
			v = v.restartWatch()
			return v, tea.Batch(v.waitCounts(), v.loadDayTasks())

		case "t":
			now := time.Now()
			v.year = now.Year()
			v.month = now.Month()
			v.selectedDay = now.Day()
			v = v.restartWatch()
			return v, tea.Batch(v.waitCounts(), v.loadDayTasks())

		case "g":
			v.selectedDay = 1
			return v, v.loadDayTasks()

		case "G":
			v.selectedDay = daysInMonth
			return v, v.loadDayTasks()
		}
	}

	return v, nil
}

// daysInMonth returns the number of days in the current month
func (v CalendarView) daysInMonth() int {
	return time.Date(v.year, v.month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// clampSelectedDay ensures selected day is valid for current month
func (v *CalendarView) clampSelectedDay() {
	if max := v.daysInMonth(); v.selectedDay > max {
		v.selectedDay = max
	}
	if v.selectedDay < 1 {
		v.selectedDay = 1
	}
}

// weekdayLabels returns the seven column headers starting from first.
func weekdayLabels(first time.Weekday) []string {
	names := []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}
	labels := make([]string, 7)
	for i := range labels {
		labels[i] = names[(int(first)+i)%7]
	}
	return labels
}

// gridOffset returns the column of the month's first day in a week that
// starts on firstDay.
func gridOffset(first time.Time, firstDay time.Weekday) int {
	return (int(first.Weekday()) - int(firstDay) + 7) % 7
}

// countFor looks up the due-task count for a day of the displayed month.
func (v CalendarView) countFor(day int) int {
	key := time.Date(v.year, v.month, day, 0, 0, 0, 0, time.Local).UnixMilli()
	return v.counts[key]
}

// View renders the calendar
func (v CalendarView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder

	// Month header
	header := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Padding(0, 1).
		Render(fmt.Sprintf("%s %d", v.month, v.year))
	b.WriteString(header)
	b.WriteString("\n\n")

	if v.loadErr != nil {
		b.WriteString(styles.ErrorText.Render("error: " + v.loadErr.Error()))
		b.WriteString("\n")
	}

	// Weekday header row, starting on the configured week start
	subtle := lipgloss.NewStyle().Foreground(t.Subtle)
	for _, wd := range weekdayLabels(v.firstDay) {
		b.WriteString(subtle.Render(fmt.Sprintf(" %-6s", wd)))
	}
	b.WriteString("\n")

	now := time.Now()
	isCurrentMonth := now.Year() == v.year && now.Month() == v.month

	first := time.Date(v.year, v.month, 1, 0, 0, 0, 0, time.Local)
	offset := gridOffset(first, v.firstDay)

	daysInMonth := v.daysInMonth()
	col := 0
	for i := 0; i < offset; i++ {
		b.WriteString(strings.Repeat(" ", 7))
		col++
	}

	for day := 1; day <= daysInMonth; day++ {
		cell := fmt.Sprintf("%2d", day)
		if n := v.countFor(day); n > 0 {
			cell += fmt.Sprintf("·%d", n)
		}
		cell = fmt.Sprintf(" %-6s", cell)

		style := lipgloss.NewStyle().Foreground(t.Foreground)
		switch {
		case day == v.selectedDay:
			style = style.Background(t.Highlight).Bold(true)
		case isCurrentMonth && day == now.Day():
			style = style.Foreground(t.Primary).Bold(true)
		case v.countFor(day) > 0:
			style = style.Foreground(t.Warning)
		}
		b.WriteString(style.Render(cell))

		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	// Selected day panel
	b.WriteString("\n")
	dayTitle := lipgloss.NewStyle().Foreground(t.Info).Bold(true).
		Render(fmt.Sprintf("Due %s %d:", v.month, v.selectedDay))
	b.WriteString(dayTitle)
	b.WriteString("\n")

	if len(v.dayTasks) == 0 {
		b.WriteString(subtle.Render("  nothing due"))
		b.WriteString("\n")
	}

	for _, task := range v.dayTasks {
		checkbox := "[ ]"
		style := styles.TaskNormal
		if task.Completed {
			checkbox = "[x]"
			style = styles.TaskDone
		}
		b.WriteString(style.Render(fmt.Sprintf("%s %s", checkbox, task.Title)))
		b.WriteString("\n")
	}

	return b.String()
}
