package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/halden/nextstep/internal/app"
	"github.com/halden/nextstep/internal/query"
	"github.com/halden/nextstep/internal/ui/theme"
)

// Local message types for the stats view
type summaryMsg struct {
	summary query.Summary
	err     error
}

type statsChangedMsg struct {
	ok bool
}

// StatsView shows the whole-store task breakdown: totals, overdue count and
// completion rate. It recomputes on every store change, whatever filter the
// list view has active.
type StatsView struct {
	app    *app.App
	width  int
	height int

	summary query.Summary
	loadErr error

	changes   <-chan struct{}
	cancelSub func()
	following bool
}

// NewStatsView creates a new stats view over the application's store.
func NewStatsView(application *app.App) StatsView {
	ch, cancel := application.DB.Changes()
	return StatsView{app: application, changes: ch, cancelSub: cancel}
}

// Init loads the summary and, first time through, starts following store
// changes. Re-entering the view must not stack a second change waiter on the
// same channel.
func (v StatsView) Init() (StatsView, tea.Cmd) {
	cmds := []tea.Cmd{v.loadSummary()}
	if !v.following {
		v.following = true
		cmds = append(cmds, v.waitChange())
	}
	return v, tea.Batch(cmds...)
}

// Close detaches the view from the store change hub.
func (v StatsView) Close() {
	if v.cancelSub != nil {
		v.cancelSub()
	}
}

// SetSize sets the view dimensions
func (v StatsView) SetSize(width, height int) StatsView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode reports whether the view is capturing text input.
func (v StatsView) IsInputMode() bool {
	return false
}

func (v StatsView) loadSummary() tea.Cmd {
	aggregator := v.app.Aggregator
	return func() tea.Msg {
		summary, err := aggregator.Summary(context.Background(), time.Now())
		return summaryMsg{summary: summary, err: err}
	}
}

func (v StatsView) waitChange() tea.Cmd {
	ch := v.changes
	return func() tea.Msg {
		_, ok := <-ch
		return statsChangedMsg{ok: ok}
	}
}

// Update handles messages
func (v StatsView) Update(msg tea.Msg) (StatsView, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryMsg:
		v.summary = msg.summary
		v.loadErr = msg.err
		return v, nil

	case statsChangedMsg:
		if !msg.ok {
			return v, nil
		}
		return v, tea.Batch(v.loadSummary(), v.waitChange())
	}
	return v, nil
}

// View renders the stats cards
func (v StatsView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Padding(0, 1).
		Render("Statistics")
	b.WriteString(title)
	b.WriteString("\n\n")

	if v.loadErr != nil {
		b.WriteString(styles.ErrorText.Render("error: " + v.loadErr.Error()))
		b.WriteString("\n")
		return b.String()
	}

	card := func(label, value string, color lipgloss.Color) string {
		labelStyle := lipgloss.NewStyle().Foreground(t.Subtle)
		valueStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
		return styles.Panel.Render(
			labelStyle.Render(label) + "  " + valueStyle.Render(value))
	}

	s := v.summary
	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total", fmt.Sprintf("%d", s.Total), t.Foreground),
		" ",
		card("Completed", fmt.Sprintf("%d", s.Completed), t.Success),
		" ",
		card("Pending", fmt.Sprintf("%d", s.Pending), t.Info),
	)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Overdue", fmt.Sprintf("%d", s.Overdue), t.Error),
		" ",
		card("Completion", fmt.Sprintf("%.1f%%", s.CompletionRate*100), t.Warning),
	)

	b.WriteString(row1)
	b.WriteString("\n")
	b.WriteString(row2)
	b.WriteString("\n")

	return b.String()
}
