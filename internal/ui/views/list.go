package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/halden/nextstep/internal/app"
	"github.com/halden/nextstep/internal/model"
	"github.com/halden/nextstep/internal/query"
	"github.com/halden/nextstep/internal/quickadd"
	"github.com/halden/nextstep/internal/ui/theme"
)

// ListMode represents the current input mode of the list view
type ListMode int

const (
	ListModeNormal ListMode = iota
	ListModeAdd
	ListModeSearch
	ListModeConfirmDelete
)

// Local message types for the list view
type snapshotMsg struct {
	snapshot query.Snapshot
	ok       bool
}

type refsLoadedMsg struct {
	projects []model.Project
	labels   []model.Label
	err      error
}

type mutationDoneMsg struct {
	err error
}

// ListView displays the filtered task list. It subscribes to the projection
// once and re-renders on every snapshot it publishes; mutations never reload
// the list themselves, the store change propagates back through the
// projection.
type ListView struct {
	app    *app.App
	width  int
	height int

	snapshots <-chan query.Snapshot
	cancelSub func()

	tasks    []model.Task
	filter   model.Filter
	loadErr  error
	projects []model.Project
	labels   []model.Label

	// Selector positions for cycling. -1 means none selected.
	projectIdx int
	labelIdx   int

	cursor       int
	scrollOffset int

	mode      ListMode
	input     textinput.Model
	deleteID  string
	statusMsg string
}

// NewListView creates a new list view over the application's projection.
func NewListView(application *app.App) ListView {
	ti := textinput.New()
	ti.Placeholder = "New task... (@label !high due:tomorrow)"
	ti.CharLimit = 256

	ch, cancel := application.Projection.Subscribe()

	return ListView{
		app:        application,
		snapshots:  ch,
		cancelSub:  cancel,
		projectIdx: -1,
		labelIdx:   -1,
		input:      ti,
	}
}

// Init starts the snapshot wait loop and loads projects/labels for cycling.
func (v ListView) Init() tea.Cmd {
	return tea.Batch(v.waitSnapshot(), v.loadRefs())
}

// Close detaches the view from the projection.
func (v ListView) Close() {
	if v.cancelSub != nil {
		v.cancelSub()
	}
}

// SetSize sets the view dimensions
func (v ListView) SetSize(width, height int) ListView {
	v.width = width
	v.height = height
	v.clampScroll()
	return v
}

// visibleRows is the number of task lines that fit in the current height.
func (v ListView) visibleRows() int {
	visible := v.height - 4
	if visible < 1 {
		visible = 1
	}
	return visible
}

// clampScroll pulls the scroll offset along so the cursor stays inside the
// visible window. Called after every cursor or geometry change; View renders
// from the persisted offset.
func (v *ListView) clampScroll() {
	if v.cursor < v.scrollOffset {
		v.scrollOffset = v.cursor
	}
	if visible := v.visibleRows(); v.cursor >= v.scrollOffset+visible {
		v.scrollOffset = v.cursor - visible + 1
	}
	if v.scrollOffset < 0 {
		v.scrollOffset = 0
	}
}

// IsInputMode reports whether the view is capturing text input.
func (v ListView) IsInputMode() bool {
	return v.mode == ListModeAdd || v.mode == ListModeSearch
}

// FilterDescription renders the active filter for the header.
func (v ListView) FilterDescription() string {
	switch v.filter.Kind {
	case model.FilterByProject:
		for _, p := range v.projects {
			if p.ID == v.filter.ProjectID {
				return "project: " + p.Name
			}
		}
		return "project"
	case model.FilterByLabel:
		return "label: @" + v.filter.Label
	case model.FilterSearch:
		return fmt.Sprintf("search: %q", v.filter.Query)
	default:
		return strings.ToLower(v.filter.Kind.String())
	}
}

// waitSnapshot blocks on the projection channel and forwards the next value.
// The update loop re-issues it after every receipt, so exactly one wait is
// outstanding at a time.
func (v ListView) waitSnapshot() tea.Cmd {
	ch := v.snapshots
	return func() tea.Msg {
		snap, ok := <-ch
		return snapshotMsg{snapshot: snap, ok: ok}
	}
}

// loadRefs loads projects and labels for the cycling selectors.
func (v ListView) loadRefs() tea.Cmd {
	database := v.app.DB
	return func() tea.Msg {
		ctx := context.Background()
		projects, err := database.Projects(ctx)
		if err != nil {
			return refsLoadedMsg{err: err}
		}
		labels, err := database.Labels(ctx)
		if err != nil {
			return refsLoadedMsg{err: err}
		}
		return refsLoadedMsg{projects: projects, labels: labels}
	}
}

// Update handles messages
func (v ListView) Update(msg tea.Msg) (ListView, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if !msg.ok {
			// Projection closed; stop waiting.
			return v, nil
		}
		v.tasks = msg.snapshot.Tasks
		v.filter = msg.snapshot.Filter
		v.loadErr = msg.snapshot.Err
		if v.cursor >= len(v.tasks) {
			v.cursor = len(v.tasks) - 1
		}
		if v.cursor < 0 {
			v.cursor = 0
		}
		v.clampScroll()
		return v, v.waitSnapshot()

	case refsLoadedMsg:
		if msg.err != nil {
			v.statusMsg = msg.err.Error()
			return v, nil
		}
		v.projects = msg.projects
		v.labels = msg.labels
		return v, nil

	case mutationDoneMsg:
		if msg.err != nil {
			v.statusMsg = msg.err.Error()
		}
		// Refresh selectors; a quick-add may have created labels.
		return v, v.loadRefs()

	case tea.KeyMsg:
		switch v.mode {
		case ListModeAdd:
			return v.updateAddMode(msg)
		case ListModeSearch:
			return v.updateSearchMode(msg)
		case ListModeConfirmDelete:
			return v.updateConfirmDelete(msg)
		default:
			return v.updateNormalMode(msg)
		}
	}

	return v, nil
}

func (v ListView) updateNormalMode(msg tea.KeyMsg) (ListView, tea.Cmd) {
	v.statusMsg = ""

	switch msg.String() {
	case "j", "down":
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
		}
		v.clampScroll()

	case "k", "up":
		if v.cursor > 0 {
			v.cursor--
		}
		v.clampScroll()

	case "g":
		v.cursor = 0
		v.clampScroll()

	case "G":
		if len(v.tasks) > 0 {
			v.cursor = len(v.tasks) - 1
		}
		v.clampScroll()

	case "a":
		v.mode = ListModeAdd
		v.input.Placeholder = "New task... (@label !high due:tomorrow)"
		v.input.SetValue("")
		v.input.Focus()
		return v, textinput.Blink

	case "d":
		if task, ok := v.current(); ok {
			v.deleteID = task.ID
			v.mode = ListModeConfirmDelete
		}

	case "tab":
		if task, ok := v.current(); ok {
			return v, v.toggleTask(task)
		}

	case "p":
		if task, ok := v.current(); ok {
			return v, v.cyclePriority(task)
		}

	case "s":
		if task, ok := v.current(); ok {
			return v, v.cycleDue(task)
		}

	// Filter keys. All of these go through the projection; the new task
	// list arrives as the next snapshot.
	case "A":
		v.app.Projection.SetFilterKind(model.FilterAll)

	case "t":
		v.app.Projection.SetFilterKind(model.FilterToday)

	case "w":
		v.app.Projection.SetFilterKind(model.FilterWeek)

	case "o":
		v.app.Projection.SetFilterKind(model.FilterOverdue)

	case "P":
		v.cycleProjectFilter()

	case "L":
		v.cycleLabelFilter()

	case "/":
		v.mode = ListModeSearch
		v.input.Placeholder = "Search..."
		v.input.SetValue(v.filter.Query)
		v.input.Focus()
		return v, textinput.Blink
	}

	return v, nil
}

func (v ListView) updateAddMode(msg tea.KeyMsg) (ListView, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(v.input.Value())
		v.mode = ListModeNormal
		v.input.Blur()
		if text == "" {
			return v, nil
		}
		return v, v.addTask(text)

	case "esc":
		v.mode = ListModeNormal
		v.input.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// updateSearchMode feeds every keystroke to the projection so results update
// as the user types. Blank input never forces the SEARCH state.
func (v ListView) updateSearchMode(msg tea.KeyMsg) (ListView, tea.Cmd) {
	switch msg.String() {
	case "enter":
		v.mode = ListModeNormal
		v.input.Blur()
		return v, nil

	case "esc":
		v.mode = ListModeNormal
		v.input.Blur()
		v.app.Projection.SetSearchText("")
		v.app.Projection.SetFilterKind(model.FilterAll)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	v.app.Projection.SetSearchText(v.input.Value())
	return v, cmd
}

func (v ListView) updateConfirmDelete(msg tea.KeyMsg) (ListView, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		id := v.deleteID
		v.deleteID = ""
		v.mode = ListModeNormal
		return v, v.deleteTask(id)

	case "n", "esc":
		v.deleteID = ""
		v.mode = ListModeNormal
	}
	return v, nil
}

func (v ListView) current() (model.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return model.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// cycleProjectFilter steps none -> first project -> ... -> none.
func (v *ListView) cycleProjectFilter() {
	if len(v.projects) == 0 {
		v.statusMsg = "no projects"
		return
	}

	v.projectIdx++
	if v.projectIdx >= len(v.projects) {
		v.projectIdx = -1
		v.app.Projection.SelectProject(nil)
		v.app.Projection.SetFilterKind(model.FilterAll)
		return
	}

	id := v.projects[v.projectIdx].ID
	v.app.Projection.SelectProject(&id)
}

func (v *ListView) cycleLabelFilter() {
	if len(v.labels) == 0 {
		v.statusMsg = "no labels"
		return
	}

	v.labelIdx++
	if v.labelIdx >= len(v.labels) {
		v.labelIdx = -1
		v.app.Projection.SelectLabel(nil)
		v.app.Projection.SetFilterKind(model.FilterAll)
		return
	}

	name := v.labels[v.labelIdx].Name
	v.app.Projection.SelectLabel(&name)
}

// Mutation commands. Each returns a mutationDoneMsg; the updated list arrives
// separately through the projection.

func (v ListView) addTask(text string) tea.Cmd {
	database := v.app.DB
	draft := quickadd.Parse(text, time.Now())

	// Tasks added while a project filter is active land in that project.
	if v.filter.Kind == model.FilterByProject && v.filter.ProjectID != "" {
		id := v.filter.ProjectID
		draft.ProjectID = &id
	}

	return func() tea.Msg {
		_, err := database.CreateTask(context.Background(), draft)
		return mutationDoneMsg{err: err}
	}
}

func (v ListView) toggleTask(task model.Task) tea.Cmd {
	database := v.app.DB
	return func() tea.Msg {
		_, err := database.SetCompletion(context.Background(), task.ID, !task.Completed)
		return mutationDoneMsg{err: err}
	}
}

func (v ListView) deleteTask(id string) tea.Cmd {
	database := v.app.DB
	return func() tea.Msg {
		_, err := database.DeleteTask(context.Background(), id)
		return mutationDoneMsg{err: err}
	}
}

func (v ListView) cyclePriority(task model.Task) tea.Cmd {
	database := v.app.DB
	next := model.PriorityNone
	switch task.Priority {
	case model.PriorityNone:
		next = model.PriorityLow
	case model.PriorityLow:
		next = model.PriorityMedium
	case model.PriorityMedium:
		next = model.PriorityHigh
	}
	return func() tea.Msg {
		_, err := database.SetPriority(context.Background(), task.ID, next)
		return mutationDoneMsg{err: err}
	}
}

// cycleDue steps the due date none -> today -> tomorrow -> none.
func (v ListView) cycleDue(task model.Task) tea.Cmd {
	database := v.app.DB
	now := time.Now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	var due *time.Time
	switch {
	case task.DueDate == nil:
		due = &endOfDay
	case task.DueDate.Before(endOfDay.Add(time.Second)):
		tomorrow := endOfDay.AddDate(0, 0, 1)
		due = &tomorrow
	default:
		due = nil
	}

	return func() tea.Msg {
		_, err := database.SetDueDate(context.Background(), task.ID, due)
		return mutationDoneMsg{err: err}
	}
}

// View renders the list view
func (v ListView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder

	// Filter bar
	filterBar := lipgloss.NewStyle().
		Foreground(t.Primary).
		Padding(0, 1).
		Render("filter: " + v.FilterDescription())
	b.WriteString(filterBar)
	b.WriteString("\n")

	if v.loadErr != nil {
		b.WriteString(styles.ErrorText.Render("error: " + v.loadErr.Error()))
		b.WriteString("\n")
	}

	// Input line in add/search modes
	if v.mode == ListModeAdd || v.mode == ListModeSearch {
		b.WriteString(styles.Panel.Render(v.input.View()))
		b.WriteString("\n")
	}

	if v.mode == ListModeConfirmDelete {
		b.WriteString(styles.ErrorText.Render("delete task? (y/n)"))
		b.WriteString("\n")
	}

	if len(v.tasks) == 0 {
		empty := lipgloss.NewStyle().Foreground(t.Subtle).Padding(1, 2)
		b.WriteString(empty.Render("No tasks. Press 'a' to add one."))
		return b.String()
	}

	// Visible window
	visible := v.visibleRows()
	scroll := v.scrollOffset

	now := time.Now()
	for i := scroll; i < len(v.tasks) && i < scroll+visible; i++ {
		b.WriteString(v.renderTask(v.tasks[i], i == v.cursor, now))
		b.WriteString("\n")
	}

	if v.statusMsg != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Info).Render(v.statusMsg))
		b.WriteString("\n")
	}

	return b.String()
}

func (v ListView) renderTask(task model.Task, selected bool, now time.Time) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	checkbox := "[ ]"
	if task.Completed {
		checkbox = "[x]"
	}

	prio := " "
	switch task.Priority {
	case model.PriorityLow:
		prio = lipgloss.NewStyle().Foreground(t.PriorityLow).Render("!")
	case model.PriorityMedium:
		prio = lipgloss.NewStyle().Foreground(t.PriorityMedium).Render("!!")
	case model.PriorityHigh:
		prio = lipgloss.NewStyle().Foreground(t.PriorityHigh).Render("!!!")
	}

	var parts []string
	parts = append(parts, checkbox, prio, task.Title)

	for _, label := range task.Labels {
		parts = append(parts, styles.Label.Render("@"+label))
	}

	if task.DueDate != nil {
		due := quickadd.FormatDue(*task.DueDate, now)
		if task.IsOverdue(now) {
			parts = append(parts, styles.TaskOverdue.Render("⚠ "+due))
		} else {
			parts = append(parts, styles.DueDate.Render(due))
		}
	}

	line := strings.Join(parts, " ")

	switch {
	case selected:
		return styles.TaskSelected.Width(v.width - 2).Render(line)
	case task.Completed:
		return styles.TaskDone.Render(line)
	default:
		return styles.TaskNormal.Render(line)
	}
}
