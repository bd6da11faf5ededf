package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/halden/nextstep/internal/model"
	"github.com/halden/nextstep/internal/window"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateTask(t *testing.T, db *DB, draft model.Task) model.Task {
	t.Helper()
	task, err := db.CreateTask(context.Background(), draft)
	if err != nil {
		t.Fatalf("Failed to create task %q: %v", draft.Title, err)
	}
	return task
}

func TestCreateAndGetTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	due := time.Now().Add(48 * time.Hour)
	created := mustCreateTask(t, db, model.Task{
		Title:       "Write report",
		Description: "quarterly numbers",
		Priority:    model.PriorityHigh,
		Labels:      []string{"work", "urgent"},
		DueDate:     &due,
	})

	if created.ID == "" {
		t.Fatal("created task has no ID")
	}

	got, err := db.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got == nil {
		t.Fatal("GetTask returned nil for existing task")
	}
	if got.Title != "Write report" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Description != "quarterly numbers" {
		t.Errorf("description = %q", got.Description)
	}
	if got.Priority != model.PriorityHigh {
		t.Errorf("priority = %v", got.Priority)
	}
	if len(got.Labels) != 2 {
		t.Errorf("labels = %v, want 2 entries", got.Labels)
	}
	if got.DueDate == nil {
		t.Fatal("due date not persisted")
	}
	// Stored as epoch millis, so compare at ms precision
	if got.DueDate.UnixMilli() != due.UnixMilli() {
		t.Errorf("due date = %v, want %v", got.DueDate, due)
	}

	// Labels should have been created on demand
	label, err := db.GetLabelByName(ctx, "work")
	if err != nil {
		t.Fatalf("GetLabelByName: %v", err)
	}
	if label == nil {
		t.Error("label 'work' was not created with the task")
	}
}

func TestGetTaskMissing(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetTask(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown ID, got %+v", got)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTask(ctx, model.Task{Title: "   "})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank title: err = %v, want ErrValidation", err)
	}

	_, err = db.CreateTask(ctx, model.Task{Title: "ok", Priority: model.Priority(42)})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("bad priority: err = %v, want ErrValidation", err)
	}
}

func TestUpdateTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task := mustCreateTask(t, db, model.Task{Title: "Original", Labels: []string{"a"}})

	task.Title = "Renamed"
	task.Labels = []string{"b"}
	task.Completed = true
	if _, err := db.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, err := db.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Renamed" || !got.Completed {
		t.Errorf("update not applied: %+v", got)
	}
	if len(got.Labels) != 1 || got.Labels[0] != "b" {
		t.Errorf("labels = %v, want [b]", got.Labels)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.UpdateTask(context.Background(), model.Task{ID: "ghost", Title: "x"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task := mustCreateTask(t, db, model.Task{Title: "Doomed"})

	affected, err := db.DeleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}

	affected, err = db.DeleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("DeleteTask (again): %v", err)
	}
	if affected != 0 {
		t.Errorf("second delete affected = %d, want 0", affected)
	}
}

func TestTaskOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	soon := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(72 * time.Hour)

	mustCreateTask(t, db, model.Task{Title: "undated low", Priority: model.PriorityLow})
	mustCreateTask(t, db, model.Task{Title: "high later", Priority: model.PriorityHigh, DueDate: &later})
	mustCreateTask(t, db, model.Task{Title: "high soon", Priority: model.PriorityHigh, DueDate: &soon})
	mustCreateTask(t, db, model.Task{Title: "medium", Priority: model.PriorityMedium})

	tasks, err := db.Tasks(ctx)
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}

	want := []string{"high soon", "high later", "medium", "undated low"}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(want))
	}
	for i, title := range want {
		if tasks[i].Title != title {
			t.Errorf("position %d = %q, want %q", i, tasks[i].Title, title)
		}
	}
}

func TestOverdueTasks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	mustCreateTask(t, db, model.Task{Title: "late", DueDate: &past})
	mustCreateTask(t, db, model.Task{Title: "late but done", DueDate: &past, Completed: true})
	mustCreateTask(t, db, model.Task{Title: "upcoming", DueDate: &future})
	mustCreateTask(t, db, model.Task{Title: "undated"})

	overdue, err := db.OverdueTasks(ctx, now)
	if err != nil {
		t.Fatalf("OverdueTasks: %v", err)
	}
	if len(overdue) != 1 {
		t.Fatalf("got %d overdue tasks, want 1: %+v", len(overdue), overdue)
	}
	if overdue[0].Title != "late" {
		t.Errorf("overdue task = %q, want %q", overdue[0].Title, "late")
	}
}

func TestTasksInWindowBoundaries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.Local)
	w := window.Today(day)

	inside := day.Add(12 * time.Hour)
	atStart := day
	atEnd := w.End // exclusive
	before := day.Add(-time.Minute)

	mustCreateTask(t, db, model.Task{Title: "inside", DueDate: &inside})
	mustCreateTask(t, db, model.Task{Title: "at start", DueDate: &atStart})
	mustCreateTask(t, db, model.Task{Title: "at end", DueDate: &atEnd})
	mustCreateTask(t, db, model.Task{Title: "before", DueDate: &before})

	tasks, err := db.TasksInWindow(ctx, w)
	if err != nil {
		t.Fatalf("TasksInWindow: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2 (start inclusive, end exclusive): %+v", len(tasks), tasks)
	}
	for _, task := range tasks {
		if task.Title != "inside" && task.Title != "at start" {
			t.Errorf("unexpected task in window: %q", task.Title)
		}
	}
}

func TestTasksWithDueDate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	due := time.Now().Add(time.Hour)
	mustCreateTask(t, db, model.Task{Title: "scheduled", DueDate: &due})
	mustCreateTask(t, db, model.Task{Title: "unscheduled"})

	tasks, err := db.TasksWithDueDate(ctx)
	if err != nil {
		t.Fatalf("TasksWithDueDate: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "scheduled" {
		t.Errorf("got %+v, want only the scheduled task", tasks)
	}
}

func TestBulkProjectTaskOps(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	project, err := db.CreateProject(ctx, "Bulk", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	mustCreateTask(t, db, model.Task{Title: "one", ProjectID: &project.ID})
	mustCreateTask(t, db, model.Task{Title: "two", ProjectID: &project.ID})
	keeper := mustCreateTask(t, db, model.Task{Title: "elsewhere"})

	n, err := db.DetachTasksFromProject(ctx, project.ID)
	if err != nil || n != 2 {
		t.Fatalf("DetachTasksFromProject = (%d, %v), want (2, nil)", n, err)
	}
	if tasks, _ := db.TasksByProject(ctx, project.ID); len(tasks) != 0 {
		t.Errorf("project still has %d tasks after detach", len(tasks))
	}
	if all, _ := db.Tasks(ctx); len(all) != 3 {
		t.Errorf("detach changed the task count: %d", len(all))
	}

	// Reattach and bulk delete
	one, _ := db.SearchTasks(ctx, "one")
	one[0].ProjectID = &project.ID
	if _, err := db.UpdateTask(ctx, one[0]); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	n, err = db.DeleteTasksByProject(ctx, project.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteTasksByProject = (%d, %v), want (1, nil)", n, err)
	}
	got, _ := db.GetTask(ctx, keeper.ID)
	if got == nil {
		t.Error("bulk delete removed a task outside the project")
	}
}

func TestSearchTasks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	mustCreateTask(t, db, model.Task{Title: "Buy GROCERIES"})
	mustCreateTask(t, db, model.Task{Title: "Call dentist", Description: "about groceries reimbursement"})
	mustCreateTask(t, db, model.Task{Title: "Unrelated"})

	tasks, err := db.SearchTasks(ctx, "  groceries ")
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("got %d matches, want 2 (title and description, case-insensitive)", len(tasks))
	}
}

func TestTasksByLabel(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	mustCreateTask(t, db, model.Task{Title: "tagged", Labels: []string{"home"}})
	mustCreateTask(t, db, model.Task{Title: "both", Labels: []string{"home", "weekend"}})
	mustCreateTask(t, db, model.Task{Title: "other", Labels: []string{"work"}})

	tasks, err := db.TasksByLabel(ctx, "home")
	if err != nil {
		t.Fatalf("TasksByLabel: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("got %d tasks with label home, want 2", len(tasks))
	}
}

func TestTasksByProject(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	project, err := db.CreateProject(ctx, "Renovation", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	mustCreateTask(t, db, model.Task{Title: "in project", ProjectID: &project.ID})
	mustCreateTask(t, db, model.Task{Title: "loose"})

	tasks, err := db.TasksByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("TasksByProject: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "in project" {
		t.Errorf("unexpected project tasks: %+v", tasks)
	}
}

func TestSetters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task := mustCreateTask(t, db, model.Task{Title: "mutable"})

	if n, err := db.SetCompletion(ctx, task.ID, true); err != nil || n != 1 {
		t.Errorf("SetCompletion = (%d, %v), want (1, nil)", n, err)
	}

	due := time.Now().Add(time.Hour)
	if n, err := db.SetDueDate(ctx, task.ID, &due); err != nil || n != 1 {
		t.Errorf("SetDueDate = (%d, %v), want (1, nil)", n, err)
	}

	if n, err := db.SetPriority(ctx, task.ID, model.PriorityMedium); err != nil || n != 1 {
		t.Errorf("SetPriority = (%d, %v), want (1, nil)", n, err)
	}

	got, err := db.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !got.Completed || got.Priority != model.PriorityMedium || got.DueDate == nil {
		t.Errorf("setters not applied: %+v", got)
	}

	// Clearing the due date
	if n, err := db.SetDueDate(ctx, task.ID, nil); err != nil || n != 1 {
		t.Errorf("SetDueDate(nil) = (%d, %v), want (1, nil)", n, err)
	}
	got, _ = db.GetTask(ctx, task.ID)
	if got.DueDate != nil {
		t.Error("due date not cleared")
	}

	// Unknown IDs are a no-op, not an error
	if n, err := db.SetCompletion(ctx, "ghost", true); err != nil || n != 0 {
		t.Errorf("SetCompletion(ghost) = (%d, %v), want (0, nil)", n, err)
	}

	if _, err := db.SetPriority(ctx, task.ID, model.Priority(9)); !errors.Is(err, model.ErrValidation) {
		t.Errorf("SetPriority(invalid) err = %v, want ErrValidation", err)
	}
}

func TestRevisionAndChanges(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	before := db.Revision()
	changes, cancel := db.Changes()
	defer cancel()

	mustCreateTask(t, db, model.Task{Title: "bump"})

	if db.Revision() <= before {
		t.Error("revision did not advance after mutation")
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal after mutation")
	}

	// Coalescing: several mutations while nobody reads still leave at most
	// one pending signal, then the channel is quiet.
	mustCreateTask(t, db, model.Task{Title: "one"})
	mustCreateTask(t, db, model.Task{Title: "two"})

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no coalesced signal")
	}

	// Failed mutations never signal
	drainChanges(changes)
	if _, err := db.CreateTask(ctx, model.Task{Title: ""}); err == nil {
		t.Fatal("expected validation error")
	}
	select {
	case <-changes:
		t.Error("failed mutation broadcast a change")
	case <-time.After(100 * time.Millisecond):
	}
}

func drainChanges(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
