package query

import (
	"context"
	"testing"
	"time"

	"github.com/halden/nextstep/internal/model"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2025, time.June, 9, 12, 0, 0, 0, time.Local)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tasks := []model.Task{
		{Title: "done", Completed: true},
		{Title: "open"},
		{Title: "late", DueDate: &past},
		{Title: "finished late", Completed: true, DueDate: &past},
		{Title: "upcoming", DueDate: &future},
	}

	s := Summarize(tasks, now)
	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
	if s.Completed != 2 {
		t.Errorf("Completed = %d, want 2", s.Completed)
	}
	if s.Pending != 3 {
		t.Errorf("Pending = %d, want 3", s.Pending)
	}
	// A completed task is never overdue, whatever its due date.
	if s.Overdue != 1 {
		t.Errorf("Overdue = %d, want 1", s.Overdue)
	}
	if want := 2.0 / 5.0; s.CompletionRate != want {
		t.Errorf("CompletionRate = %v, want %v", s.CompletionRate, want)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Now())
	if s.Total != 0 || s.Completed != 0 || s.Pending != 0 || s.Overdue != 0 {
		t.Errorf("empty summary = %+v", s)
	}
	if s.CompletionRate != 0 {
		t.Errorf("CompletionRate over no tasks = %v, want 0", s.CompletionRate)
	}
}

func TestAggregatorSummary(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	past := now.Add(-time.Hour)

	createTask(t, store, model.Task{Title: "open"})
	createTask(t, store, model.Task{Title: "late", DueDate: &past})
	done := createTask(t, store, model.Task{Title: "to finish"})
	if _, err := store.SetCompletion(ctx, done.ID, true); err != nil {
		t.Fatalf("SetCompletion: %v", err)
	}

	a := NewAggregator(store)
	s, err := a.Summary(ctx, now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if s.Total != 3 || s.Completed != 1 || s.Pending != 2 || s.Overdue != 1 {
		t.Errorf("summary = %+v, want 3 total, 1 completed, 2 pending, 1 overdue", s)
	}
	if want := 1.0 / 3.0; s.CompletionRate != want {
		t.Errorf("CompletionRate = %v, want %v", s.CompletionRate, want)
	}
}
