package views

import (
	"fmt"
	"testing"

	"github.com/halden/nextstep/internal/model"
)

func makeTasks(n int) []model.Task {
	tasks := make([]model.Task, n)
	for i := range tasks {
		tasks[i] = model.Task{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("task %d", i)}
	}
	return tasks
}

func TestClampScrollFollowsCursor(t *testing.T) {
	v := ListView{tasks: makeTasks(20)}
	v = v.SetSize(80, 9) // 5 visible rows

	// Moving down past the window drags the offset along
	v.cursor = 10
	v.clampScroll()
	if want := 10 - v.visibleRows() + 1; v.scrollOffset != want {
		t.Errorf("scrollOffset = %d after moving to 10, want %d", v.scrollOffset, want)
	}

	// Moving back up above the window snaps the offset to the cursor
	v.cursor = 2
	v.clampScroll()
	if v.scrollOffset != 2 {
		t.Errorf("scrollOffset = %d after moving to 2, want 2", v.scrollOffset)
	}

	// Cursor inside the window leaves the offset alone
	v.cursor = 4
	v.clampScroll()
	if v.scrollOffset != 2 {
		t.Errorf("scrollOffset = %d, want 2 (cursor still visible)", v.scrollOffset)
	}
}

func TestClampScrollSurvivesResize(t *testing.T) {
	v := ListView{tasks: makeTasks(20), cursor: 15}
	v = v.SetSize(80, 9)

	first := v.scrollOffset
	if first == 0 {
		t.Fatalf("offset not persisted on resize: %d", first)
	}
	if v.cursor < first || v.cursor >= first+v.visibleRows() {
		t.Errorf("cursor %d outside window [%d, %d)", v.cursor, first, first+v.visibleRows())
	}

	// Growing the window keeps the cursor visible without recomputing in View
	v = v.SetSize(80, 30)
	if v.cursor < v.scrollOffset || v.cursor >= v.scrollOffset+v.visibleRows() {
		t.Errorf("cursor %d outside window after grow [%d, %d)",
			v.cursor, v.scrollOffset, v.scrollOffset+v.visibleRows())
	}
}

func TestClampScrollNeverNegative(t *testing.T) {
	v := ListView{tasks: makeTasks(3), cursor: 0, scrollOffset: -2}
	v.clampScroll()
	if v.scrollOffset != 0 {
		t.Errorf("scrollOffset = %d, want 0", v.scrollOffset)
	}
}
