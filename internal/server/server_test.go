package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/halden/nextstep/internal/db"
	"github.com/halden/nextstep/internal/model"
	"github.com/halden/nextstep/internal/query"
)

func newTestServer(t *testing.T) (*Server, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return New(database, query.NewAggregator(database), db.DetachTasks), database
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestTaskLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPost, "/tasks", map[string]interface{}{
		"title":  "From the wire",
		"labels": []string{"sync"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created task: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created task has no ID")
	}

	rec = doJSON(t, router, http.MethodGet, "/tasks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var tasks []model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode task list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "From the wire" {
		t.Errorf("list = %+v", tasks)
	}

	created.Title = "Renamed remotely"
	rec = doJSON(t, router, http.MethodPut, "/tasks/"+created.ID, created)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodGet, "/tasks/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got model.Task
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Title != "Renamed remotely" {
		t.Errorf("title = %q after update", got.Title)
	}

	rec = doJSON(t, router, http.MethodDelete, "/tasks/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/tasks/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	// Validation failures map to 400
	rec := doJSON(t, router, http.MethodPost, "/tasks", map[string]string{"title": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want 400", rec.Code)
	}

	// Missing resources map to 404
	rec = doJSON(t, router, http.MethodGet, "/tasks/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing task status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/tasks/ghost", map[string]string{"title": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/projects/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing project status = %d, want 404", rec.Code)
	}
}

func TestListTaskFilters(t *testing.T) {
	s, database := newTestServer(t)
	router := s.Router()
	ctx := context.Background()

	project, err := database.CreateProject(ctx, "Remote", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	past := time.Now().Add(-24 * time.Hour)
	if _, err := database.CreateTask(ctx, model.Task{Title: "projected", ProjectID: &project.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := database.CreateTask(ctx, model.Task{Title: "labeled", Labels: []string{"ops"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := database.CreateTask(ctx, model.Task{Title: "late", DueDate: &past}); err != nil {
		t.Fatal(err)
	}

	check := func(path string, wantTitles ...string) {
		t.Helper()
		rec := doJSON(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rec.Code)
		}
		var tasks []model.Task
		json.Unmarshal(rec.Body.Bytes(), &tasks)
		if len(tasks) != len(wantTitles) {
			t.Fatalf("GET %s returned %d tasks, want %d", path, len(tasks), len(wantTitles))
		}
		for i, want := range wantTitles {
			if tasks[i].Title != want {
				t.Errorf("GET %s [%d] = %q, want %q", path, i, tasks[i].Title, want)
			}
		}
	}

	check("/tasks?project="+project.ID, "projected")
	check("/tasks?label=ops", "labeled")
	check("/tasks?search=label", "labeled")
	check("/tasks?overdue=true", "late")
}

func TestDayCounts(t *testing.T) {
	s, database := newTestServer(t)
	router := s.Router()
	ctx := context.Background()

	due := time.Date(2025, time.June, 20, 10, 0, 0, 0, time.Local)
	if _, err := database.CreateTask(ctx, model.Task{Title: "a", DueDate: &due}); err != nil {
		t.Fatal(err)
	}
	if _, err := database.CreateTask(ctx, model.Task{Title: "b", DueDate: &due}); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, router, http.MethodGet, "/stats/daycounts?year=2025&month=6", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var counts map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &counts); err != nil {
		t.Fatalf("decode counts: %v", err)
	}

	key := strconv.FormatInt(query.DayOf(due), 10)
	if counts[key] != 2 {
		t.Errorf("counts[%s] = %d, want 2 (full map: %v)", key, counts[key], counts)
	}

	rec = doJSON(t, router, http.MethodGet, "/stats/daycounts?year=2025&month=13", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("month 13 status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/stats/daycounts?year=%d", 2025), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing month status = %d, want 400", rec.Code)
	}
}

func TestNoteLifecycleOverWire(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPost, "/notes", map[string]interface{}{
		"title":   "Standup",
		"content": "what shipped yesterday",
		"tags":    []string{"work"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created model.Note
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created note: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created note has no ID")
	}

	rec = doJSON(t, router, http.MethodGet, "/notes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var notes []model.Note
	if err := json.Unmarshal(rec.Body.Bytes(), &notes); err != nil {
		t.Fatalf("decode note list: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "Standup" || !notes[0].HasTag("work") {
		t.Errorf("list = %+v", notes)
	}

	created.Content = "rewritten"
	rec = doJSON(t, router, http.MethodPut, "/notes/"+created.ID, created)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got model.Note
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Content != "rewritten" {
		t.Errorf("content = %q after update", got.Content)
	}

	rec = doJSON(t, router, http.MethodDelete, "/notes/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestNoteErrorMapping(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": " "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/notes/ghost", map[string]string{"title": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/notes/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d, want 404", rec.Code)
	}
}

func TestStatsSummary(t *testing.T) {
	s, database := newTestServer(t)
	router := s.Router()
	ctx := context.Background()

	past := time.Now().Add(-24 * time.Hour)
	if _, err := database.CreateTask(ctx, model.Task{Title: "open"}); err != nil {
		t.Fatal(err)
	}
	if _, err := database.CreateTask(ctx, model.Task{Title: "late", DueDate: &past}); err != nil {
		t.Fatal(err)
	}
	done, err := database.CreateTask(ctx, model.Task{Title: "done"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := database.SetCompletion(ctx, done.ID, true); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, router, http.MethodGet, "/stats/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var summary query.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Total != 3 || summary.Completed != 1 || summary.Pending != 2 || summary.Overdue != 1 {
		t.Errorf("summary = %+v, want 3 total, 1 completed, 2 pending, 1 overdue", summary)
	}
	if want := 1.0 / 3.0; summary.CompletionRate != want {
		t.Errorf("completion_rate = %v, want %v", summary.CompletionRate, want)
	}
}

func TestMetricsExposed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Router(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
}
