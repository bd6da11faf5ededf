package db

import (
	"context"
	"errors"
	"testing"

	"github.com/halden/nextstep/internal/model"
)

func TestNoteLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.CreateNote(ctx, model.Note{
		Title:   "meeting notes",
		Content: "remember the agenda",
		Tags:    []string{"work", "meetings"},
	})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Errorf("identity not assigned: %+v", created)
	}

	got, err := db.GetNote(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got == nil {
		t.Fatal("note not found after create")
	}
	if got.Title != "meeting notes" || got.Content != "remember the agenda" {
		t.Errorf("round trip = %+v", got)
	}
	if len(got.Tags) != 2 || !got.HasTag("work") || !got.HasTag("meetings") {
		t.Errorf("tags = %v", got.Tags)
	}

	got.Title = "updated title"
	got.Tags = nil
	updated, err := db.UpdateNote(ctx, *got)
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("updated_at not bumped: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}

	reread, err := db.GetNote(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetNote after update: %v", err)
	}
	if reread.Title != "updated title" || len(reread.Tags) != 0 {
		t.Errorf("update not persisted: %+v", reread)
	}

	affected, err := db.DeleteNote(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}

	gone, err := db.GetNote(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetNote after delete: %v", err)
	}
	if gone != nil {
		t.Errorf("note still present after delete: %+v", gone)
	}
}

func TestNotesOrderedNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := db.CreateNote(ctx, model.Note{Title: title}); err != nil {
			t.Fatalf("CreateNote %q: %v", title, err)
		}
	}

	notes, err := db.Notes(ctx)
	if err != nil {
		t.Fatalf("Notes: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("got %d notes, want 3", len(notes))
	}
	for i := 1; i < len(notes); i++ {
		if notes[i].CreatedAt.After(notes[i-1].CreatedAt) {
			t.Errorf("notes not newest first: %v before %v",
				notes[i-1].CreatedAt, notes[i].CreatedAt)
		}
	}
}

func TestNoteValidation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateNote(ctx, model.Note{Title: "  "}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank title err = %v, want ErrValidation", err)
	}

	note, err := db.CreateNote(ctx, model.Note{Title: "ok"})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	note.Title = ""
	if _, err := db.UpdateNote(ctx, note); !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank title on update err = %v, want ErrValidation", err)
	}
}

func TestNoteUpdateMissing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.UpdateNote(ctx, model.Note{ID: "nope", Title: "x"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	affected, err := db.DeleteNote(ctx, "nope")
	if err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if affected != 0 {
		t.Errorf("affected = %d, want 0", affected)
	}
}

func TestNoteMutationsWakeSubscribers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	ch, cancel := db.Changes()
	defer cancel()

	before := db.Revision()
	if _, err := db.CreateNote(ctx, model.Note{Title: "ping"}); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	select {
	case <-ch:
	default:
		t.Error("no change signal after note create")
	}
	if db.Revision() == before {
		t.Error("revision not bumped by note create")
	}
}
