package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/halden/nextstep/internal/model"
)

// joinTags flattens a tag list into the stored comma-joined form. Blank tags
// are dropped.
func joinTags(tags []string) *string {
	var kept []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	s := strings.Join(kept, ",")
	return &s
}

func splitTags(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	return strings.Split(*s, ",")
}

// Notes returns all notes, newest first.
func (db *DB) Notes(ctx context.Context) ([]model.Note, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, content, tags, created_at, updated_at
		FROM notes
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		var content, tags *string
		err := rows.Scan(&n.ID, &n.Title, &content, &tags, &n.CreatedAt, &n.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if content != nil {
			n.Content = *content
		}
		n.Tags = splitTags(tags)
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

// GetNote returns a single note by ID, or nil when absent.
func (db *DB) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var n model.Note
	var content, tags *string

	err := db.QueryRowContext(ctx, `
		SELECT id, title, content, tags, created_at, updated_at FROM notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Title, &content, &tags, &n.CreatedAt, &n.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if content != nil {
		n.Content = *content
	}
	n.Tags = splitTags(tags)
	return &n, nil
}

// CreateNote validates and persists a new note. The draft's ID and timestamps
// are assigned here.
func (db *DB) CreateNote(ctx context.Context, draft model.Note) (model.Note, error) {
	if strings.TrimSpace(draft.Title) == "" {
		observeMutation("note_create", "error")
		return model.Note{}, fmt.Errorf("%w: note title must not be empty", model.ErrValidation)
	}

	draft.ID = uuid.New().String()
	now := time.Now()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, draft.ID, draft.Title, draft.Content, joinTags(draft.Tags), draft.CreatedAt, draft.UpdatedAt)
	if err != nil {
		observeMutation("note_create", "error")
		return model.Note{}, err
	}

	observeMutation("note_create", "success")
	db.changed()
	return draft, nil
}

// UpdateNote replaces a note's title, content and tags. The updated timestamp
// is bumped here.
func (db *DB) UpdateNote(ctx context.Context, note model.Note) (model.Note, error) {
	if strings.TrimSpace(note.Title) == "" {
		observeMutation("note_update", "error")
		return model.Note{}, fmt.Errorf("%w: note title must not be empty", model.ErrValidation)
	}

	note.UpdatedAt = time.Now()

	res, err := db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, tags = ?, updated_at = ? WHERE id = ?
	`, note.Title, note.Content, joinTags(note.Tags), note.UpdatedAt, note.ID)
	if err != nil {
		observeMutation("note_update", "error")
		return model.Note{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Note{}, err
	}
	if affected == 0 {
		observeMutation("note_update", "error")
		return model.Note{}, fmt.Errorf("%w: note %s", model.ErrNotFound, note.ID)
	}

	observeMutation("note_update", "success")
	db.changed()
	return note, nil
}

// DeleteNote removes a note and returns the number of rows affected.
func (db *DB) DeleteNote(ctx context.Context, id string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		observeMutation("note_delete", "error")
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	observeMutation("note_delete", "success")
	if affected > 0 {
		db.changed()
	}
	return affected, nil
}
