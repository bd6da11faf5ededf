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

// Labels returns all labels ordered by position, then name.
func (db *DB) Labels(ctx context.Context) ([]model.Label, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, color, position, created_at
		FROM labels
		ORDER BY position, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []model.Label
	for rows.Next() {
		var l model.Label
		var color *string
		err := rows.Scan(&l.ID, &l.Name, &color, &l.Position, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		if color != nil {
			l.Color = *color
		}
		labels = append(labels, l)
	}

	return labels, rows.Err()
}

// GetLabelByName returns a label by name, or nil when absent.
func (db *DB) GetLabelByName(ctx context.Context, name string) (*model.Label, error) {
	var l model.Label
	var color *string

	err := db.QueryRowContext(ctx, `
		SELECT id, name, color, position, created_at FROM labels WHERE name = ?
	`, name).Scan(&l.ID, &l.Name, &color, &l.Position, &l.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if color != nil {
		l.Color = *color
	}
	return &l, nil
}

// CreateLabel creates a new label at the end of the ordering.
func (db *DB) CreateLabel(ctx context.Context, name, color string) (*model.Label, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: label name must not be empty", model.ErrValidation)
	}

	id := uuid.New().String()
	now := time.Now()

	var maxPos sql.NullInt64
	db.QueryRowContext(ctx, `SELECT MAX(position) FROM labels`).Scan(&maxPos)
	position := 0
	if maxPos.Valid {
		position = int(maxPos.Int64) + 1
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO labels (id, name, color, position, created_at) VALUES (?, ?, ?, ?, ?)
	`, id, name, color, position, now)
	if err != nil {
		return nil, err
	}

	db.changed()
	return &model.Label{ID: id, Name: name, Color: color, Position: position, CreatedAt: now}, nil
}

// UpdateLabel renames or recolors a label.
func (db *DB) UpdateLabel(ctx context.Context, id, name, color string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: label name must not be empty", model.ErrValidation)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE labels SET name = ?, color = ? WHERE id = ?
	`, name, color, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: label %s", model.ErrNotFound, id)
	}

	db.changed()
	return nil
}

// DeleteLabel removes a label and its task associations.
func (db *DB) DeleteLabel(ctx context.Context, id string) error {
	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_labels WHERE label_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return err
	}

	db.changed()
	return nil
}

// ensureLabelTx finds or creates a label by name inside a transaction and
// returns its id.
func ensureLabelTx(ctx context.Context, tx *sql.Tx, name string, now time.Time) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM labels WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	id = uuid.New().String()
	var maxPos sql.NullInt64
	tx.QueryRowContext(ctx, `SELECT MAX(position) FROM labels`).Scan(&maxPos)
	position := 0
	if maxPos.Valid {
		position = int(maxPos.Int64) + 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO labels (id, name, position, created_at) VALUES (?, ?, ?, ?)
	`, id, name, position, now)
	if err != nil {
		return "", err
	}
	return id, nil
}
