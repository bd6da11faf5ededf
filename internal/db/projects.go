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

// ProjectDeletePolicy decides what happens to a deleted project's tasks.
type ProjectDeletePolicy string

const (
	// DetachTasks clears the project reference and keeps the tasks.
	DetachTasks ProjectDeletePolicy = "detach"
	// CascadeTasks removes the project's tasks along with it.
	CascadeTasks ProjectDeletePolicy = "cascade"
)

// ParseProjectDeletePolicy validates a configured policy name.
func ParseProjectDeletePolicy(s string) (ProjectDeletePolicy, error) {
	switch ProjectDeletePolicy(s) {
	case DetachTasks, CascadeTasks:
		return ProjectDeletePolicy(s), nil
	case "":
		return DetachTasks, nil
	default:
		return "", fmt.Errorf("%w: unknown project delete policy %q", model.ErrInvalidArgument, s)
	}
}

// Projects returns all projects with task counts, oldest first.
func (db *DB) Projects(ctx context.Context) ([]model.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.id, p.name, p.color, p.created_at,
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id) AS task_count,
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id AND completed = 1) AS completed_count
		FROM projects p
		ORDER BY p.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var color *string
		err := rows.Scan(&p.ID, &p.Name, &color, &p.CreatedAt, &p.TaskCount, &p.CompletedCount)
		if err != nil {
			return nil, err
		}
		if color != nil {
			p.Color = *color
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// GetProject returns a single project by ID, or nil when absent.
func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	var color *string

	err := db.QueryRowContext(ctx, `
		SELECT id, name, color, created_at FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &color, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if color != nil {
		p.Color = *color
	}
	return &p, nil
}

// CreateProject creates a new project
func (db *DB) CreateProject(ctx context.Context, name, color string) (*model.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: project name must not be empty", model.ErrValidation)
	}

	id := uuid.New().String()
	now := time.Now()

	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (id, name, color, created_at) VALUES (?, ?, ?, ?)
	`, id, name, color, now)
	if err != nil {
		return nil, err
	}

	db.changed()
	return &model.Project{ID: id, Name: name, Color: color, CreatedAt: now}, nil
}

// UpdateProject renames or recolors a project.
func (db *DB) UpdateProject(ctx context.Context, id, name, color string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: project name must not be empty", model.ErrValidation)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE projects SET name = ?, color = ? WHERE id = ?
	`, name, color, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: project %s", model.ErrNotFound, id)
	}

	db.changed()
	return nil
}

// DeleteProject removes a project. Its tasks are either detached or deleted
// with it, per the configured policy. Both sides happen in one transaction so
// no other layer needs its own cleanup call.
func (db *DB) DeleteProject(ctx context.Context, id string, policy ProjectDeletePolicy) error {
	err := db.Transaction(func(tx *sql.Tx) error {
		switch policy {
		case CascadeTasks:
			if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, id); err != nil {
				return err
			}
		default:
			_, err := tx.ExecContext(ctx,
				`UPDATE tasks SET project_id = NULL, updated_at = ? WHERE project_id = ?`,
				time.Now(), id)
			if err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: project %s", model.ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.changed()
	return nil
}
