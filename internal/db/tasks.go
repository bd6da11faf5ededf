package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/halden/nextstep/internal/model"
	"github.com/halden/nextstep/internal/window"
)

// taskColumns is the select list shared by all task queries. Labels come back
// as a comma-joined name list from the left join.
const taskColumns = `
	t.id, t.title, t.description, t.completed, t.priority, t.project_id,
	t.due_date, t.created_at, t.updated_at,
	GROUP_CONCAT(l.name)`

const taskJoins = `
	FROM tasks t
	LEFT JOIN task_labels tl ON tl.task_id = t.id
	LEFT JOIN labels l ON l.id = tl.label_id`

// taskOrder sorts by priority descending, then due date ascending with
// undated tasks last, then newest first.
const taskOrder = `
	ORDER BY t.priority DESC,
	         CASE WHEN t.due_date IS NULL THEN 1 ELSE 0 END,
	         t.due_date ASC,
	         t.created_at DESC`

// Tasks returns all tasks in the canonical order.
func (db *DB) Tasks(ctx context.Context) ([]model.Task, error) {
	return db.queryTasks(ctx, "SELECT"+taskColumns+taskJoins+" GROUP BY t.id"+taskOrder)
}

// TasksByProject returns tasks belonging to the given project.
func (db *DB) TasksByProject(ctx context.Context, projectID string) ([]model.Task, error) {
	return db.queryTasks(ctx,
		"SELECT"+taskColumns+taskJoins+" WHERE t.project_id = ? GROUP BY t.id"+taskOrder,
		projectID)
}

// TasksByLabel returns tasks carrying the named label.
func (db *DB) TasksByLabel(ctx context.Context, label string) ([]model.Task, error) {
	return db.queryTasks(ctx,
		"SELECT"+taskColumns+taskJoins+` WHERE t.id IN (
			SELECT tl2.task_id FROM task_labels tl2
			JOIN labels l2 ON l2.id = tl2.label_id
			WHERE l2.name = ?
		) GROUP BY t.id`+taskOrder,
		label)
}

// TasksWithDueDate returns all scheduled tasks.
func (db *DB) TasksWithDueDate(ctx context.Context) ([]model.Task, error) {
	return db.queryTasks(ctx,
		"SELECT"+taskColumns+taskJoins+" WHERE t.due_date IS NOT NULL GROUP BY t.id"+taskOrder)
}

// OverdueTasks returns uncompleted tasks whose due date is strictly before
// now. Completed tasks are never overdue.
func (db *DB) OverdueTasks(ctx context.Context, now time.Time) ([]model.Task, error) {
	return db.queryTasks(ctx,
		"SELECT"+taskColumns+taskJoins+
			" WHERE t.due_date IS NOT NULL AND t.due_date < ? AND t.completed = 0 GROUP BY t.id"+taskOrder,
		now.UnixMilli())
}

// TasksInWindow returns tasks due inside the half-open window [start, end).
func (db *DB) TasksInWindow(ctx context.Context, w window.Window) ([]model.Task, error) {
	return db.queryTasks(ctx,
		"SELECT"+taskColumns+taskJoins+
			" WHERE t.due_date IS NOT NULL AND t.due_date >= ? AND t.due_date < ? GROUP BY t.id"+taskOrder,
		w.StartMillis(), w.EndMillis())
}

// SearchTasks returns tasks whose title or description contains the text,
// case-insensitively.
func (db *DB) SearchTasks(ctx context.Context, text string) ([]model.Task, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"
	return db.queryTasks(ctx,
		"SELECT"+taskColumns+taskJoins+
			" WHERE (LOWER(t.title) LIKE ? OR LOWER(IFNULL(t.description, '')) LIKE ?) GROUP BY t.id"+taskOrder,
		pattern, pattern)
}

// GetTask returns a single task by ID, or nil when absent.
func (db *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	tasks, err := db.queryTasks(ctx,
		"SELECT"+taskColumns+taskJoins+" WHERE t.id = ? GROUP BY t.id", id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// CreateTask validates and persists a new task. The draft's ID and timestamps
// are assigned here; labels are created on first use.
func (db *DB) CreateTask(ctx context.Context, draft model.Task) (model.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		observeMutation("create", "error")
		return model.Task{}, fmt.Errorf("%w: task title must not be empty", model.ErrValidation)
	}
	if !draft.Priority.Valid() {
		observeMutation("create", "error")
		return model.Task{}, fmt.Errorf("%w: unknown priority %d", model.ErrValidation, draft.Priority)
	}

	draft.ID = uuid.New().String()
	now := time.Now()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, description, completed, priority, project_id, due_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, draft.ID, draft.Title, nullString(draft.Description), draft.Completed,
			int(draft.Priority), draft.ProjectID, dueMillis(draft.DueDate), now, now)
		if err != nil {
			return err
		}
		return setTaskLabelsTx(ctx, tx, draft.ID, draft.Labels, now)
	})
	if err != nil {
		observeMutation("create", "error")
		return model.Task{}, err
	}

	db.changed()
	observeMutation("create", "success")
	return draft, nil
}

// UpdateTask replaces the stored record matching the task's ID and bumps its
// update timestamp. Updating an unknown ID returns ErrNotFound rather than a
// silent zero count.
func (db *DB) UpdateTask(ctx context.Context, task model.Task) (int64, error) {
	if strings.TrimSpace(task.Title) == "" {
		observeMutation("update", "error")
		return 0, fmt.Errorf("%w: task title must not be empty", model.ErrValidation)
	}
	if !task.Priority.Valid() {
		observeMutation("update", "error")
		return 0, fmt.Errorf("%w: unknown priority %d", model.ErrValidation, task.Priority)
	}

	now := time.Now()
	var affected int64
	err := db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = ?, description = ?, completed = ?, priority = ?, project_id = ?, due_date = ?, updated_at = ?
			WHERE id = ?
		`, task.Title, nullString(task.Description), task.Completed,
			int(task.Priority), task.ProjectID, dueMillis(task.DueDate), now, task.ID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: task %s", model.ErrNotFound, task.ID)
		}
		return setTaskLabelsTx(ctx, tx, task.ID, task.Labels, now)
	})
	if err != nil {
		observeMutation("update", "error")
		return 0, err
	}

	db.changed()
	observeMutation("update", "success")
	return affected, nil
}

// DeleteTask removes a task. Deleting an unknown ID returns affected = 0.
func (db *DB) DeleteTask(ctx context.Context, id string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		observeMutation("delete", "error")
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		db.changed()
	}
	observeMutation("delete", "success")
	return affected, nil
}

// SetCompletion flips the completion flag on a single task.
func (db *DB) SetCompletion(ctx context.Context, id string, completed bool) (int64, error) {
	return db.setField(ctx, "completion", `UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?`,
		completed, time.Now(), id)
}

// SetDueDate replaces the task's due date; nil clears it.
func (db *DB) SetDueDate(ctx context.Context, id string, due *time.Time) (int64, error) {
	return db.setField(ctx, "due_date", `UPDATE tasks SET due_date = ?, updated_at = ? WHERE id = ?`,
		dueMillis(due), time.Now(), id)
}

// SetPriority replaces the task's priority level.
func (db *DB) SetPriority(ctx context.Context, id string, p model.Priority) (int64, error) {
	if !p.Valid() {
		observeMutation("priority", "error")
		return 0, fmt.Errorf("%w: unknown priority %d", model.ErrValidation, p)
	}
	return db.setField(ctx, "priority", `UPDATE tasks SET priority = ?, updated_at = ? WHERE id = ?`,
		int(p), time.Now(), id)
}

// DeleteTasksByProject bulk-deletes every task referencing the project.
func (db *DB) DeleteTasksByProject(ctx context.Context, projectID string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, projectID)
	if err != nil {
		observeMutation("delete_by_project", "error")
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		db.changed()
	}
	observeMutation("delete_by_project", "success")
	return affected, nil
}

// DetachTasksFromProject clears the project reference on every task in the
// project, leaving the tasks in place.
func (db *DB) DetachTasksFromProject(ctx context.Context, projectID string) (int64, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE tasks SET project_id = NULL, updated_at = ? WHERE project_id = ?`,
		time.Now(), projectID)
	if err != nil {
		observeMutation("detach_project", "error")
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		db.changed()
	}
	observeMutation("detach_project", "success")
	return affected, nil
}

// setField runs a single-column update and reports the affected row count.
// A zero count is returned as-is; callers treat a missing ID as a no-op.
func (db *DB) setField(ctx context.Context, name, query string, args ...interface{}) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		observeMutation(name, "error")
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		db.changed()
	}
	observeMutation(name, "success")
	return affected, nil
}

// Helper functions

func (db *DB) queryTasks(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTaskRow(rows *sql.Rows) (*model.Task, error) {
	var t model.Task
	var description, projectID, labels *string
	var completed, priority int
	var dueMillis sql.NullInt64

	err := rows.Scan(
		&t.ID, &t.Title, &description, &completed, &priority, &projectID,
		&dueMillis, &t.CreatedAt, &t.UpdatedAt, &labels,
	)
	if err != nil {
		return nil, err
	}

	t.Completed = completed == 1
	t.Priority = model.Priority(priority)
	if description != nil {
		t.Description = *description
	}
	t.ProjectID = projectID
	if dueMillis.Valid {
		due := time.UnixMilli(dueMillis.Int64)
		t.DueDate = &due
	}
	if labels != nil && *labels != "" {
		t.Labels = strings.Split(*labels, ",")
	}

	return &t, nil
}

// setTaskLabelsTx replaces the task's label set, creating labels on demand.
func setTaskLabelsTx(ctx context.Context, tx *sql.Tx, taskID string, names []string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM task_labels WHERE task_id = ?`, taskID)
	if err != nil {
		return err
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		labelID, err := ensureLabelTx(ctx, tx, name, now)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_labels (task_id, label_id) VALUES (?, ?)`,
			taskID, labelID)
		if err != nil {
			return err
		}
	}
	return nil
}

func dueMillis(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
