package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Tasker/internal/domain/task"
	"github.com/jackc/pgx/v5"
)

var _ task.Repo = (*TaskRepo)(nil)

type TaskRepo struct{ db *DB }

func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

const taskColumns = `id::text, user_id::text, title, description, completed, created_at, updated_at`

const (
	qTaskInsert = `
INSERT INTO tasks (id, user_id, title, description, completed)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + taskColumns + `;`

	qTaskByOwner = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1 AND user_id = $2;`

	qTaskListByOwner = `
SELECT ` + taskColumns + `
FROM tasks
WHERE user_id = $1
ORDER BY created_at;`

	qTaskUpdate = `
UPDATE tasks
SET title       = $3,
    description = $4,
    completed   = $5,
    updated_at  = NOW()
WHERE id = $1 AND user_id = $2
RETURNING ` + taskColumns + `;`

	qTaskDelete = `
DELETE FROM tasks WHERE id = $1 AND user_id = $2;`
)

func (r *TaskRepo) Create(ctx context.Context, t *task.Task) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qTaskInsert, t.ID, t.UserID, t.Title, t.Description, t.Completed)
	if err := scanTask(row, t); err != nil {
		return fmt.Errorf("task insert: %w", err)
	}
	return nil
}

func (r *TaskRepo) GetByOwner(ctx context.Context, ownerID, id string) (*task.Task, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t task.Task
	if err := scanTask(r.db.execQueryer(ctx).QueryRow(ctx, qTaskByOwner, id, ownerID), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]*task.Task, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qTaskListByOwner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	defer rows.Close()

	out := make([]*task.Task, 0)
	for rows.Next() {
		var t task.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t *task.Task) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qTaskUpdate, t.ID, t.UserID, t.Title, t.Description, t.Completed)
	if err := scanTask(row, t); err != nil {
		return fmt.Errorf("task update: %w", err)
	}
	return nil
}

func (r *TaskRepo) DeleteByOwner(ctx context.Context, ownerID, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qTaskDelete, id, ownerID)
	if err != nil {
		return fmt.Errorf("task delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row, out *task.Task) error {
	if err := row.Scan(&out.ID, &out.UserID, &out.Title, &out.Description, &out.Completed, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan task: %w", mapPgErr(err))
	}
	return nil
}
