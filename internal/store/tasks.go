package store

import (
	"context"
	"database/sql"
	"fmt"
)

const taskColumns = `id, owner_id, title, COALESCE(description, ''), status, priority, due_date, completed, created_at, updated_at`

func scanTask(row rowScanner) (Task, error) {
	var task Task
	var dueDate, updatedAt sql.NullTime
	err := row.Scan(&task.ID, &task.OwnerID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&dueDate, &task.Completed, &task.CreatedAt, &updatedAt)
	if err != nil {
		return Task{}, err
	}
	task.DueDate = timePtr(dueDate)
	task.UpdatedAt = timePtr(updatedAt)
	return task, nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, task Task) (Task, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (owner_id, title, description, status, priority, due_date, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING `+taskColumns,
		task.OwnerID, task.Title, nullString(task.Description), task.Status, task.Priority, nullTime(task.DueDate), task.Completed,
	)
	created, err := scanTask(row)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

// GetTask returns sql.ErrNoRows when the task does not exist or belongs to
// another owner.
func (s *PostgresStore) GetTask(ctx context.Context, ownerID, id int64) (Task, error) {
	return scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1 AND owner_id=$2`, id, ownerID))
}

func (s *PostgresStore) ListTasks(ctx context.Context, ownerID int64, page Page) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE owner_id=$1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`, ownerID, offsetArg(page), limitArg(page))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *PostgresStore) UpdateTask(ctx context.Context, task Task) (Task, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE tasks SET title=$3, description=$4, status=$5, priority=$6, due_date=$7, completed=$8, updated_at=NOW()
		WHERE id=$1 AND owner_id=$2
		RETURNING `+taskColumns,
		task.ID, task.OwnerID, task.Title, nullString(task.Description), task.Status, task.Priority, nullTime(task.DueDate), task.Completed,
	)
	return scanTask(row)
}

func (s *PostgresStore) DeleteTask(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectRow(result)
}
