package store

import (
	"context"
	"database/sql"
	"fmt"
)

const projectColumns = `id, owner_id, name, COALESCE(description, ''), status, progress, due_date, created_at, updated_at`

func scanProject(row rowScanner) (Project, error) {
	var project Project
	var dueDate sql.NullTime
	err := row.Scan(&project.ID, &project.OwnerID, &project.Name, &project.Description, &project.Status,
		&project.Progress, &dueDate, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	project.DueDate = timePtr(dueDate)
	return project, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, project Project) (Project, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (owner_id, name, description, status, progress, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+projectColumns,
		project.OwnerID, project.Name, nullString(project.Description), project.Status, project.Progress, nullTime(project.DueDate),
	)
	created, err := scanProject(row)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, ownerID, id int64) (Project, error) {
	return scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1 AND owner_id=$2`, id, ownerID))
}

func (s *PostgresStore) ListProjects(ctx context.Context, ownerID int64, page Page) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE owner_id=$1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`, ownerID, offsetArg(page), limitArg(page))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) UpdateProject(ctx context.Context, project Project) (Project, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects SET name=$3, description=$4, status=$5, progress=$6, due_date=$7, updated_at=NOW()
		WHERE id=$1 AND owner_id=$2
		RETURNING `+projectColumns,
		project.ID, project.OwnerID, project.Name, nullString(project.Description), project.Status, project.Progress,
		nullTime(project.DueDate),
	)
	return scanProject(row)
}

// DeleteProject detaches the project's posts before removing it.
func (s *PostgresStore) DeleteProject(ctx context.Context, ownerID, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE posts SET project_id=NULL, updated_at=NOW()
			WHERE project_id=$1 AND EXISTS (SELECT 1 FROM projects WHERE id=$1 AND owner_id=$2)
		`, id, ownerID); err != nil {
			return fmt.Errorf("detach project posts: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=$1 AND owner_id=$2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return expectRow(result)
	})
}
