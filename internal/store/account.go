package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// cascadeOrder lists the user-owned tables in foreign-key safe order. Posts go
// before projects because posts.project_id references projects.
var cascadeOrder = []struct {
	table  string
	column string
}{
	{table: "ai_requests", column: "user_id"},
	{table: "engagement_metrics", column: "user_id"},
	{table: "posts", column: "user_id"},
	{table: "tasks", column: "owner_id"},
	{table: "risks", column: "owner_id"},
	{table: "projects", column: "owner_id"},
	{table: "refresh_sessions", column: "user_id"},
}

// DeleteUserCascade removes a user and every row they own in one transaction.
func (s *PostgresStore) DeleteUserCascade(ctx context.Context, userID int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		for _, dep := range cascadeOrder {
			query := fmt.Sprintf(`DELETE FROM %s WHERE %s=$1`, dep.table, dep.column)
			if _, err := tx.ExecContext(ctx, query, userID); err != nil {
				return fmt.Errorf("delete %s: %w", dep.table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
