package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const userColumns = `id, email, username, COALESCE(hashed_password, ''), COALESCE(full_name, ''), is_active, is_superuser,
	role, COALESCE(profile_picture, ''), notification_preferences, user_preferences, COALESCE(google_id, ''),
	created_at, updated_at`

func scanUser(row rowScanner) (User, error) {
	var user User
	var notifications, preferences []byte
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.FullName, &user.IsActive, &user.IsSuperuser,
		&user.Role, &user.ProfilePicture, &notifications, &preferences, &user.GoogleID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	user.NotificationPreferences = unmarshalJSONB(notifications)
	user.UserPreferences = unmarshalJSONB(preferences)
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	notifications, err := marshalJSONB(user.NotificationPreferences)
	if err != nil {
		return User{}, err
	}
	preferences, err := marshalJSONB(user.UserPreferences)
	if err != nil {
		return User{}, err
	}
	role := user.Role
	if role == "" {
		role = "user"
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, hashed_password, full_name, is_active, is_superuser, role,
			profile_picture, notification_preferences, user_preferences, google_id)
		VALUES (LOWER($1), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+userColumns,
		user.Email, user.Username, nullString(user.PasswordHash), nullString(user.FullName), user.IsActive, user.IsSuperuser, role,
		nullString(user.ProfilePicture), notifications, preferences, nullString(user.GoogleID),
	)
	created, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=LOWER($1)`, strings.TrimSpace(email)))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, strings.TrimSpace(username)))
}

// GetUserByLogin resolves a login identifier that may be a username or an email.
func (s *PostgresStore) GetUserByLogin(ctx context.Context, login string) (User, error) {
	login = strings.TrimSpace(login)
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE username=$1 OR email=LOWER($1)
		ORDER BY (username=$1) DESC
		LIMIT 1
	`, login))
}

func (s *PostgresStore) GetUserByGoogleID(ctx context.Context, googleID string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE google_id=$1`, googleID))
}

// UpdateUser writes every mutable profile column of user.
func (s *PostgresStore) UpdateUser(ctx context.Context, user User) (User, error) {
	notifications, err := marshalJSONB(user.NotificationPreferences)
	if err != nil {
		return User{}, err
	}
	preferences, err := marshalJSONB(user.UserPreferences)
	if err != nil {
		return User{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET
			email=LOWER($2), username=$3, hashed_password=$4, full_name=$5, is_active=$6, is_superuser=$7, role=$8,
			profile_picture=$9, notification_preferences=$10, user_preferences=$11, google_id=$12, updated_at=NOW()
		WHERE id=$1
		RETURNING `+userColumns,
		user.ID, user.Email, user.Username, nullString(user.PasswordHash), nullString(user.FullName), user.IsActive, user.IsSuperuser, user.Role,
		nullString(user.ProfilePicture), notifications, preferences, nullString(user.GoogleID),
	)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET hashed_password=$2, updated_at=NOW() WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectRow(result)
}

func (s *PostgresStore) ListUsers(ctx context.Context, page Page) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id OFFSET $1 LIMIT $2`, offsetArg(page), limitArg(page))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func expectRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
