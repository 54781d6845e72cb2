package store

import (
	"context"
	"database/sql"
	"fmt"
)

const postColumns = `id, user_id, project_id, title, content, COALESCE(caption, ''), COALESCE(hashtags, ''),
	likes, comments, shares, engagement_rate, published_at, created_at, updated_at`

func scanPost(row rowScanner) (Post, error) {
	var post Post
	var projectID sql.NullInt64
	var publishedAt sql.NullTime
	err := row.Scan(&post.ID, &post.UserID, &projectID, &post.Title, &post.Content, &post.Caption, &post.Hashtags,
		&post.Likes, &post.Comments, &post.Shares, &post.EngagementRate, &publishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return Post{}, err
	}
	post.ProjectID = int64Ptr(projectID)
	post.PublishedAt = timePtr(publishedAt)
	return post, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, post Post) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (user_id, project_id, title, content, caption, hashtags, likes, comments, shares,
			engagement_rate, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+postColumns,
		post.UserID, nullInt64(post.ProjectID), post.Title, post.Content, nullString(post.Caption), nullString(post.Hashtags),
		post.Likes, post.Comments, post.Shares, post.EngagementRate, nullTime(post.PublishedAt),
	)
	created, err := scanPost(row)
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, userID, id int64) (Post, error) {
	return scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1 AND user_id=$2`, id, userID))
}

func (s *PostgresStore) ListPosts(ctx context.Context, userID int64, page Page) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE user_id=$1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`, userID, offsetArg(page), limitArg(page))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (s *PostgresStore) UpdatePost(ctx context.Context, post Post) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE posts SET project_id=$3, title=$4, content=$5, caption=$6, hashtags=$7, likes=$8, comments=$9,
			shares=$10, engagement_rate=$11, published_at=$12, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING `+postColumns,
		post.ID, post.UserID, nullInt64(post.ProjectID), post.Title, post.Content, nullString(post.Caption),
		nullString(post.Hashtags), post.Likes, post.Comments, post.Shares, post.EngagementRate, nullTime(post.PublishedAt),
	)
	return scanPost(row)
}

func (s *PostgresStore) DeletePost(ctx context.Context, userID, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectRow(result)
}
