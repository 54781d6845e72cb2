package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) CreateAIRequest(ctx context.Context, request AIRequest) (AIRequest, error) {
	var response any
	if len(request.Response) > 0 {
		response = request.Response
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO ai_requests (user_id, request_type, prompt, response, tokens_used)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, request.UserID, request.RequestType, request.Prompt, response, request.TokensUsed)
	if err := row.Scan(&request.ID, &request.CreatedAt); err != nil {
		return AIRequest{}, fmt.Errorf("insert ai request: %w", err)
	}
	return request, nil
}

// ListAIRequests returns the user's requests, newest first.
func (s *PostgresStore) ListAIRequests(ctx context.Context, userID int64, page Page) ([]AIRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, request_type, prompt, response, tokens_used, created_at
		FROM ai_requests
		WHERE user_id=$1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`, userID, offsetArg(page), limitArg(page))
	if err != nil {
		return nil, fmt.Errorf("list ai requests: %w", err)
	}
	defer rows.Close()

	items := make([]AIRequest, 0)
	for rows.Next() {
		var item AIRequest
		if err := rows.Scan(&item.ID, &item.UserID, &item.RequestType, &item.Prompt, &item.Response, &item.TokensUsed, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ai request: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) CountAIRequests(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_requests WHERE user_id=$1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count ai requests: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CreateEngagementMetric(ctx context.Context, metric EngagementMetric) (EngagementMetric, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO engagement_metrics (user_id, metric_type, metric_value, metric_metadata, recorded_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING id, recorded_at
	`, metric.UserID, metric.MetricType, metric.MetricValue, nullString(metric.MetricMetadata), nullZeroTime(metric))
	if err := row.Scan(&metric.ID, &metric.RecordedAt); err != nil {
		return EngagementMetric{}, fmt.Errorf("insert engagement metric: %w", err)
	}
	return metric, nil
}

func nullZeroTime(metric EngagementMetric) any {
	if metric.RecordedAt.IsZero() {
		return nil
	}
	return metric.RecordedAt
}

// ListEngagementMetrics returns metrics newest first, optionally filtered by type.
func (s *PostgresStore) ListEngagementMetrics(ctx context.Context, userID int64, metricType string, page Page) ([]EngagementMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, metric_type, metric_value, COALESCE(metric_metadata, ''), recorded_at
		FROM engagement_metrics
		WHERE user_id=$1 AND ($2 = '' OR metric_type = $2)
		ORDER BY recorded_at DESC, id DESC
		OFFSET $3 LIMIT $4
	`, userID, metricType, offsetArg(page), limitArg(page))
	if err != nil {
		return nil, fmt.Errorf("list engagement metrics: %w", err)
	}
	defer rows.Close()

	items := make([]EngagementMetric, 0)
	for rows.Next() {
		var item EngagementMetric
		if err := rows.Scan(&item.ID, &item.UserID, &item.MetricType, &item.MetricValue, &item.MetricMetadata, &item.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan engagement metric: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
