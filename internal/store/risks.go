package store

import (
	"context"
	"fmt"
)

const riskColumns = `id, owner_id, title, COALESCE(description, ''), severity, probability, impact, status,
	COALESCE(mitigation_plan, ''), created_at, updated_at`

func scanRisk(row rowScanner) (Risk, error) {
	var risk Risk
	err := row.Scan(&risk.ID, &risk.OwnerID, &risk.Title, &risk.Description, &risk.Severity, &risk.Probability,
		&risk.Impact, &risk.Status, &risk.MitigationPlan, &risk.CreatedAt, &risk.UpdatedAt)
	if err != nil {
		return Risk{}, err
	}
	return risk, nil
}

func (s *PostgresStore) CreateRisk(ctx context.Context, risk Risk) (Risk, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO risks (owner_id, title, description, severity, probability, impact, status, mitigation_plan)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+riskColumns,
		risk.OwnerID, risk.Title, nullString(risk.Description), risk.Severity, risk.Probability, risk.Impact, risk.Status,
		nullString(risk.MitigationPlan),
	)
	created, err := scanRisk(row)
	if err != nil {
		return Risk{}, fmt.Errorf("insert risk: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetRisk(ctx context.Context, ownerID, id int64) (Risk, error) {
	return scanRisk(s.db.QueryRowContext(ctx, `SELECT `+riskColumns+` FROM risks WHERE id=$1 AND owner_id=$2`, id, ownerID))
}

func (s *PostgresStore) ListRisks(ctx context.Context, ownerID int64, page Page) ([]Risk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+riskColumns+` FROM risks
		WHERE owner_id=$1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`, ownerID, offsetArg(page), limitArg(page))
	if err != nil {
		return nil, fmt.Errorf("list risks: %w", err)
	}
	defer rows.Close()

	risks := make([]Risk, 0)
	for rows.Next() {
		risk, err := scanRisk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan risk: %w", err)
		}
		risks = append(risks, risk)
	}
	return risks, rows.Err()
}

func (s *PostgresStore) UpdateRisk(ctx context.Context, risk Risk) (Risk, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE risks SET title=$3, description=$4, severity=$5, probability=$6, impact=$7, status=$8,
			mitigation_plan=$9, updated_at=NOW()
		WHERE id=$1 AND owner_id=$2
		RETURNING `+riskColumns,
		risk.ID, risk.OwnerID, risk.Title, nullString(risk.Description), risk.Severity, risk.Probability, risk.Impact,
		risk.Status, nullString(risk.MitigationPlan),
	)
	return scanRisk(row)
}

func (s *PostgresStore) DeleteRisk(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM risks WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete risk: %w", err)
	}
	return expectRow(result)
}
