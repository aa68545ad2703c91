package sqlite

import (
	"context"
	"fmt"
	"time"

	"bookrag/internal/domain"
)

var _ domain.PlanStore = (*Store)(nil)

// SavePlan stores a new plan and fills in its generated id and timestamp.
func (s *Store) SavePlan(ctx context.Context, plan *domain.Plan) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (platform, prompt, response, created_at)
		VALUES (?, ?, ?, ?)
	`, plan.Platform, plan.Prompt, plan.Response, now)
	if err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading plan id: %w", err)
	}
	plan.ID = id
	plan.CreatedAt = now
	return nil
}

// ListPlans returns all saved plans, newest first.
func (s *Store) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, platform, prompt, response, created_at
		FROM plans
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Plan
		if err := rows.Scan(&p.ID, &p.Platform, &p.Prompt, &p.Response, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return plans, nil
}

// DeletePlan removes a plan by id. Missing ids are not an error.
func (s *Store) DeletePlan(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	return nil
}
