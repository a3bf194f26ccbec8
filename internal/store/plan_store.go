package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vbonduro/platewise/internal/domain"
)

type PlanStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *PlanStore) Create(ctx context.Context, profile domain.UserNutritionProfile, plan domain.WeeklyMealPlan) (*domain.StoredPlan, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_plans (profile_json, plan_json, is_fallback, created_at) VALUES (?, ?, ?, ?)
	`, string(profileJSON), string(planJSON), plan.IsFallback, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create meal plan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func scanPlan(row rowScanner) (*domain.StoredPlan, error) {
	stored := &domain.StoredPlan{}
	var profileJSON, planJSON string
	if err := row.Scan(&stored.ID, &profileJSON, &planJSON, &stored.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(profileJSON), &stored.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile for plan %d: %w", stored.ID, err)
	}
	if err := json.Unmarshal([]byte(planJSON), &stored.Plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan %d: %w", stored.ID, err)
	}
	return stored, nil
}

func (s *PlanStore) GetByID(ctx context.Context, id int64) (*domain.StoredPlan, error) {
	stored, err := scanPlan(s.db.QueryRowContext(ctx, `
		SELECT id, profile_json, plan_json, created_at FROM meal_plans WHERE id = ?
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}

	return stored, nil
}

func (s *PlanStore) Latest(ctx context.Context) (*domain.StoredPlan, error) {
	stored, err := scanPlan(s.db.QueryRowContext(ctx, `
		SELECT id, profile_json, plan_json, created_at FROM meal_plans ORDER BY created_at DESC, id DESC LIMIT 1
	`))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest meal plan: %w", err)
	}

	return stored, nil
}
