package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vbonduro/platewise/internal/domain"
)

const mealColumns = `id, photo_key, mime_type, language, estimate_json, created_at, updated_at`

type MealStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewMealStore(db *sql.DB) *MealStore {
	return &MealStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *MealStore) Create(ctx context.Context, photoKey, mimeType, language string, est domain.NutritionEstimate) (*domain.MealEntry, error) {
	encoded, err := json.Marshal(est)
	if err != nil {
		return nil, fmt.Errorf("failed to encode estimate: %w", err)
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO meals (photo_key, mime_type, language, name, calories, protein, carbs, fat,
			cooking_method, health_notes, estimate_json, is_fallback, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, photoKey, mimeType, language, est.Name, est.Calories, est.Protein, est.Carbs, est.Fat,
		est.CookingMethod, est.HealthNotes, string(encoded), est.IsFallback, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*domain.MealEntry, error) {
	entry := &domain.MealEntry{}
	var estimate string
	if err := row.Scan(&entry.ID, &entry.PhotoKey, &entry.MimeType, &entry.Language, &estimate, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(estimate), &entry.Estimate); err != nil {
		return nil, fmt.Errorf("failed to decode estimate for meal %d: %w", entry.ID, err)
	}
	return entry, nil
}

func (s *MealStore) GetByID(ctx context.Context, id int64) (*domain.MealEntry, error) {
	entry, err := scanMeal(s.db.QueryRowContext(ctx, `
		SELECT `+mealColumns+` FROM meals WHERE id = ?
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}

	return entry, nil
}

// List returns the most recent meals first.
func (s *MealStore) List(ctx context.Context, limit int) ([]*domain.MealEntry, error) {
	return s.query(ctx, `
		SELECT `+mealColumns+` FROM meals ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
}

// ListSince returns meals logged at or after since, oldest first.
func (s *MealStore) ListSince(ctx context.Context, since time.Time) ([]*domain.MealEntry, error) {
	return s.query(ctx, `
		SELECT `+mealColumns+` FROM meals WHERE created_at >= ? ORDER BY created_at ASC, id ASC
	`, since.UTC())
}

func (s *MealStore) query(ctx context.Context, query string, args ...any) ([]*domain.MealEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	var entries []*domain.MealEntry
	for rows.Next() {
		entry, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}

	return entries, nil
}

func (s *MealStore) UpdateEstimate(ctx context.Context, id int64, est domain.NutritionEstimate) (*domain.MealEntry, error) {
	encoded, err := json.Marshal(est)
	if err != nil {
		return nil, fmt.Errorf("failed to encode estimate: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE meals SET name = ?, calories = ?, protein = ?, carbs = ?, fat = ?,
			cooking_method = ?, health_notes = ?, estimate_json = ?, is_fallback = ?, updated_at = ?
		WHERE id = ?
	`, est.Name, est.Calories, est.Protein, est.Carbs, est.Fat,
		est.CookingMethod, est.HealthNotes, string(encoded), est.IsFallback, s.now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("meal %d: %w", id, ErrNotFound)
	}

	return s.GetByID(ctx, id)
}

func (s *MealStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM meals WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("meal %d: %w", id, ErrNotFound)
	}

	return nil
}
