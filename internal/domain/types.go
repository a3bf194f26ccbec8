package domain

import "time"

// MealEntry is a logged meal: the photo reference plus its current estimate.
type MealEntry struct {
	ID        int64             `json:"id"`
	PhotoKey  string            `json:"photo_key"`
	MimeType  string            `json:"mime_type"`
	Language  string            `json:"language"`
	Estimate  NutritionEstimate `json:"estimate"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// StoredPlan is a generated weekly plan together with the profile it was built for.
type StoredPlan struct {
	ID        int64                `json:"id"`
	Profile   UserNutritionProfile `json:"profile"`
	Plan      WeeklyMealPlan       `json:"plan"`
	CreatedAt time.Time            `json:"created_at"`
}

// Record flattens an entry into the shape used for insight prompts.
func (e *MealEntry) Record() MealRecord {
	return MealRecord{
		Name:     e.Estimate.Name,
		Calories: e.Estimate.Calories,
		Protein:  e.Estimate.Protein,
		Carbs:    e.Estimate.Carbs,
		Fat:      e.Estimate.Fat,
		LoggedAt: e.CreatedAt,
	}
}
