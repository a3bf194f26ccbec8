package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/platewise/internal/domain"
)

func mealAt(at time.Time, calories, protein float64, method string) *domain.MealEntry {
	return &domain.MealEntry{
		CreatedAt: at,
		Estimate: domain.NutritionEstimate{
			Name:          "meal",
			Calories:      calories,
			Protein:       protein,
			CookingMethod: method,
			HealthNotes:   "No additional notes.",
		},
	}
}

func TestComputeStats(t *testing.T) {
	day1 := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	entries := []*domain.MealEntry{
		mealAt(day1, 900, 40, "grilled"),
		mealAt(day1.Add(5*time.Hour), 1100, 50, "deep fried"),
		mealAt(day2, 1400, 30, "baked"),
	}

	stats := computeStats(entries, 2000)

	assert.Equal(t, 2, stats.DaysTracked)
	assert.Equal(t, 1700.0, stats.AverageDailyCalories)
	assert.Equal(t, 60.0, stats.AverageDailyProteinG)
	assert.Equal(t, 50.0, stats.GoalAchievementPercentage)
	assert.Equal(t, 33.3, stats.ProcessedFoodPercentage)
}

func TestComputeStatsEmpty(t *testing.T) {
	assert.Equal(t, domain.InsightStats{}, computeStats(nil, 2000))
}

func TestComputeStatsNoTarget(t *testing.T) {
	stats := computeStats([]*domain.MealEntry{mealAt(time.Now(), 2000, 100, "raw")}, 0)
	assert.Equal(t, 0.0, stats.GoalAchievementPercentage)
	assert.Equal(t, 1, stats.DaysTracked)
}

func TestIsProcessed(t *testing.T) {
	tests := []struct {
		method string
		notes  string
		want   bool
	}{
		{method: "Fried", want: true},
		{notes: "Highly processed snack.", want: true},
		{notes: "Comes packaged with sauce.", want: true},
		{method: "steamed", notes: "Fresh vegetables.", want: false},
		{method: "deep-fried", want: true},
		{notes: "An ultra-processed snack bar.", want: true},
		{method: "stir-fried", notes: "Good source of fibre.", want: false},
		{method: "pan-fried", want: false},
		{notes: "Unprocessed whole grains.", want: false},
	}

	for _, tt := range tests {
		got := isProcessed(domain.NutritionEstimate{CookingMethod: tt.method, HealthNotes: tt.notes})
		assert.Equal(t, tt.want, got, "%q / %q", tt.method, tt.notes)
	}
}

func TestInsightsLiveModel(t *testing.T) {
	model := &stubCompleter{reply: `["Eat more greens.", "Protein intake looks solid."]`}
	env := newTestService(t, model)
	ctx := context.Background()

	_, err := env.svc.LogMeal(ctx, testJPEG, "image/jpeg", "english", "")
	require.NoError(t, err)

	report, err := env.svc.Insights(ctx, InsightsQuery{Days: 7, TargetCalories: 2000})
	require.NoError(t, err)

	assert.Equal(t, []string{"Eat more greens.", "Protein intake looks solid."}, report.Insights)
	assert.Equal(t, 1, report.Stats.DaysTracked)
}

func TestInsightsWithoutModel(t *testing.T) {
	env := newTestService(t, nil)

	report, err := env.svc.Insights(context.Background(), InsightsQuery{})
	require.NoError(t, err)

	assert.NotNil(t, report.Insights)
	assert.Empty(t, report.Insights)
	assert.Equal(t, domain.InsightStats{}, report.Stats)
}

func TestInsightsWindow(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	_, err := env.svc.LogMeal(ctx, testJPEG, "image/jpeg", "english", "")
	require.NoError(t, err)

	env.svc.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	report, err := env.svc.Insights(ctx, InsightsQuery{Days: 7})
	require.NoError(t, err)
	assert.Zero(t, report.Stats.DaysTracked)
}
