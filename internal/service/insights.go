package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/vbonduro/platewise/internal/domain"
)

const (
	defaultInsightDays = 7
	maxInsightDays     = 90
	// goalTolerance is the fraction of the calorie target a day may deviate
	// by and still count as on goal.
	goalTolerance = 0.10
)

// processedKeywords are matched as whole words. Hyphenated compounds stay one
// word, so "stir-fried" does not count while "deep-fried" does.
var processedKeywords = map[string]bool{
	"fried":           true,
	"deep-fried":      true,
	"processed":       true,
	"ultra-processed": true,
	"packaged":        true,
}

type InsightsQuery struct {
	Days           int
	TargetCalories float64
}

type InsightsReport struct {
	Stats    domain.InsightStats `json:"stats"`
	Insights []string            `json:"insights"`
}

// Insights summarises the meals logged in the last q.Days days and asks the
// analyzer for coaching tips about them.
func (s *MealService) Insights(ctx context.Context, q InsightsQuery) (*InsightsReport, error) {
	days := q.Days
	if days <= 0 {
		days = defaultInsightDays
	}
	if days > maxInsightDays {
		days = maxInsightDays
	}

	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	entries, err := s.meals.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}

	records := make([]domain.MealRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record())
	}
	stats := computeStats(entries, q.TargetCalories)

	insights := s.analyzer.GenerateInsights(ctx, records, stats)
	s.logger.Info("insights generated", "days", days, "meals", len(entries), "insights", len(insights))
	return &InsightsReport{Stats: stats, Insights: insights}, nil
}

type dayTotals struct {
	calories float64
	protein  float64
}

// computeStats averages over days that have at least one logged meal. Days
// are bucketed by UTC calendar date.
func computeStats(entries []*domain.MealEntry, targetCalories float64) domain.InsightStats {
	if len(entries) == 0 {
		return domain.InsightStats{}
	}

	byDay := make(map[string]*dayTotals)
	processed := 0
	for _, e := range entries {
		key := e.CreatedAt.UTC().Format(time.DateOnly)
		totals, ok := byDay[key]
		if !ok {
			totals = &dayTotals{}
			byDay[key] = totals
		}
		totals.calories += e.Estimate.Calories
		totals.protein += e.Estimate.Protein
		if isProcessed(e.Estimate) {
			processed++
		}
	}

	var calories, protein float64
	onGoal := 0
	for _, totals := range byDay {
		calories += totals.calories
		protein += totals.protein
		if targetCalories > 0 && math.Abs(totals.calories-targetCalories) <= targetCalories*goalTolerance {
			onGoal++
		}
	}

	tracked := len(byDay)
	return domain.InsightStats{
		DaysTracked:               tracked,
		AverageDailyCalories:      round1(calories / float64(tracked)),
		AverageDailyProteinG:      round1(protein / float64(tracked)),
		GoalAchievementPercentage: round1(float64(onGoal) * 100 / float64(tracked)),
		ProcessedFoodPercentage:   round1(float64(processed) * 100 / float64(len(entries))),
	}
}

func isProcessed(est domain.NutritionEstimate) bool {
	words := strings.FieldsFunc(strings.ToLower(est.CookingMethod+" "+est.HealthNotes), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
	for _, w := range words {
		if processedKeywords[strings.Trim(w, "-")] {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
