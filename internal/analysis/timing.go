package analysis

import "github.com/vbonduro/platewise/internal/domain"

var (
	mealSlots  = [...]domain.MealTiming{domain.Breakfast, domain.Lunch, domain.Dinner}
	snackSlots = [...]domain.MealTiming{domain.MorningSnack, domain.AfternoonSnack, domain.EveningSnack}
)

// SlotCounts normalises a profile's meal and snack counts. Zero or negative
// meals means the default of three; both counts are capped at three because
// there are only three tags of each kind.
func SlotCounts(mealsPerDay, snacksPerDay int) (meals, snacks int) {
	meals = mealsPerDay
	if meals <= 0 {
		meals = len(mealSlots)
	}
	return clampInt(meals, 1, len(mealSlots)), clampInt(snacksPerDay, 0, len(snackSlots))
}

// MealTimings returns the ordered timing tags for one day: the meal tags
// first, then the snack tags.
func MealTimings(mealsPerDay, snacksPerDay int) []domain.MealTiming {
	meals, snacks := SlotCounts(mealsPerDay, snacksPerDay)
	out := make([]domain.MealTiming, 0, meals+snacks)
	out = append(out, mealSlots[:meals]...)
	return append(out, snackSlots[:snacks]...)
}
