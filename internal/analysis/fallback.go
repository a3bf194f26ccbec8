package analysis

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/vbonduro/platewise/internal/domain"
)

const (
	fallbackConfidence = 40
	fallbackAdherence  = 80

	defaultReplacementCalories = 400
	defaultReplacementProtein  = 25
	defaultReplacementCarbs    = 35
	defaultReplacementFat      = 15
	defaultReplacementTiming   = domain.Lunch

	largerPortionFactor  = 1.3
	smallerPortionFactor = 0.7
)

var fallbackCatalog = [...]domain.NutritionEstimate{
	{
		Name:          "Grilled Chicken Salad",
		Description:   "Grilled chicken breast over mixed greens with a light vinaigrette.",
		Calories:      350,
		Protein:       32,
		Carbs:         12,
		Fat:           18,
		Fiber:         ptr(4),
		Sugar:         ptr(5),
		Sodium:        ptr(480),
		Ingredients:   []string{"chicken breast", "mixed greens", "cherry tomatoes", "cucumber", "olive oil"},
		ServingSize:   "1 bowl (300 g)",
		CookingMethod: "grilled",
		HealthNotes:   "High in protein and low in carbohydrates.",
	},
	{
		Name:          "Spaghetti Bolognese",
		Description:   "Spaghetti with a tomato and minced beef sauce.",
		Calories:      620,
		Protein:       28,
		Carbs:         78,
		Fat:           20,
		Fiber:         ptr(6),
		Sugar:         ptr(11),
		Sodium:        ptr(720),
		Ingredients:   []string{"spaghetti", "minced beef", "tomato sauce", "onion", "parmesan"},
		ServingSize:   "1 plate (400 g)",
		CookingMethod: "boiled and simmered",
		HealthNotes:   "A carbohydrate-rich meal; watch the portion of pasta.",
	},
	{
		Name:          "Vegetable Stir-Fry with Rice",
		Description:   "Mixed vegetables stir-fried in soy sauce, served with steamed rice.",
		Calories:      480,
		Protein:       14,
		Carbs:         72,
		Fat:           14,
		Fiber:         ptr(7),
		Sugar:         ptr(9),
		Sodium:        ptr(890),
		Ingredients:   []string{"white rice", "broccoli", "bell pepper", "carrot", "soy sauce", "vegetable oil"},
		ServingSize:   "1 plate (380 g)",
		CookingMethod: "stir-fried",
		HealthNotes:   "Good source of fibre; soy sauce adds sodium.",
	},
	{
		Name:          "Avocado Toast with Egg",
		Description:   "Whole-grain toast topped with smashed avocado and a poached egg.",
		Calories:      390,
		Protein:       15,
		Carbs:         32,
		Fat:           22,
		Fiber:         ptr(8),
		Sugar:         ptr(3),
		Sodium:        ptr(410),
		Ingredients:   []string{"whole-grain bread", "avocado", "egg", "lemon juice", "chili flakes"},
		ServingSize:   "2 slices (250 g)",
		CookingMethod: "toasted and poached",
		HealthNotes:   "Rich in healthy fats and fibre.",
	},
}

// fallbackEstimate picks a catalog entry by hashing the image, so the same
// photo always produces the same estimate.
func fallbackEstimate(image []byte) domain.NutritionEstimate {
	h := fnv.New32a()
	_, _ = h.Write(image)
	out := cloneEstimate(fallbackCatalog[h.Sum32()%uint32(len(fallbackCatalog))])
	out.Confidence = fallbackConfidence
	out.IsFallback = true
	return out
}

var (
	increaseTokens = []string{"more", "extra", "additional"}
	decreaseTokens = []string{"less", "smaller"}
)

func tokenize(text string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func containsAny(set map[string]bool, words []string) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

func appendSentence(text, suffix string) string {
	if text == "" {
		return strings.TrimSpace(suffix)
	}
	return text + suffix
}

const (
	largerPortionMark  = " (Extra Portion)"
	smallerPortionMark = " (Smaller Portion)"
	largerPortionNote  = " Adjusted for a larger portion."
	smallerPortionNote = " Adjusted for a smaller portion."
)

// stripPortionMarks removes trailing portion suffixes left by earlier
// revisions, so a name carries at most one.
func stripPortionMarks(name string) string {
	for {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(name, largerPortionMark), smallerPortionMark)
		if trimmed == name {
			return name
		}
		name = trimmed
	}
}

func stripPortionNotes(desc string) string {
	for {
		if desc == strings.TrimSpace(largerPortionNote) || desc == strings.TrimSpace(smallerPortionNote) {
			return ""
		}
		trimmed := strings.TrimSuffix(strings.TrimSuffix(desc, largerPortionNote), smallerPortionNote)
		if trimmed == desc {
			return strings.TrimSpace(desc)
		}
		desc = trimmed
	}
}

// fallbackUpdate revises an estimate using portion keywords alone. Increase
// keywords win when both kinds appear.
func fallbackUpdate(original domain.NutritionEstimate, updateText string) domain.NutritionEstimate {
	out := cloneEstimate(original)
	out.IsFallback = true

	tokens := tokenize(updateText)
	scale := func(factor float64) {
		out.Calories = math.Round(original.Calories * factor)
		out.Protein = math.Round(original.Protein * factor)
		out.Carbs = math.Round(original.Carbs * factor)
		out.Fat = math.Round(original.Fat * factor)
	}

	switch {
	case containsAny(tokens, increaseTokens):
		scale(largerPortionFactor)
		out.Name = stripPortionMarks(out.Name) + largerPortionMark
		out.Description = appendSentence(stripPortionNotes(out.Description), largerPortionNote)
	case containsAny(tokens, decreaseTokens):
		scale(smallerPortionFactor)
		out.Name = stripPortionMarks(out.Name) + smallerPortionMark
		out.Description = appendSentence(stripPortionNotes(out.Description), smallerPortionNote)
	default:
		if t := strings.TrimSpace(updateText); t != "" {
			out.Description = appendSentence(out.Description, " Update: "+t)
		}
	}
	return out
}

var fallbackMealNames = map[domain.MealTiming]string{
	domain.Breakfast:      "Balanced Breakfast",
	domain.Lunch:          "Balanced Lunch",
	domain.Dinner:         "Balanced Dinner",
	domain.MorningSnack:   "Morning Snack",
	domain.AfternoonSnack: "Afternoon Snack",
	domain.EveningSnack:   "Evening Snack",
}

var (
	fallbackShoppingTips = []string{
		"Buy lean proteins in bulk and freeze them in meal-sized portions.",
		"Choose seasonal vegetables for better price and flavour.",
		"Keep whole grains such as oats, rice and quinoa stocked as staples.",
	}
	fallbackMealPrepTips = []string{
		"Batch-cook grains and proteins at the start of the week.",
		"Pre-chop vegetables and store them in airtight containers.",
		"Portion snacks ahead of time to stay on target.",
	}
)

// categoryFromPreferences maps the first recognisable dietary preference to
// a category, defaulting to BALANCED.
func categoryFromPreferences(prefs []string) domain.DietaryCategory {
	for _, p := range prefs {
		if c := parseCategory(p); c.Valid() {
			return c
		}
	}
	return domain.Balanced
}

func parseCategory(s string) domain.DietaryCategory {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return domain.DietaryCategory(s)
}

func parseTiming(s string) domain.MealTiming {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return domain.MealTiming(s)
}

func fallbackPrepTime(maxMinutes int) int {
	const prep = 15
	if maxMinutes > 0 && maxMinutes < prep {
		return maxMinutes
	}
	return prep
}

func placeholderIngredients() []domain.Ingredient {
	return []domain.Ingredient{{Name: "Seasonal whole foods", Quantity: 1, Unit: "serving", Category: "mixed"}}
}

func placeholderInstructions() []domain.InstructionStep {
	return []domain.InstructionStep{{Step: 1, Text: "Prepare with whole-food ingredients to match the listed macros."}}
}

// fallbackPlan is a pure function of the profile: every day has one meal per
// timing tag and each meal carries an even share of the daily targets.
func fallbackPlan(p domain.UserNutritionProfile) domain.WeeklyMealPlan {
	timings := MealTimings(p.MealsPerDay, p.SnacksPerDay)
	share := func(daily float64) float64 {
		return math.Round(nonNegative(daily) / float64(len(timings)))
	}
	category := categoryFromPreferences(p.DietaryPreferences)

	days := make([]domain.DayPlan, len(domain.DayNames))
	for i := range days {
		meals := make([]domain.PlannedMeal, len(timings))
		for j, t := range timings {
			meals[j] = domain.PlannedMeal{
				Name:              fallbackMealNames[t],
				Description:       "A simple meal sized to an even share of your daily targets.",
				MealTiming:        t,
				DietaryCategory:   category,
				PrepTimeMinutes:   fallbackPrepTime(p.MaxCookingTimeMinutes),
				DifficultyLevel:   1,
				Calories:          share(p.TargetCalories),
				ProteinG:          share(p.TargetProteinG),
				CarbsG:            share(p.TargetCarbsG),
				FatsG:             share(p.TargetFatsG),
				Ingredients:       placeholderIngredients(),
				Instructions:      placeholderInstructions(),
				Allergens:         []string{},
				PortionMultiplier: 1,
				IsOptional:        t.IsSnack(),
			}
		}
		days[i] = domain.DayPlan{Day: domain.DayNames[i], DayIndex: i, Meals: meals}
	}

	return domain.WeeklyMealPlan{
		WeeklyPlan: days,
		Summary: domain.WeeklySummary{
			AverageCalories:         p.TargetCalories,
			AverageProteinG:         p.TargetProteinG,
			AverageCarbsG:           p.TargetCarbsG,
			AverageFatsG:            p.TargetFatsG,
			GoalAdherencePercentage: fallbackAdherence,
		},
		ShoppingTips: cloneStrings(fallbackShoppingTips),
		MealPrepTips: cloneStrings(fallbackMealPrepTips),
		IsFallback:   true,
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return nonNegative(*v)
}

func fallbackReplacement(req domain.MealReplacementRequest) domain.MealReplacementResult {
	m := req.CurrentMeal
	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = "Meal"
	}
	category := m.DietaryCategory
	if !category.Valid() {
		category = domain.Balanced
	}
	timing := parseTiming(string(m.MealTiming))
	if !timing.Valid() {
		timing = defaultReplacementTiming
	}

	return domain.MealReplacementResult{
		PlannedMeal: domain.PlannedMeal{
			Name:              "Alternative " + name,
			Description:       "A substitute with a similar nutritional profile to " + name + ".",
			MealTiming:        timing,
			DietaryCategory:   category,
			PrepTimeMinutes:   fallbackPrepTime(req.MaxPrepTimeMinutes),
			DifficultyLevel:   1,
			Calories:          valueOr(m.Calories, defaultReplacementCalories),
			ProteinG:          valueOr(m.ProteinG, defaultReplacementProtein),
			CarbsG:            valueOr(m.CarbsG, defaultReplacementCarbs),
			FatsG:             valueOr(m.FatsG, defaultReplacementFat),
			Ingredients:       placeholderIngredients(),
			Instructions:      placeholderInstructions(),
			Allergens:         []string{},
			PortionMultiplier: 1,
			IsOptional:        timing.IsSnack(),
		},
		ReplacementReason: "Generated offline as a like-for-like swap because personalised suggestions are currently unavailable.",
		IsFallback:        true,
	}
}

func cloneEstimate(e domain.NutritionEstimate) domain.NutritionEstimate {
	out := e
	out.Ingredients = cloneStrings(e.Ingredients)
	if e.Fiber != nil {
		out.Fiber = ptr(*e.Fiber)
	}
	if e.Sugar != nil {
		out.Sugar = ptr(*e.Sugar)
	}
	if e.Sodium != nil {
		out.Sodium = ptr(*e.Sodium)
	}
	return out
}
