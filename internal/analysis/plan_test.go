package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/platewise/internal/domain"
)

func testProfile(meals, snacks int) domain.UserNutritionProfile {
	return domain.UserNutritionProfile{
		Age:                   34,
		WeightKg:              72.5,
		HeightCm:              178,
		TargetCalories:        2200,
		TargetProteinG:        140,
		TargetCarbsG:          230,
		TargetFatsG:           70,
		MealsPerDay:           meals,
		SnacksPerDay:          snacks,
		DietaryPreferences:    []string{"high protein"},
		ExcludedIngredients:   []string{"cilantro"},
		FoodsToAvoid:          []string{"soda"},
		Allergies:             []domain.Allergy{{Name: "peanuts", Severity: "severe"}},
		ActivityLevel:         "moderate",
		Goal:                  "maintain",
		CookingSkillLevel:     "intermediate",
		MaxCookingTimeMinutes: 45,
		KitchenEquipment:      []string{"oven", "blender"},
	}
}

func testReplacementRequest() domain.MealReplacementRequest {
	return domain.MealReplacementRequest{
		CurrentMeal: domain.CurrentMeal{
			Name:            "Pepperoni Pizza",
			MealTiming:      domain.Dinner,
			DietaryCategory: domain.Balanced,
		},
		ExcludedIngredients: []string{"mushrooms"},
		Allergies:           []domain.Allergy{{Name: "shellfish"}},
		PreferredCategory:   domain.HighProtein,
		MaxPrepTimeMinutes:  30,
		TargetCalories:      600,
		TargetProteinG:      40,
	}
}

// livePlanJSON builds a structurally valid reply with the given shape.
func livePlanJSON(t *testing.T, days, mealsPerDay int) string {
	t.Helper()
	week := make([]map[string]any, days)
	for d := range week {
		meals := make([]map[string]any, mealsPerDay)
		for m := range meals {
			meals[m] = map[string]any{
				"name":             "Meal",
				"meal_timing":      "BREAKFAST",
				"dietary_category": "HIGH_PROTEIN",
				"calories":         500,
				"protein_g":        35,
				"carbs_g":          50,
				"fats_g":           15,
				"difficulty_level": 2,
				"ingredients":      []map[string]any{{"name": "eggs", "quantity": 2, "unit": "pcs", "category": "protein"}},
				"instructions":     []map[string]any{{"step": 1, "text": "Cook."}},
			}
		}
		week[d] = map[string]any{"day": "Someday", "day_index": 42, "meals": meals}
	}
	body, err := json.Marshal(map[string]any{
		"weekly_plan": week,
		"weekly_nutrition_summary": map[string]any{
			"average_calories":          2150,
			"average_protein_g":         138,
			"average_carbs_g":           225,
			"average_fats_g":            72,
			"goal_adherence_percentage": 140,
		},
		"shopping_tips":  []string{"Buy eggs in bulk."},
		"meal_prep_tips": []string{"Boil eggs ahead."},
	})
	require.NoError(t, err)
	return "Here is your plan:\n" + string(body)
}

func TestGenerateMealPlanShape(t *testing.T) {
	a := newTestAdapter(nil)
	for meals := 1; meals <= 3; meals++ {
		for snacks := 0; snacks <= 3; snacks++ {
			plan := a.GenerateMealPlan(context.Background(), testProfile(meals, snacks))
			require.Len(t, plan.WeeklyPlan, 7)
			for i, day := range plan.WeeklyPlan {
				assert.Equal(t, i, day.DayIndex)
				assert.Equal(t, domain.DayNames[i], day.Day)
				assert.Len(t, day.Meals, meals+snacks, "meals=%d snacks=%d day=%d", meals, snacks, i)
			}
		}
	}
}

func TestGenerateMealPlanFallbackContent(t *testing.T) {
	profile := testProfile(3, 1)
	plan := newTestAdapter(nil).GenerateMealPlan(context.Background(), profile)

	assert.True(t, plan.IsFallback)
	assert.Equal(t, profile.TargetCalories, plan.Summary.AverageCalories)
	assert.Equal(t, profile.TargetProteinG, plan.Summary.AverageProteinG)
	assert.Equal(t, profile.TargetCarbsG, plan.Summary.AverageCarbsG)
	assert.Equal(t, profile.TargetFatsG, plan.Summary.AverageFatsG)
	assert.Equal(t, 80.0, plan.Summary.GoalAdherencePercentage)
	assert.NotEmpty(t, plan.ShoppingTips)
	assert.NotEmpty(t, plan.MealPrepTips)

	day := plan.WeeklyPlan[0]
	timings := make([]domain.MealTiming, len(day.Meals))
	for i, m := range day.Meals {
		timings[i] = m.MealTiming
		assert.Equal(t, 550.0, m.Calories)
		assert.Equal(t, 35.0, m.ProteinG)
		assert.Equal(t, 58.0, m.CarbsG)
		assert.Equal(t, 18.0, m.FatsG)
		assert.Len(t, m.Ingredients, 1)
		assert.Len(t, m.Instructions, 1)
		assert.Equal(t, domain.HighProtein, m.DietaryCategory)
	}
	assert.Equal(t, []domain.MealTiming{domain.Breakfast, domain.Lunch, domain.Dinner, domain.MorningSnack}, timings)
	assert.True(t, day.Meals[3].IsOptional)
}

func TestGenerateMealPlanFallbackIsPure(t *testing.T) {
	profile := testProfile(2, 2)
	a := newTestAdapter(nil)
	assert.Equal(t, a.GenerateMealPlan(context.Background(), profile), a.GenerateMealPlan(context.Background(), profile))
}

func TestGenerateMealPlanDoesNotMutateProfile(t *testing.T) {
	profile := testProfile(0, 5)
	snapshot := testProfile(0, 5)
	newTestAdapter(&stubModel{reply: "nope"}).GenerateMealPlan(context.Background(), profile)
	assert.Equal(t, snapshot, profile)
}

func TestGenerateMealPlanMalformedEqualsFallback(t *testing.T) {
	profile := testProfile(3, 1)
	want := fallbackPlan(profile)

	tests := []struct {
		name  string
		reply string
	}{
		{"unparseable", "Sorry, I can only help with recipes."},
		{"missing weekly_plan", `{"shopping_tips": ["buy food"]}`},
		{"weekly_plan not an array", `{"weekly_plan": "coming soon"}`},
		{"six days", livePlanJSON(t, 6, 4)},
		{"eight days", livePlanJSON(t, 8, 4)},
		{"wrong meal count", livePlanJSON(t, 7, 3)},
		{"truncated", livePlanJSON(t, 7, 4)[:200]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &stubModel{reply: tt.reply}
			got := newTestAdapter(model).GenerateMealPlan(context.Background(), profile)
			assert.Equal(t, want, got)
			assert.Equal(t, 1, model.calls)
		})
	}
}

func TestGenerateMealPlanLive(t *testing.T) {
	profile := testProfile(3, 1)
	model := &stubModel{reply: livePlanJSON(t, 7, 4)}
	plan := newTestAdapter(model).GenerateMealPlan(context.Background(), profile)

	assert.Contains(t, model.last.Prompt, "BREAKFAST, LUNCH, DINNER, MORNING_SNACK")
	assert.Contains(t, model.last.Prompt, "cilantro")
	assert.Contains(t, model.last.Prompt, "peanuts (severe)")
	assert.Contains(t, model.last.Prompt, "45 minutes")

	assert.False(t, plan.IsFallback)
	require.Len(t, plan.WeeklyPlan, 7)
	for i, day := range plan.WeeklyPlan {
		assert.Equal(t, i, day.DayIndex)
		assert.Equal(t, domain.DayNames[i], day.Day)
		require.Len(t, day.Meals, 4)
	}
	meal := plan.WeeklyPlan[0].Meals[0]
	assert.Equal(t, domain.Breakfast, meal.MealTiming)
	assert.Equal(t, domain.HighProtein, meal.DietaryCategory)
	assert.Equal(t, 500.0, meal.Calories)
	assert.Equal(t, 1.0, meal.PortionMultiplier)
	assert.Equal(t, []domain.Ingredient{{Name: "eggs", Quantity: 2, Unit: "pcs", Category: "protein"}}, meal.Ingredients)
	assert.Equal(t, 2150.0, plan.Summary.AverageCalories)
	assert.Equal(t, 100.0, plan.Summary.GoalAdherencePercentage)
	assert.Equal(t, []string{"Buy eggs in bulk."}, plan.ShoppingTips)
}

func TestPlanMealNormalisation(t *testing.T) {
	var p mealPayload
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Stew",
		"meal_timing": "brunch",
		"dietary_category": "carnivore",
		"prep_time_minutes": "25 min",
		"difficulty_level": 9,
		"calories": -300,
		"sodium_mg": "1,100",
		"ingredients": ["beef", {"name": "carrot", "quantity": -2}, {"unit": "g"}],
		"instructions": [{"step": 7, "text": "Brown the beef."}, "Simmer.", {"step": 2, "text": ""}, {"instruction": "Serve."}],
		"allergens": "celery",
		"portion_multiplier": 0,
		"is_optional": "yes"
	}`), &p))

	m := p.toMeal(domain.Dinner)
	assert.Equal(t, domain.Dinner, m.MealTiming)
	assert.Equal(t, domain.Balanced, m.DietaryCategory)
	assert.Equal(t, 25, m.PrepTimeMinutes)
	assert.Equal(t, 5, m.DifficultyLevel)
	assert.Equal(t, 0.0, m.Calories)
	assert.Equal(t, 1100.0, m.SodiumMg)
	assert.Equal(t, []domain.Ingredient{
		{Name: "beef", Category: "other"},
		{Name: "carrot", Category: "other"},
	}, m.Ingredients)
	assert.Equal(t, []domain.InstructionStep{
		{Step: 1, Text: "Brown the beef."},
		{Step: 2, Text: "Simmer."},
		{Step: 3, Text: "Serve."},
	}, m.Instructions)
	assert.Equal(t, []string{"celery"}, m.Allergens)
	assert.Equal(t, 1.0, m.PortionMultiplier)
	assert.True(t, m.IsOptional)
}

func TestPlanMealTimingCaseInsensitive(t *testing.T) {
	var p mealPayload
	require.NoError(t, json.Unmarshal([]byte(`{"name": "Yogurt", "meal_timing": "afternoon snack", "difficulty_level": 0}`), &p))
	m := p.toMeal(domain.Lunch)
	assert.Equal(t, domain.AfternoonSnack, m.MealTiming)
	assert.Equal(t, 1, m.DifficultyLevel)
	assert.Empty(t, m.Ingredients)
	assert.NotNil(t, m.Allergens)
}

func TestGenerateReplacementMealFallbackDefaults(t *testing.T) {
	req := testReplacementRequest()
	res := newTestAdapter(nil).GenerateReplacementMeal(context.Background(), req)

	assert.True(t, res.IsFallback)
	assert.Equal(t, "Alternative Pepperoni Pizza", res.Name)
	assert.Equal(t, domain.Dinner, res.MealTiming)
	assert.Equal(t, domain.Balanced, res.DietaryCategory)
	assert.Equal(t, 400.0, res.Calories)
	assert.Equal(t, 25.0, res.ProteinG)
	assert.Equal(t, 35.0, res.CarbsG)
	assert.Equal(t, 15.0, res.FatsG)
	assert.NotEmpty(t, res.ReplacementReason)
}

func TestGenerateReplacementMealFallbackClonesMacros(t *testing.T) {
	req := testReplacementRequest()
	req.CurrentMeal.Calories = ptr(820)
	req.CurrentMeal.FatsG = ptr(31)
	req.CurrentMeal.DietaryCategory = domain.Vegetarian

	res := newTestAdapter(nil).GenerateReplacementMeal(context.Background(), req)
	assert.Equal(t, 820.0, res.Calories)
	assert.Equal(t, 25.0, res.ProteinG)
	assert.Equal(t, 35.0, res.CarbsG)
	assert.Equal(t, 31.0, res.FatsG)
	assert.Equal(t, domain.Vegetarian, res.DietaryCategory)
}

func TestGenerateReplacementMealLive(t *testing.T) {
	model := &stubModel{reply: "```json\n" + `{
		"name": "Grilled Chicken Flatbread",
		"description": "Flatbread with grilled chicken and peppers.",
		"meal_timing": "LUNCH",
		"dietary_category": "HIGH_PROTEIN",
		"prep_time_minutes": 25,
		"calories": 580,
		"protein_g": 42,
		"carbs_g": 55,
		"fats_g": 18,
		"replacement_reason": "Higher protein with less saturated fat."
	}` + "\n```"}
	req := testReplacementRequest()
	res := newTestAdapter(model).GenerateReplacementMeal(context.Background(), req)

	assert.Contains(t, model.last.Prompt, "Pepperoni Pizza")
	assert.Contains(t, model.last.Prompt, "mushrooms")
	assert.Contains(t, model.last.Prompt, "shellfish")
	assert.Contains(t, model.last.Prompt, "HIGH_PROTEIN")
	assert.Contains(t, model.last.Prompt, "30 minutes")

	assert.False(t, res.IsFallback)
	assert.Equal(t, "Grilled Chicken Flatbread", res.Name)
	assert.Equal(t, domain.Dinner, res.MealTiming, "replacement keeps the original slot")
	assert.Equal(t, 42.0, res.ProteinG)
	assert.Equal(t, "Higher protein with less saturated fat.", res.ReplacementReason)
}

func TestGenerateReplacementMealRequiresNameAndTiming(t *testing.T) {
	req := testReplacementRequest()
	want := fallbackReplacement(req)

	for _, reply := range []string{
		`{"meal_timing": "DINNER", "calories": 500}`,
		`{"name": "Soup", "meal_timing": ""}`,
		`{"name": "  ", "meal_timing": "DINNER"}`,
		`no JSON at all`,
	} {
		got := newTestAdapter(&stubModel{reply: reply}).GenerateReplacementMeal(context.Background(), req)
		assert.Equal(t, want, got, reply)
	}
}

func TestGenerateReplacementMealUnknownSlot(t *testing.T) {
	req := testReplacementRequest()
	req.CurrentMeal.MealTiming = "BRUNCH"

	t.Run("reply timing also unknown", func(t *testing.T) {
		model := &stubModel{reply: `{"name": "Soup", "meal_timing": "whenever"}`}
		res := newTestAdapter(model).GenerateReplacementMeal(context.Background(), req)
		assert.True(t, res.IsFallback)
		assert.True(t, res.MealTiming.Valid())
		assert.Equal(t, domain.Lunch, res.MealTiming)
	})

	t.Run("reply timing known", func(t *testing.T) {
		model := &stubModel{reply: `{"name": "Soup", "meal_timing": "evening snack"}`}
		res := newTestAdapter(model).GenerateReplacementMeal(context.Background(), req)
		assert.False(t, res.IsFallback)
		assert.Equal(t, domain.EveningSnack, res.MealTiming)
	})

	t.Run("request slot normalised", func(t *testing.T) {
		req := testReplacementRequest()
		req.CurrentMeal.MealTiming = "afternoon snack"
		res := newTestAdapter(nil).GenerateReplacementMeal(context.Background(), req)
		assert.Equal(t, domain.AfternoonSnack, res.MealTiming)
		assert.True(t, res.IsOptional)
	})
}
