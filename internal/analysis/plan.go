package analysis

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/vbonduro/platewise/internal/domain"
)

type flexBool struct {
	value bool
	ok    bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	*f = flexBool{}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		f.value, f.ok = v, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes":
			f.value, f.ok = true, true
		case "false", "no":
			f.value, f.ok = false, true
		}
	}
	return nil
}

type ingredientPayload struct {
	Name     flexString `json:"name"`
	Quantity flexNumber `json:"quantity"`
	Unit     flexString `json:"unit"`
	Category flexString `json:"category"`
}

// UnmarshalJSON also accepts a bare ingredient name.
func (p *ingredientPayload) UnmarshalJSON(b []byte) error {
	type plain ingredientPayload
	var obj plain
	if err := json.Unmarshal(b, &obj); err == nil {
		*p = ingredientPayload(obj)
		return nil
	}
	*p = ingredientPayload{}
	return p.Name.UnmarshalJSON(b)
}

type stepPayload struct {
	Step        flexNumber `json:"step"`
	Text        flexString `json:"text"`
	Instruction flexString `json:"instruction"`
}

// UnmarshalJSON also accepts a bare instruction string.
func (p *stepPayload) UnmarshalJSON(b []byte) error {
	type plain stepPayload
	var obj plain
	if err := json.Unmarshal(b, &obj); err == nil {
		*p = stepPayload(obj)
		return nil
	}
	*p = stepPayload{}
	return p.Text.UnmarshalJSON(b)
}

type mealPayload struct {
	Name              flexString                  `json:"name"`
	Description       flexString                  `json:"description"`
	MealTiming        flexString                  `json:"meal_timing"`
	DietaryCategory   flexString                  `json:"dietary_category"`
	PrepTimeMinutes   flexNumber                  `json:"prep_time_minutes"`
	DifficultyLevel   flexNumber                  `json:"difficulty_level"`
	Calories          flexNumber                  `json:"calories"`
	ProteinG          flexNumber                  `json:"protein_g"`
	CarbsG            flexNumber                  `json:"carbs_g"`
	FatsG             flexNumber                  `json:"fats_g"`
	FiberG            flexNumber                  `json:"fiber_g"`
	SugarG            flexNumber                  `json:"sugar_g"`
	SodiumMg          flexNumber                  `json:"sodium_mg"`
	Ingredients       flexList[ingredientPayload] `json:"ingredients"`
	Instructions      flexList[stepPayload]       `json:"instructions"`
	Allergens         flexStrings                 `json:"allergens"`
	ImageURL          flexString                  `json:"image_url"`
	PortionMultiplier flexNumber                  `json:"portion_multiplier"`
	IsOptional        flexBool                    `json:"is_optional"`
}

type dayPayload struct {
	Day      flexString            `json:"day"`
	DayIndex flexNumber            `json:"day_index"`
	Meals    flexList[mealPayload] `json:"meals"`
}

type summaryPayload struct {
	AverageCalories         flexNumber `json:"average_calories"`
	AverageProteinG         flexNumber `json:"average_protein_g"`
	AverageCarbsG           flexNumber `json:"average_carbs_g"`
	AverageFatsG            flexNumber `json:"average_fats_g"`
	GoalAdherencePercentage flexNumber `json:"goal_adherence_percentage"`
}

type planPayload struct {
	WeeklyPlan   flexList[dayPayload] `json:"weekly_plan"`
	Summary      *summaryPayload      `json:"weekly_nutrition_summary"`
	ShoppingTips flexStrings          `json:"shopping_tips"`
	MealPrepTips flexStrings          `json:"meal_prep_tips"`
}

type replacementPayload struct {
	mealPayload
	ReplacementReason flexString `json:"replacement_reason"`
}

func wholeMinutes(n flexNumber) int {
	return int(math.Round(nonNegative(n.or(0))))
}

// toMeal coerces a decoded meal. slot is used when the reply's timing tag is
// not one of the known values.
func (p mealPayload) toMeal(slot domain.MealTiming) domain.PlannedMeal {
	timing := parseTiming(p.MealTiming.or(""))
	if !timing.Valid() {
		timing = slot
	}
	category := parseCategory(p.DietaryCategory.or(""))
	if !category.Valid() {
		category = domain.Balanced
	}
	multiplier := p.PortionMultiplier.or(1)
	if multiplier <= 0 {
		multiplier = 1
	}

	ingredients := make([]domain.Ingredient, 0, len(p.Ingredients.items))
	for _, ing := range p.Ingredients.items {
		if !ing.Name.ok {
			continue
		}
		ingredients = append(ingredients, domain.Ingredient{
			Name:     ing.Name.value,
			Quantity: nonNegative(ing.Quantity.or(0)),
			Unit:     ing.Unit.or(""),
			Category: ing.Category.or("other"),
		})
	}

	steps := make([]domain.InstructionStep, 0, len(p.Instructions.items))
	for _, st := range p.Instructions.items {
		text := st.Text.or(st.Instruction.or(""))
		if text == "" {
			continue
		}
		steps = append(steps, domain.InstructionStep{Step: len(steps) + 1, Text: text})
	}

	return domain.PlannedMeal{
		Name:              p.Name.or("Unnamed Meal"),
		Description:       p.Description.or(""),
		MealTiming:        timing,
		DietaryCategory:   category,
		PrepTimeMinutes:   wholeMinutes(p.PrepTimeMinutes),
		DifficultyLevel:   clampInt(int(math.Round(p.DifficultyLevel.or(1))), 1, 5),
		Calories:          nonNegative(p.Calories.or(0)),
		ProteinG:          nonNegative(p.ProteinG.or(0)),
		CarbsG:            nonNegative(p.CarbsG.or(0)),
		FatsG:             nonNegative(p.FatsG.or(0)),
		FiberG:            nonNegative(p.FiberG.or(0)),
		SugarG:            nonNegative(p.SugarG.or(0)),
		SodiumMg:          nonNegative(p.SodiumMg.or(0)),
		Ingredients:       ingredients,
		Instructions:      steps,
		Allergens:         p.Allergens.or([]string{}),
		ImageURL:          p.ImageURL.or(""),
		PortionMultiplier: multiplier,
		IsOptional:        p.IsOptional.value,
	}
}

// parsePlan accepts a reply only if it has exactly seven days and every day
// has one meal per timing tag. Accepted plans are normalised by position.
func parsePlan(reply string, profile domain.UserNutritionProfile, timings []domain.MealTiming) (domain.WeeklyMealPlan, error) {
	p, err := decodeObject[planPayload](reply, "plan")
	if err != nil {
		return domain.WeeklyMealPlan{}, err
	}
	if !p.WeeklyPlan.ok {
		return domain.WeeklyMealPlan{}, malformed("weekly_plan missing")
	}
	if n := len(p.WeeklyPlan.items); n != len(domain.DayNames) {
		return domain.WeeklyMealPlan{}, malformed("weekly_plan has %d days", n)
	}

	days := make([]domain.DayPlan, len(domain.DayNames))
	for i, day := range p.WeeklyPlan.items {
		if n := len(day.Meals.items); n != len(timings) {
			return domain.WeeklyMealPlan{}, malformed("day %d has %d meals, want %d", i, n, len(timings))
		}
		meals := make([]domain.PlannedMeal, len(timings))
		for j, m := range day.Meals.items {
			meals[j] = m.toMeal(timings[j])
		}
		days[i] = domain.DayPlan{Day: domain.DayNames[i], DayIndex: i, Meals: meals}
	}

	summary := domain.WeeklySummary{
		AverageCalories:         profile.TargetCalories,
		AverageProteinG:         profile.TargetProteinG,
		AverageCarbsG:           profile.TargetCarbsG,
		AverageFatsG:            profile.TargetFatsG,
		GoalAdherencePercentage: fallbackAdherence,
	}
	if s := p.Summary; s != nil {
		summary = domain.WeeklySummary{
			AverageCalories:         nonNegative(s.AverageCalories.or(summary.AverageCalories)),
			AverageProteinG:         nonNegative(s.AverageProteinG.or(summary.AverageProteinG)),
			AverageCarbsG:           nonNegative(s.AverageCarbsG.or(summary.AverageCarbsG)),
			AverageFatsG:            nonNegative(s.AverageFatsG.or(summary.AverageFatsG)),
			GoalAdherencePercentage: clamp(s.GoalAdherencePercentage.or(summary.GoalAdherencePercentage), 0, 100),
		}
	}

	return domain.WeeklyMealPlan{
		WeeklyPlan:   days,
		Summary:      summary,
		ShoppingTips: p.ShoppingTips.or([]string{}),
		MealPrepTips: p.MealPrepTips.or([]string{}),
	}, nil
}

// GenerateMealPlan builds a seven-day plan for profile. Replies that do not
// match the expected structure are never returned; the fallback plan is used
// instead.
func (a *Adapter) GenerateMealPlan(ctx context.Context, profile domain.UserNutritionProfile) domain.WeeklyMealPlan {
	timings := MealTimings(profile.MealsPerDay, profile.SnacksPerDay)

	reply, err := a.complete(ctx, OpGenerateMealPlan, planSystemPrompt, mealPlanPrompt(profile, timings), nil)
	if err == nil {
		var plan domain.WeeklyMealPlan
		plan, err = parsePlan(reply, profile, timings)
		if err == nil {
			return plan
		}
	}

	a.fellBack(ctx, OpGenerateMealPlan, err)
	return fallbackPlan(profile)
}

func parseReplacement(reply string, req domain.MealReplacementRequest) (domain.MealReplacementResult, error) {
	p, err := decodeObject[replacementPayload](reply, "replacement")
	if err != nil {
		return domain.MealReplacementResult{}, err
	}
	if !p.Name.ok || !p.MealTiming.ok {
		return domain.MealReplacementResult{}, malformed("replacement missing name or meal_timing")
	}

	slot := parseTiming(string(req.CurrentMeal.MealTiming))
	if !slot.Valid() && !parseTiming(p.MealTiming.value).Valid() {
		return domain.MealReplacementResult{}, malformed("replacement meal_timing %q is not a known slot", p.MealTiming.value)
	}
	meal := p.toMeal(slot)
	if slot.Valid() {
		meal.MealTiming = slot
	}
	return domain.MealReplacementResult{
		PlannedMeal:       meal,
		ReplacementReason: p.ReplacementReason.or("Suggested as an alternative to " + req.CurrentMeal.Name + "."),
	}, nil
}

// GenerateReplacementMeal suggests one meal to swap in for req.CurrentMeal in
// the same slot of the day.
func (a *Adapter) GenerateReplacementMeal(ctx context.Context, req domain.MealReplacementRequest) domain.MealReplacementResult {
	reply, err := a.complete(ctx, OpReplacementMeal, replacementSystemPrompt, replacementPrompt(req), nil)
	if err == nil {
		var res domain.MealReplacementResult
		res, err = parseReplacement(reply, req)
		if err == nil {
			return res
		}
	}

	a.fellBack(ctx, OpReplacementMeal, err)
	return fallbackReplacement(req)
}
