package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vbonduro/platewise/internal/domain"
)

const estimateSchema = `{
  "name": "short dish name",
  "description": "one or two sentences describing the meal",
  "calories": 0,
  "protein": 0,
  "carbs": 0,
  "fat": 0,
  "fiber": 0,
  "sugar": 0,
  "sodium": 0,
  "confidence": 0,
  "ingredients": ["ingredient"],
  "servingSize": "e.g. 1 plate (350 g)",
  "cookingMethod": "e.g. grilled",
  "healthNotes": "brief nutritional observations"
}`

func estimateSystemPrompt(language string) string {
	var b strings.Builder
	b.WriteString("You are an expert nutrition analyst and registered dietitian. ")
	b.WriteString("You estimate the nutritional content of meals from photographs.\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("- Be conservative: when a portion is ambiguous, assume the smaller plausible size.\n")
	b.WriteString("- calories is in kcal; protein, carbs, fat, fiber and sugar are in grams; sodium is in milligrams.\n")
	b.WriteString("- confidence is a number from 0 to 100 describing how certain you are.\n")
	b.WriteString("- All numbers must be plain JSON numbers without units.\n")
	b.WriteString("- Respond with a single JSON object and nothing else, using exactly this schema:\n")
	b.WriteString(estimateSchema)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Write all text fields in %s.", language)
	return b.String()
}

func analyzeImagePrompt(updateText string) string {
	var b strings.Builder
	b.WriteString("Analyze the meal in this photo and estimate its nutritional content.\n")
	if t := strings.TrimSpace(updateText); t != "" {
		fmt.Fprintf(&b, "\nADDITIONAL CONTEXT FROM THE USER: %s\n", t)
		b.WriteString("Take this context into account when identifying ingredients and portion sizes.\n")
	}
	return b.String()
}

func updateAnalysisPrompt(original domain.NutritionEstimate, updateText string) string {
	orig := original
	orig.IsFallback = false
	encoded, err := json.MarshalIndent(orig, "", "  ")
	if err != nil {
		encoded = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Here is a previous nutritional analysis of a meal:\n")
	b.Write(encoded)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "The user has provided this clarification: %s\n\n", strings.TrimSpace(updateText))
	b.WriteString("Revise the analysis to reflect the clarification. ")
	b.WriteString("Keep every field that the clarification does not affect. ")
	b.WriteString("Return the complete revised object in the same schema.\n")
	return b.String()
}

const planSchemaExample = `{
  "weekly_plan": [
    {
      "day": "Sunday",
      "day_index": 0,
      "meals": [
        {
          "name": "Greek Yogurt Parfait",
          "description": "Yogurt layered with berries and granola",
          "meal_timing": "BREAKFAST",
          "dietary_category": "BALANCED",
          "prep_time_minutes": 10,
          "difficulty_level": 1,
          "calories": 450,
          "protein_g": 25,
          "carbs_g": 55,
          "fats_g": 12,
          "fiber_g": 6,
          "sugar_g": 20,
          "sodium_mg": 120,
          "ingredients": [
            {"name": "Greek yogurt", "quantity": 200, "unit": "g", "category": "dairy"}
          ],
          "instructions": [
            {"step": 1, "text": "Layer the yogurt and berries in a bowl."}
          ],
          "allergens": ["dairy"],
          "image_url": "",
          "portion_multiplier": 1,
          "is_optional": false
        }
      ]
    }
  ],
  "weekly_nutrition_summary": {
    "average_calories": 2000,
    "average_protein_g": 150,
    "average_carbs_g": 200,
    "average_fats_g": 65,
    "goal_adherence_percentage": 90
  },
  "shopping_tips": ["tip"],
  "meal_prep_tips": ["tip"]
}`

const planSystemPrompt = "You are a professional nutritionist and meal planning expert. " +
	"You design weekly meal plans that hit the user's macro targets while strictly respecting " +
	"their allergies, exclusions and cooking constraints. Respond with a single JSON object only."

func joinOrNone(items []string) string {
	items = nonBlank(items)
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func allergyList(allergies []domain.Allergy) string {
	names := make([]string, 0, len(allergies))
	for _, a := range allergies {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		if a.Severity != "" {
			name = fmt.Sprintf("%s (%s)", name, a.Severity)
		}
		names = append(names, name)
	}
	return joinOrNone(names)
}

func timingList(timings []domain.MealTiming) string {
	tags := make([]string, len(timings))
	for i, t := range timings {
		tags[i] = string(t)
	}
	return strings.Join(tags, ", ")
}

func mealPlanPrompt(p domain.UserNutritionProfile, timings []domain.MealTiming) string {
	var b strings.Builder

	b.WriteString("USER PROFILE:\n")
	if p.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d years\n", p.Age)
	}
	if p.WeightKg > 0 {
		fmt.Fprintf(&b, "- Weight: %.1f kg\n", p.WeightKg)
	}
	if p.HeightCm > 0 {
		fmt.Fprintf(&b, "- Height: %.1f cm\n", p.HeightCm)
	}
	if p.ActivityLevel != "" {
		fmt.Fprintf(&b, "- Activity Level: %s\n", p.ActivityLevel)
	}
	if p.Goal != "" {
		fmt.Fprintf(&b, "- Goal: %s\n", p.Goal)
	}
	b.WriteString("\n")

	b.WriteString("DAILY TARGETS:\n")
	fmt.Fprintf(&b, "- Calories: %.0f kcal\n", p.TargetCalories)
	fmt.Fprintf(&b, "- Protein: %.0f g\n", p.TargetProteinG)
	fmt.Fprintf(&b, "- Carbs: %.0f g\n", p.TargetCarbsG)
	fmt.Fprintf(&b, "- Fats: %.0f g\n", p.TargetFatsG)
	b.WriteString("\n")

	b.WriteString("MEAL STRUCTURE:\n")
	fmt.Fprintf(&b, "- Each day has exactly %d meals with these meal_timing values in this order: %s\n", len(timings), timingList(timings))
	fmt.Fprintf(&b, "- Allow meal rotation across days: %t\n", p.AllowMealRotation)
	fmt.Fprintf(&b, "- Include leftovers: %t\n", p.IncludeLeftovers)
	fmt.Fprintf(&b, "- Fixed meal times: %t\n", p.FixedMealTimes)
	b.WriteString("\n")

	b.WriteString("RESTRICTIONS:\n")
	fmt.Fprintf(&b, "- Dietary preferences: %s\n", joinOrNone(p.DietaryPreferences))
	fmt.Fprintf(&b, "- Excluded ingredients (never use): %s\n", joinOrNone(p.ExcludedIngredients))
	fmt.Fprintf(&b, "- Foods to avoid: %s\n", joinOrNone(p.FoodsToAvoid))
	fmt.Fprintf(&b, "- Allergies (never include these allergens): %s\n", allergyList(p.Allergies))
	b.WriteString("\n")

	b.WriteString("COOKING CONSTRAINTS:\n")
	if p.CookingSkillLevel != "" {
		fmt.Fprintf(&b, "- Cooking skill: %s\n", p.CookingSkillLevel)
	}
	if p.MaxCookingTimeMinutes > 0 {
		fmt.Fprintf(&b, "- Maximum prep time per meal: %d minutes\n", p.MaxCookingTimeMinutes)
	}
	fmt.Fprintf(&b, "- Kitchen equipment: %s\n", joinOrNone(p.KitchenEquipment))
	b.WriteString("\n")

	b.WriteString("TASK:\n")
	b.WriteString("Create a meal plan for exactly 7 days. day_index runs 0 to 6 with Sunday = 0.\n")
	b.WriteString("Daily totals should be close to the targets above.\n")
	b.WriteString("difficulty_level is 1 (easy) to 5 (hard). Number instruction steps from 1.\n")
	b.WriteString("dietary_category must be one of BALANCED, HIGH_PROTEIN, LOW_CARB, KETO, VEGETARIAN, VEGAN, PALEO, MEDITERRANEAN, GLUTEN_FREE, DAIRY_FREE.\n\n")
	b.WriteString("Respond with JSON in exactly this shape:\n")
	b.WriteString(planSchemaExample)
	b.WriteString("\n")
	return b.String()
}

const replacementSystemPrompt = "You are a professional nutritionist. You suggest a single replacement meal " +
	"that fits the same slot in the user's day and respects all of their restrictions. " +
	"Respond with a single JSON object only."

func optionalMacro(label string, v *float64, unit string) string {
	if v == nil {
		return fmt.Sprintf("- %s: unknown\n", label)
	}
	return fmt.Sprintf("- %s: %.0f %s\n", label, *v, unit)
}

func replacementPrompt(req domain.MealReplacementRequest) string {
	m := req.CurrentMeal
	var b strings.Builder

	b.WriteString("CURRENT MEAL:\n")
	fmt.Fprintf(&b, "- Name: %s\n", m.Name)
	fmt.Fprintf(&b, "- Meal timing: %s\n", m.MealTiming)
	if m.DietaryCategory != "" {
		fmt.Fprintf(&b, "- Dietary category: %s\n", m.DietaryCategory)
	}
	b.WriteString(optionalMacro("Calories", m.Calories, "kcal"))
	b.WriteString(optionalMacro("Protein", m.ProteinG, "g"))
	b.WriteString(optionalMacro("Carbs", m.CarbsG, "g"))
	b.WriteString(optionalMacro("Fats", m.FatsG, "g"))
	b.WriteString("\n")

	b.WriteString("RESTRICTIONS:\n")
	fmt.Fprintf(&b, "- Dietary preferences: %s\n", joinOrNone(req.DietaryPreferences))
	fmt.Fprintf(&b, "- Excluded ingredients (never use): %s\n", joinOrNone(req.ExcludedIngredients))
	fmt.Fprintf(&b, "- Allergies (never include these allergens): %s\n", allergyList(req.Allergies))
	if req.PreferredCategory != "" {
		fmt.Fprintf(&b, "- Preferred dietary category: %s\n", req.PreferredCategory)
	}
	if req.MaxPrepTimeMinutes > 0 {
		fmt.Fprintf(&b, "- Maximum prep time: %d minutes\n", req.MaxPrepTimeMinutes)
	}
	b.WriteString("\n")

	b.WriteString("TARGETS:\n")
	if req.TargetCalories > 0 {
		fmt.Fprintf(&b, "- Calories: %.0f kcal\n", req.TargetCalories)
	}
	if req.TargetProteinG > 0 {
		fmt.Fprintf(&b, "- Protein: %.0f g\n", req.TargetProteinG)
	}
	b.WriteString("\n")

	b.WriteString("TASK:\n")
	fmt.Fprintf(&b, "Suggest one different meal. It must keep meal_timing %q.\n", m.MealTiming)
	b.WriteString("Add a replacement_reason field explaining briefly why it is a good swap.\n")
	b.WriteString("Use the same meal object shape as this example, plus replacement_reason:\n")
	b.WriteString(`{"name": "", "description": "", "meal_timing": "", "dietary_category": "", "prep_time_minutes": 0, "difficulty_level": 1, "calories": 0, "protein_g": 0, "carbs_g": 0, "fats_g": 0, "fiber_g": 0, "sugar_g": 0, "sodium_mg": 0, "ingredients": [{"name": "", "quantity": 0, "unit": "", "category": ""}], "instructions": [{"step": 1, "text": ""}], "allergens": [], "portion_multiplier": 1, "replacement_reason": ""}`)
	b.WriteString("\n")
	return b.String()
}

const insightsSystemPrompt = "You are a supportive nutrition coach. You give short, specific, actionable advice."

func insightsPrompt(meals []domain.MealRecord, stats domain.InsightStats) string {
	var b strings.Builder

	b.WriteString("NUTRITION SUMMARY:\n")
	fmt.Fprintf(&b, "- Days tracked: %d\n", stats.DaysTracked)
	fmt.Fprintf(&b, "- Average daily calories: %.0f kcal\n", stats.AverageDailyCalories)
	fmt.Fprintf(&b, "- Average daily protein: %.0f g\n", stats.AverageDailyProteinG)
	fmt.Fprintf(&b, "- Days within calorie goal: %.0f%%\n", stats.GoalAchievementPercentage)
	fmt.Fprintf(&b, "- Processed food share: %.0f%%\n", stats.ProcessedFoodPercentage)
	b.WriteString("\n")

	if len(meals) > 0 {
		b.WriteString("RECENT MEALS:\n")
		limit := len(meals)
		if limit > 20 {
			limit = 20
		}
		for _, m := range meals[:limit] {
			fmt.Fprintf(&b, "- %s: %.0f kcal, %.0f g protein, %.0f g carbs, %.0f g fat\n",
				m.Name, m.Calories, m.Protein, m.Carbs, m.Fat)
		}
		b.WriteString("\n")
	}

	b.WriteString("Give 3 to 5 short, actionable insights based on this data. ")
	b.WriteString("Respond with a JSON array of strings only.\n")
	return b.String()
}
