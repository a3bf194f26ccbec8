package domain

import "time"

type MealTiming string

const (
	Breakfast      MealTiming = "BREAKFAST"
	Lunch          MealTiming = "LUNCH"
	Dinner         MealTiming = "DINNER"
	MorningSnack   MealTiming = "MORNING_SNACK"
	AfternoonSnack MealTiming = "AFTERNOON_SNACK"
	EveningSnack   MealTiming = "EVENING_SNACK"
)

func (t MealTiming) Valid() bool {
	switch t {
	case Breakfast, Lunch, Dinner, MorningSnack, AfternoonSnack, EveningSnack:
		return true
	}
	return false
}

// IsSnack reports whether the slot is one of the snack timings.
func (t MealTiming) IsSnack() bool {
	return t == MorningSnack || t == AfternoonSnack || t == EveningSnack
}

type DietaryCategory string

const (
	Balanced      DietaryCategory = "BALANCED"
	HighProtein   DietaryCategory = "HIGH_PROTEIN"
	LowCarb       DietaryCategory = "LOW_CARB"
	Keto          DietaryCategory = "KETO"
	Vegetarian    DietaryCategory = "VEGETARIAN"
	Vegan         DietaryCategory = "VEGAN"
	Paleo         DietaryCategory = "PALEO"
	Mediterranean DietaryCategory = "MEDITERRANEAN"
	GlutenFree    DietaryCategory = "GLUTEN_FREE"
	DairyFree     DietaryCategory = "DAIRY_FREE"
)

func (c DietaryCategory) Valid() bool {
	switch c {
	case Balanced, HighProtein, LowCarb, Keto, Vegetarian, Vegan, Paleo, Mediterranean, GlutenFree, DairyFree:
		return true
	}
	return false
}

// DayNames indexes weekday names by day_index, Sunday first.
var DayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// NutritionEstimate is the result of analysing a single meal photo.
type NutritionEstimate struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Calories      float64  `json:"calories"`
	Protein       float64  `json:"protein"`
	Carbs         float64  `json:"carbs"`
	Fat           float64  `json:"fat"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
	Confidence    float64  `json:"confidence"`
	Ingredients   []string `json:"ingredients"`
	ServingSize   string   `json:"servingSize"`
	CookingMethod string   `json:"cookingMethod"`
	HealthNotes   string   `json:"healthNotes"`
	IsFallback    bool     `json:"isFallback"`
}

type Allergy struct {
	Name     string `json:"name" validate:"required"`
	Severity string `json:"severity,omitempty"`
}

type UserNutritionProfile struct {
	Age                   int       `json:"age" validate:"gte=0,lte=130"`
	WeightKg              float64   `json:"weight_kg" validate:"gte=0"`
	HeightCm              float64   `json:"height_cm" validate:"gte=0"`
	TargetCalories        float64   `json:"target_calories" validate:"gte=0"`
	TargetProteinG        float64   `json:"target_protein_g" validate:"gte=0"`
	TargetCarbsG          float64   `json:"target_carbs_g" validate:"gte=0"`
	TargetFatsG           float64   `json:"target_fats_g" validate:"gte=0"`
	MealsPerDay           int       `json:"meals_per_day" validate:"gte=0,lte=3"`
	SnacksPerDay          int       `json:"snacks_per_day" validate:"gte=0,lte=3"`
	AllowMealRotation     bool      `json:"allow_meal_rotation"`
	IncludeLeftovers      bool      `json:"include_leftovers"`
	FixedMealTimes        bool      `json:"fixed_meal_times"`
	DietaryPreferences    []string  `json:"dietary_preferences"`
	ExcludedIngredients   []string  `json:"excluded_ingredients"`
	FoodsToAvoid          []string  `json:"foods_to_avoid"`
	Allergies             []Allergy `json:"allergies" validate:"dive"`
	ActivityLevel         string    `json:"activity_level"`
	Goal                  string    `json:"goal"`
	CookingSkillLevel     string    `json:"cooking_skill_level"`
	MaxCookingTimeMinutes int       `json:"max_cooking_time_minutes" validate:"gte=0"`
	KitchenEquipment      []string  `json:"kitchen_equipment"`
}

type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

type InstructionStep struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

type PlannedMeal struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	MealTiming        MealTiming        `json:"meal_timing"`
	DietaryCategory   DietaryCategory   `json:"dietary_category"`
	PrepTimeMinutes   int               `json:"prep_time_minutes"`
	DifficultyLevel   int               `json:"difficulty_level"`
	Calories          float64           `json:"calories"`
	ProteinG          float64           `json:"protein_g"`
	CarbsG            float64           `json:"carbs_g"`
	FatsG             float64           `json:"fats_g"`
	FiberG            float64           `json:"fiber_g"`
	SugarG            float64           `json:"sugar_g"`
	SodiumMg          float64           `json:"sodium_mg"`
	Ingredients       []Ingredient      `json:"ingredients"`
	Instructions      []InstructionStep `json:"instructions"`
	Allergens         []string          `json:"allergens"`
	ImageURL          string            `json:"image_url"`
	PortionMultiplier float64           `json:"portion_multiplier"`
	IsOptional        bool              `json:"is_optional"`
}

type DayPlan struct {
	Day      string        `json:"day"`
	DayIndex int           `json:"day_index"`
	Meals    []PlannedMeal `json:"meals"`
}

type WeeklySummary struct {
	AverageCalories         float64 `json:"average_calories"`
	AverageProteinG         float64 `json:"average_protein_g"`
	AverageCarbsG           float64 `json:"average_carbs_g"`
	AverageFatsG            float64 `json:"average_fats_g"`
	GoalAdherencePercentage float64 `json:"goal_adherence_percentage"`
}

type WeeklyMealPlan struct {
	WeeklyPlan   []DayPlan     `json:"weekly_plan"`
	Summary      WeeklySummary `json:"weekly_nutrition_summary"`
	ShoppingTips []string      `json:"shopping_tips"`
	MealPrepTips []string      `json:"meal_prep_tips"`
	IsFallback   bool          `json:"is_fallback"`
}

// CurrentMeal describes the meal a user wants swapped out. Unset macros are nil.
type CurrentMeal struct {
	Name            string          `json:"name" validate:"required"`
	MealTiming      MealTiming      `json:"meal_timing" validate:"required,oneof=BREAKFAST LUNCH DINNER MORNING_SNACK AFTERNOON_SNACK EVENING_SNACK"`
	DietaryCategory DietaryCategory `json:"dietary_category"`
	Calories        *float64        `json:"calories,omitempty" validate:"omitempty,gte=0"`
	ProteinG        *float64        `json:"protein_g,omitempty" validate:"omitempty,gte=0"`
	CarbsG          *float64        `json:"carbs_g,omitempty" validate:"omitempty,gte=0"`
	FatsG           *float64        `json:"fats_g,omitempty" validate:"omitempty,gte=0"`
}

type MealReplacementRequest struct {
	CurrentMeal         CurrentMeal     `json:"current_meal"`
	DietaryPreferences  []string        `json:"dietary_preferences"`
	ExcludedIngredients []string        `json:"excluded_ingredients"`
	Allergies           []Allergy       `json:"allergies" validate:"dive"`
	PreferredCategory   DietaryCategory `json:"preferred_category"`
	MaxPrepTimeMinutes  int             `json:"max_prep_time_minutes" validate:"gte=0"`
	TargetCalories      float64         `json:"target_calories" validate:"gte=0"`
	TargetProteinG      float64         `json:"target_protein_g" validate:"gte=0"`
}

type MealReplacementResult struct {
	PlannedMeal
	ReplacementReason string `json:"replacement_reason"`
	IsFallback        bool   `json:"is_fallback"`
}

// MealRecord is the slimmed-down meal history handed to insight generation.
type MealRecord struct {
	Name     string    `json:"name"`
	Calories float64   `json:"calories"`
	Protein  float64   `json:"protein"`
	Carbs    float64   `json:"carbs"`
	Fat      float64   `json:"fat"`
	LoggedAt time.Time `json:"logged_at"`
}

type InsightStats struct {
	DaysTracked               int     `json:"days_tracked"`
	AverageDailyCalories      float64 `json:"average_daily_calories"`
	AverageDailyProteinG      float64 `json:"average_daily_protein_g"`
	GoalAchievementPercentage float64 `json:"goal_achievement_percentage"`
	ProcessedFoodPercentage   float64 `json:"processed_food_percentage"`
}
