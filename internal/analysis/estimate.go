package analysis

import (
	"context"
	"strings"

	"github.com/vbonduro/platewise/internal/domain"
	"github.com/vbonduro/platewise/internal/llm"
)

const (
	defaultLanguage      = "english"
	defaultFoodName      = "Unknown Food"
	defaultServingSize   = "1 serving"
	defaultCookingMethod = "unknown"
	defaultHealthNotes   = "No additional notes."
	defaultConfidence    = 50
)

type estimatePayload struct {
	Name          flexString  `json:"name"`
	Description   flexString  `json:"description"`
	Calories      flexNumber  `json:"calories"`
	Protein       flexNumber  `json:"protein"`
	Carbs         flexNumber  `json:"carbs"`
	Fat           flexNumber  `json:"fat"`
	Fiber         flexNumber  `json:"fiber"`
	Sugar         flexNumber  `json:"sugar"`
	Sodium        flexNumber  `json:"sodium"`
	Confidence    flexNumber  `json:"confidence"`
	Ingredients   flexStrings `json:"ingredients"`
	ServingSize   flexString  `json:"servingSize"`
	CookingMethod flexString  `json:"cookingMethod"`
	HealthNotes   flexString  `json:"healthNotes"`

	// Snake-case spellings some models prefer.
	ServingSizeAlt   flexString `json:"serving_size"`
	CookingMethodAlt flexString `json:"cooking_method"`
	HealthNotesAlt   flexString `json:"health_notes"`
}

func optional(n flexNumber, base *float64) *float64 {
	if n.present() {
		return ptr(nonNegative(n.value))
	}
	if base == nil {
		return nil
	}
	return ptr(nonNegative(*base))
}

// merge overlays the fields present in p onto base.
func (p estimatePayload) merge(base domain.NutritionEstimate) domain.NutritionEstimate {
	out := domain.NutritionEstimate{
		Name:          p.Name.or(base.Name),
		Description:   p.Description.or(base.Description),
		Calories:      nonNegative(p.Calories.or(base.Calories)),
		Protein:       nonNegative(p.Protein.or(base.Protein)),
		Carbs:         nonNegative(p.Carbs.or(base.Carbs)),
		Fat:           nonNegative(p.Fat.or(base.Fat)),
		Fiber:         optional(p.Fiber, base.Fiber),
		Sugar:         optional(p.Sugar, base.Sugar),
		Sodium:        optional(p.Sodium, base.Sodium),
		Confidence:    clamp(p.Confidence.or(base.Confidence), 0, 100),
		Ingredients:   p.Ingredients.or(base.Ingredients),
		ServingSize:   p.ServingSize.or(p.ServingSizeAlt.or(base.ServingSize)),
		CookingMethod: p.CookingMethod.or(p.CookingMethodAlt.or(base.CookingMethod)),
		HealthNotes:   p.HealthNotes.or(p.HealthNotesAlt.or(base.HealthNotes)),
	}
	return withDefaults(out)
}

// withDefaults fills blank text fields and enforces the value invariants:
// nutrients are never negative and confidence is within [0,100].
func withDefaults(e domain.NutritionEstimate) domain.NutritionEstimate {
	e.Calories = nonNegative(e.Calories)
	e.Protein = nonNegative(e.Protein)
	e.Carbs = nonNegative(e.Carbs)
	e.Fat = nonNegative(e.Fat)
	e.Fiber = optional(flexNumber{}, e.Fiber)
	e.Sugar = optional(flexNumber{}, e.Sugar)
	e.Sodium = optional(flexNumber{}, e.Sodium)
	e.Confidence = clamp(e.Confidence, 0, 100)
	if strings.TrimSpace(e.Name) == "" {
		e.Name = defaultFoodName
	}
	if strings.TrimSpace(e.ServingSize) == "" {
		e.ServingSize = defaultServingSize
	}
	if strings.TrimSpace(e.CookingMethod) == "" {
		e.CookingMethod = defaultCookingMethod
	}
	if strings.TrimSpace(e.HealthNotes) == "" {
		e.HealthNotes = defaultHealthNotes
	}
	if e.Ingredients == nil {
		e.Ingredients = []string{}
	}
	return e
}

// parseEstimate extracts the first JSON object from reply and merges it onto
// base. An object that decodes is always accepted; bad fields are defaulted.
func parseEstimate(reply string, base domain.NutritionEstimate) (domain.NutritionEstimate, error) {
	p, err := decodeObject[estimatePayload](reply, "estimate")
	if err != nil {
		return domain.NutritionEstimate{}, err
	}
	return p.merge(base), nil
}

func languageOr(language string) string {
	if l := strings.TrimSpace(language); l != "" {
		return l
	}
	return defaultLanguage
}

// AnalyzeImage estimates the nutrition of the meal in image. updateText is
// optional user context such as "I added extra cheese".
func (a *Adapter) AnalyzeImage(ctx context.Context, image llm.Image, language, updateText string) domain.NutritionEstimate {
	language = languageOr(language)

	reply, err := a.complete(ctx, OpAnalyzeImage, estimateSystemPrompt(language), analyzeImagePrompt(updateText), &image)
	if err == nil {
		var est domain.NutritionEstimate
		est, err = parseEstimate(reply, domain.NutritionEstimate{Confidence: defaultConfidence})
		if err == nil {
			return est
		}
	}

	a.fellBack(ctx, OpAnalyzeImage, err)
	return fallbackEstimate(image.Data)
}

// UpdateAnalysis revises original in light of updateText. Any field the model
// leaves out keeps the original's value.
func (a *Adapter) UpdateAnalysis(ctx context.Context, original domain.NutritionEstimate, updateText, language string) domain.NutritionEstimate {
	language = languageOr(language)
	base := withDefaults(cloneEstimate(original))
	base.IsFallback = false

	reply, err := a.complete(ctx, OpUpdateAnalysis, estimateSystemPrompt(language), updateAnalysisPrompt(base, updateText), nil)
	if err == nil {
		var est domain.NutritionEstimate
		est, err = parseEstimate(reply, base)
		if err == nil {
			return est
		}
	}

	a.fellBack(ctx, OpUpdateAnalysis, err)
	return fallbackUpdate(base, updateText)
}
