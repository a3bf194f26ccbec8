package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/platewise/internal/domain"
	"github.com/vbonduro/platewise/internal/llm"
)

func testEstimate() domain.NutritionEstimate {
	return domain.NutritionEstimate{
		Name:          "Chicken Burrito",
		Description:   "Flour tortilla with chicken and rice.",
		Calories:      455,
		Protein:       21,
		Carbs:         33,
		Fat:           17,
		Fiber:         ptr(5),
		Confidence:    72,
		Ingredients:   []string{"tortilla", "chicken", "rice"},
		ServingSize:   "1 burrito",
		CookingMethod: "grilled",
		HealthNotes:   "Moderate sodium.",
	}
}

func assertEstimateInvariants(t *testing.T, e domain.NutritionEstimate) {
	t.Helper()
	assert.GreaterOrEqual(t, e.Confidence, 0.0)
	assert.LessOrEqual(t, e.Confidence, 100.0)
	for _, v := range []float64{e.Calories, e.Protein, e.Carbs, e.Fat} {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	for _, v := range []*float64{e.Fiber, e.Sugar, e.Sodium} {
		if v != nil {
			assert.GreaterOrEqual(t, *v, 0.0)
		}
	}
	assert.NotEmpty(t, e.Name)
	assert.NotNil(t, e.Ingredients)
}

func TestAnalyzeImageNoCredential(t *testing.T) {
	a := newTestAdapter(nil)
	img := llm.Image{Data: []byte("a photo of lunch"), MimeType: "image/jpeg"}

	got := a.AnalyzeImage(context.Background(), img, "", "")
	assert.True(t, got.IsFallback)
	assert.Equal(t, float64(fallbackConfidence), got.Confidence)
	assertEstimateInvariants(t, got)

	again := a.AnalyzeImage(context.Background(), img, "spanish", "note")
	assert.Equal(t, got, again, "fallback must be deterministic for the same image")
}

func TestAnalyzeImageFallbackDoesNotShareCatalogSlices(t *testing.T) {
	a := newTestAdapter(nil)
	img := llm.Image{Data: []byte("x")}

	got := a.AnalyzeImage(context.Background(), img, "", "")
	got.Ingredients[0] = "mutated"
	*got.Fiber = 999

	again := a.AnalyzeImage(context.Background(), img, "", "")
	assert.NotEqual(t, "mutated", again.Ingredients[0])
	assert.NotEqual(t, 999.0, *again.Fiber)
}

func TestAnalyzeImageLive(t *testing.T) {
	model := &stubModel{reply: "Here you go:\n" + `{
		"name": "Margherita Pizza",
		"description": "Two slices of thin-crust pizza.",
		"calories": 540, "protein": 22, "carbs": 64, "fat": 20,
		"fiber": 3, "sugar": 6, "sodium": 980,
		"confidence": 85,
		"ingredients": ["dough", "tomato", "mozzarella", "basil"],
		"servingSize": "2 slices",
		"cookingMethod": "baked",
		"healthNotes": "High in sodium."
	}` + "\nEnjoy!"}
	a := newTestAdapter(model)

	img := llm.Image{Data: []byte{0xFF, 0xD8}, MimeType: "image/jpeg"}
	got := a.AnalyzeImage(context.Background(), img, "french", "I added extra cheese")

	require.Equal(t, 1, model.calls)
	assert.Contains(t, model.last.System, "french")
	assert.Contains(t, model.last.Prompt, "I added extra cheese")
	require.NotNil(t, model.last.Image)
	assert.Equal(t, img.Data, model.last.Image.Data)

	assert.False(t, got.IsFallback)
	assert.Equal(t, "Margherita Pizza", got.Name)
	assert.Equal(t, 540.0, got.Calories)
	assert.Equal(t, 85.0, got.Confidence)
	require.NotNil(t, got.Sodium)
	assert.Equal(t, 980.0, *got.Sodium)
	assert.Equal(t, []string{"dough", "tomato", "mozzarella", "basil"}, got.Ingredients)
	assert.Equal(t, "baked", got.CookingMethod)
}

func TestAnalyzeImageDefaultsLanguage(t *testing.T) {
	model := &stubModel{reply: "{}"}
	a := newTestAdapter(model)

	a.AnalyzeImage(context.Background(), llm.Image{Data: []byte{1}}, "  ", "")
	assert.Contains(t, model.last.System, "english")
	assert.NotContains(t, model.last.Prompt, "ADDITIONAL CONTEXT")
}

func TestAnalyzeImageAdversarialFields(t *testing.T) {
	model := &stubModel{reply: `{
		"name": "",
		"calories": -120,
		"protein": "12.5 g",
		"carbs": "lots",
		"fat": null,
		"fiber": -3,
		"sugar": "n/a",
		"confidence": 250,
		"ingredients": ["rice", {"name": "beans"}, "", 5],
		"servingSize": 3
	}`}
	a := newTestAdapter(model)

	got := a.AnalyzeImage(context.Background(), llm.Image{Data: []byte{1}}, "", "")
	assert.False(t, got.IsFallback)
	assertEstimateInvariants(t, got)

	assert.Equal(t, defaultFoodName, got.Name)
	assert.Equal(t, 0.0, got.Calories)
	assert.Equal(t, 12.5, got.Protein)
	assert.Equal(t, 0.0, got.Carbs)
	assert.Equal(t, 0.0, got.Fat)
	require.NotNil(t, got.Fiber)
	assert.Equal(t, 0.0, *got.Fiber)
	assert.Nil(t, got.Sugar)
	assert.Nil(t, got.Sodium)
	assert.Equal(t, 100.0, got.Confidence)
	assert.Equal(t, []string{"rice", "beans", "5"}, got.Ingredients)
	assert.Equal(t, "3", got.ServingSize)
	assert.Equal(t, defaultCookingMethod, got.CookingMethod)
	assert.Equal(t, defaultHealthNotes, got.HealthNotes)
}

func TestAnalyzeImageMissingConfidenceDefaults(t *testing.T) {
	model := &stubModel{reply: `{"name": "Apple", "calories": 95, "confidence": -10}`}
	got := newTestAdapter(model).AnalyzeImage(context.Background(), llm.Image{Data: []byte{1}}, "", "")
	assert.Equal(t, 0.0, got.Confidence)

	model.reply = `{"name": "Apple", "calories": 95}`
	got = newTestAdapter(model).AnalyzeImage(context.Background(), llm.Image{Data: []byte{1}}, "", "")
	assert.Equal(t, float64(defaultConfidence), got.Confidence)
	assert.Equal(t, defaultServingSize, got.ServingSize)
}

func TestAnalyzeImageFallsBack(t *testing.T) {
	img := llm.Image{Data: []byte("same photo")}
	want := newTestAdapter(nil).AnalyzeImage(context.Background(), img, "", "")

	tests := []struct {
		name  string
		model *stubModel
	}{
		{"transport error", &stubModel{err: errors.New("timeout")}},
		{"no JSON", &stubModel{reply: "I cannot see any food in this image."}},
		{"invalid JSON", &stubModel{reply: `{"name": "Toast", "calories": }`}},
		{"unterminated", &stubModel{reply: `{"name": "Toast"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestAdapter(tt.model).AnalyzeImage(context.Background(), img, "", "")
			assert.Equal(t, want, got)
			assert.Equal(t, 1, tt.model.calls)
		})
	}
}

func TestUpdateAnalysisLiveCarriesFieldsForward(t *testing.T) {
	model := &stubModel{reply: `{"calories": 650, "fat": 25, "healthNotes": ""}`}
	a := newTestAdapter(model)
	orig := testEstimate()

	got := a.UpdateAnalysis(context.Background(), orig, "it had extra sour cream", "")

	assert.Contains(t, model.last.Prompt, `"name": "Chicken Burrito"`)
	assert.Contains(t, model.last.Prompt, "it had extra sour cream")
	assert.Nil(t, model.last.Image)

	assert.False(t, got.IsFallback)
	assert.Equal(t, 650.0, got.Calories)
	assert.Equal(t, 25.0, got.Fat)
	assert.Equal(t, orig.Name, got.Name)
	assert.Equal(t, orig.Description, got.Description)
	assert.Equal(t, orig.Protein, got.Protein)
	assert.Equal(t, orig.Carbs, got.Carbs)
	assert.Equal(t, orig.Confidence, got.Confidence)
	assert.Equal(t, orig.Ingredients, got.Ingredients)
	assert.Equal(t, orig.Fiber, got.Fiber)
	assert.Equal(t, orig.HealthNotes, got.HealthNotes)
}

func TestUpdateAnalysisDoesNotMutateOriginal(t *testing.T) {
	orig := testEstimate()
	snapshot := cloneEstimate(orig)

	got := newTestAdapter(nil).UpdateAnalysis(context.Background(), orig, "more", "")
	got.Ingredients[0] = "changed"

	assert.Equal(t, snapshot, orig)
}

func TestUpdateAnalysisFallbackHeuristic(t *testing.T) {
	orig := testEstimate()
	scaled := func(factor float64) [4]float64 {
		return [4]float64{
			math.Round(orig.Calories * factor),
			math.Round(orig.Protein * factor),
			math.Round(orig.Carbs * factor),
			math.Round(orig.Fat * factor),
		}
	}
	unchanged := [4]float64{orig.Calories, orig.Protein, orig.Carbs, orig.Fat}

	tests := []struct {
		text       string
		wantMacros [4]float64
		wantName   string
		wantDesc   string
	}{
		{"give me more", scaled(1.3), orig.Name + " (Extra Portion)", orig.Description + " Adjusted for a larger portion."},
		{"EXTRA rice!", scaled(1.3), orig.Name + " (Extra Portion)", orig.Description + " Adjusted for a larger portion."},
		{"additional guac", scaled(1.3), orig.Name + " (Extra Portion)", orig.Description + " Adjusted for a larger portion."},
		{"a smaller portion", scaled(0.7), orig.Name + " (Smaller Portion)", orig.Description + " Adjusted for a smaller portion."},
		{"I ate less", scaled(0.7), orig.Name + " (Smaller Portion)", orig.Description + " Adjusted for a smaller portion."},
		{"less rice but more beans", scaled(1.3), orig.Name + " (Extra Portion)", orig.Description + " Adjusted for a larger portion."},
		{"it had cheese", unchanged, orig.Name, orig.Description + " Update: it had cheese"},
		{"moreover, unless noted", unchanged, orig.Name, orig.Description + " Update: moreover, unless noted"},
	}

	a := newTestAdapter(nil)
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := a.UpdateAnalysis(context.Background(), orig, tt.text, "")
			assert.True(t, got.IsFallback)
			assert.Equal(t, tt.wantMacros, [4]float64{got.Calories, got.Protein, got.Carbs, got.Fat})
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantDesc, got.Description)
			assert.Equal(t, orig.Confidence, got.Confidence)
		})
	}
}

func TestUpdateAnalysisFallbackOnMalformedReply(t *testing.T) {
	orig := testEstimate()
	want := newTestAdapter(nil).UpdateAnalysis(context.Background(), orig, "a smaller portion", "")

	model := &stubModel{reply: "Sorry, I can't help with that."}
	got := newTestAdapter(model).UpdateAnalysis(context.Background(), orig, "a smaller portion", "")
	assert.Equal(t, want, got)
}

func TestUpdateAnalysisFallbackEmptyDescription(t *testing.T) {
	orig := testEstimate()
	orig.Description = ""

	got := newTestAdapter(nil).UpdateAnalysis(context.Background(), orig, "extra", "")
	assert.Equal(t, "Adjusted for a larger portion.", got.Description)
}

func TestUpdateAnalysisFallbackEnforcesInvariants(t *testing.T) {
	orig := testEstimate()
	orig.Calories = -100
	orig.Fat = -4
	orig.Sodium = ptr(-20)
	orig.Confidence = 500

	got := newTestAdapter(nil).UpdateAnalysis(context.Background(), orig, "more please", "")
	assert.True(t, got.IsFallback)
	assertEstimateInvariants(t, got)
	assert.Equal(t, 0.0, got.Calories)
	assert.Equal(t, 0.0, got.Fat)
	assert.Equal(t, math.Round(orig.Protein*1.3), got.Protein)
	assert.Equal(t, 100.0, got.Confidence)
}

func TestUpdateAnalysisFallbackDoesNotStackPortionMarks(t *testing.T) {
	a := newTestAdapter(nil)
	orig := testEstimate()

	once := a.UpdateAnalysis(context.Background(), orig, "extra", "")
	twice := a.UpdateAnalysis(context.Background(), once, "more", "")
	assert.Equal(t, orig.Name+" (Extra Portion)", twice.Name)
	assert.Equal(t, orig.Description+" Adjusted for a larger portion.", twice.Description)

	smaller := a.UpdateAnalysis(context.Background(), twice, "a smaller one", "")
	assert.Equal(t, orig.Name+" (Smaller Portion)", smaller.Name)
	assert.Equal(t, orig.Description+" Adjusted for a smaller portion.", smaller.Description)
	assert.Equal(t, math.Round(twice.Calories*0.7), smaller.Calories)
}

func TestAnalyzeImageSkipsUndecodableBraces(t *testing.T) {
	model := &stubModel{reply: `I estimated {roughly} this: {"name": "Pizza", "calories": 800, "confidence": 70}`}
	got := newTestAdapter(model).AnalyzeImage(context.Background(), llm.Image{Data: []byte{1}, MimeType: "image/jpeg"}, "", "")

	assert.False(t, got.IsFallback)
	assert.Equal(t, "Pizza", got.Name)
	assert.Equal(t, 800.0, got.Calories)
}
