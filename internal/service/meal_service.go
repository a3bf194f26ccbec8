package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vbonduro/platewise/internal/domain"
	"github.com/vbonduro/platewise/internal/llm"
	"github.com/vbonduro/platewise/internal/photostore"
	"github.com/vbonduro/platewise/internal/store"
)

var (
	ErrMealNotFound  = errors.New("meal not found")
	ErrPhotoNotFound = errors.New("photo not found")
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
	photoKeyPrefix   = "meal"
)

// mealRepository is the subset of store.MealStore that MealService requires.
type mealRepository interface {
	Create(ctx context.Context, photoKey, mimeType, language string, est domain.NutritionEstimate) (*domain.MealEntry, error)
	GetByID(ctx context.Context, id int64) (*domain.MealEntry, error)
	List(ctx context.Context, limit int) ([]*domain.MealEntry, error)
	ListSince(ctx context.Context, since time.Time) ([]*domain.MealEntry, error)
	UpdateEstimate(ctx context.Context, id int64, est domain.NutritionEstimate) (*domain.MealEntry, error)
	Delete(ctx context.Context, id int64) error
}

// planRepository is the subset of store.PlanStore that MealService requires.
type planRepository interface {
	Create(ctx context.Context, profile domain.UserNutritionProfile, plan domain.WeeklyMealPlan) (*domain.StoredPlan, error)
	Latest(ctx context.Context) (*domain.StoredPlan, error)
}

// nutritionAnalyzer is implemented by analysis.Adapter. Every call yields a
// usable result, so none of them return errors.
type nutritionAnalyzer interface {
	Live() bool
	BreakerState() string
	AnalyzeImage(ctx context.Context, image llm.Image, language, updateText string) domain.NutritionEstimate
	UpdateAnalysis(ctx context.Context, original domain.NutritionEstimate, updateText, language string) domain.NutritionEstimate
	GenerateMealPlan(ctx context.Context, profile domain.UserNutritionProfile) domain.WeeklyMealPlan
	GenerateReplacementMeal(ctx context.Context, req domain.MealReplacementRequest) domain.MealReplacementResult
	GenerateInsights(ctx context.Context, meals []domain.MealRecord, stats domain.InsightStats) []string
}

type MealService struct {
	meals    mealRepository
	plans    planRepository
	analyzer nutritionAnalyzer
	photoStg photostore.PhotoStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewMealService(
	meals mealRepository,
	plans planRepository,
	analyzer nutritionAnalyzer,
	photoStg photostore.PhotoStore,
	logger *slog.Logger,
) *MealService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MealService{
		meals:    meals,
		plans:    plans,
		analyzer: analyzer,
		photoStg: photoStg,
		logger:   logger,
		now:      time.Now,
	}
}

// ModelLive reports whether a language model backs the analyzer.
func (s *MealService) ModelLive() bool {
	return s.analyzer.Live()
}

// BreakerState is empty unless the model sits behind a circuit breaker.
func (s *MealService) BreakerState() string {
	return s.analyzer.BreakerState()
}

// LogMeal estimates the nutrition in the photo, stores the image and records
// the meal. The photo is removed again if the meal cannot be recorded.
func (s *MealService) LogMeal(ctx context.Context, imageData []byte, mimeType, language, note string) (*domain.MealEntry, error) {
	s.logger.Info("log meal started", "mime_type", mimeType, "bytes", len(imageData))

	est := s.analyzer.AnalyzeImage(ctx, llm.Image{Data: imageData, MimeType: mimeType}, language, note)
	s.logger.Info("meal analysed", "name", est.Name, "calories", est.Calories, "is_fallback", est.IsFallback)

	storageKey, err := s.photoStg.Save(ctx, photoKeyPrefix, mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "storage_key", storageKey)

	entry, err := s.meals.Create(ctx, storageKey, mimeType, language, est)
	if err != nil {
		if delErr := s.photoStg.Delete(ctx, storageKey); delErr != nil {
			s.logger.Error("failed to remove photo after insert error", "storage_key", storageKey, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create meal record: %w", err)
	}

	s.logger.Info("log meal complete", "meal_id", entry.ID)
	return entry, nil
}

// ReviseMeal applies the user's correction to a logged meal's estimate. A
// blank language keeps the one the meal was logged with.
func (s *MealService) ReviseMeal(ctx context.Context, id int64, updateText, language string) (*domain.MealEntry, error) {
	entry, err := s.meals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	if entry == nil {
		return nil, ErrMealNotFound
	}
	if language == "" {
		language = entry.Language
	}

	revised := s.analyzer.UpdateAnalysis(ctx, entry.Estimate, updateText, language)

	updated, err := s.meals.UpdateEstimate(ctx, id, revised)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}
	s.logger.Info("meal revised", "meal_id", id, "is_fallback", revised.IsFallback)
	return updated, nil
}

func (s *MealService) GetMeal(ctx context.Context, id int64) (*domain.MealEntry, error) {
	return s.meals.GetByID(ctx, id)
}

// ListMeals returns the newest meals first. Out of range limits fall back to
// the default page size.
func (s *MealService) ListMeals(ctx context.Context, limit int) ([]*domain.MealEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.meals.List(ctx, limit)
}

func (s *MealService) DeleteMeal(ctx context.Context, id int64) error {
	entry, err := s.meals.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get meal: %w", err)
	}
	if entry == nil {
		return ErrMealNotFound
	}

	if err := s.meals.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMealNotFound
		}
		return fmt.Errorf("failed to delete meal: %w", err)
	}

	if entry.PhotoKey != "" {
		if err := s.photoStg.Delete(ctx, entry.PhotoKey); err != nil {
			s.logger.Error("failed to delete photo", "meal_id", id, "storage_key", entry.PhotoKey, "error", err)
		}
	}
	return nil
}

// OpenPhoto returns the stored image for a meal. The caller must close the reader.
func (s *MealService) OpenPhoto(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	entry, err := s.meals.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get meal: %w", err)
	}
	if entry == nil {
		return nil, "", ErrMealNotFound
	}
	if entry.PhotoKey == "" {
		return nil, "", ErrPhotoNotFound
	}

	rc, mimeType, err := s.photoStg.Get(ctx, entry.PhotoKey)
	if errors.Is(err, photostore.ErrNotFound) {
		return nil, "", ErrPhotoNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open photo: %w", err)
	}
	if entry.MimeType != "" {
		mimeType = entry.MimeType
	}
	return rc, mimeType, nil
}

func (s *MealService) GeneratePlan(ctx context.Context, profile domain.UserNutritionProfile) (*domain.StoredPlan, error) {
	plan := s.analyzer.GenerateMealPlan(ctx, profile)

	stored, err := s.plans.Create(ctx, profile, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to store meal plan: %w", err)
	}
	s.logger.Info("meal plan generated", "plan_id", stored.ID, "is_fallback", plan.IsFallback)
	return stored, nil
}

// LatestPlan returns nil when no plan has been generated yet.
func (s *MealService) LatestPlan(ctx context.Context) (*domain.StoredPlan, error) {
	return s.plans.Latest(ctx)
}

func (s *MealService) ReplaceMeal(ctx context.Context, req domain.MealReplacementRequest) domain.MealReplacementResult {
	return s.analyzer.GenerateReplacementMeal(ctx, req)
}
