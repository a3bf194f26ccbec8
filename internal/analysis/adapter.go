package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/platewise/internal/llm"
	"github.com/vbonduro/platewise/internal/metrics"
)

// Operation names label logs and metrics.
type Operation string

const (
	OpAnalyzeImage     Operation = "analyze_image"
	OpUpdateAnalysis   Operation = "update_analysis"
	OpGenerateMealPlan Operation = "generate_meal_plan"
	OpReplacementMeal  Operation = "generate_replacement_meal"
	OpGenerateInsights Operation = "generate_insights"
)

// ModelParams bounds a single model call.
type ModelParams struct {
	MaxTokens   int
	Temperature float64
}

var defaultParams = map[Operation]ModelParams{
	OpAnalyzeImage:     {MaxTokens: 1000, Temperature: 0.1},
	OpUpdateAnalysis:   {MaxTokens: 1000, Temperature: 0.1},
	OpGenerateMealPlan: {MaxTokens: 8000, Temperature: 0.3},
	OpReplacementMeal:  {MaxTokens: 1500, Temperature: 0.5},
	OpGenerateInsights: {MaxTokens: 500, Temperature: 0.7},
}

// Adapter turns photos, profiles and meal history into typed nutrition
// results. Every public method returns a usable value: when the model is
// absent or its reply cannot be used, a deterministic fallback is returned
// with its fallback flag set. Each call makes at most one model request and
// never retries.
type Adapter struct {
	model   llm.Completer
	logger  *slog.Logger
	metrics *metrics.Recorder
	params  map[Operation]ModelParams
}

type Option func(*Adapter)

func WithMetrics(m *metrics.Recorder) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithModelParams overrides the token budget and temperature for one operation.
func WithModelParams(op Operation, p ModelParams) Option {
	return func(a *Adapter) { a.params[op] = p }
}

// NewAdapter builds an adapter around model. A nil model means no credential
// is configured and every operation goes straight to its fallback.
func NewAdapter(model llm.Completer, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		model:  model,
		logger: logger,
		params: make(map[Operation]ModelParams, len(defaultParams)),
	}
	for op, p := range defaultParams {
		a.params[op] = p
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Live reports whether a model backend is configured.
func (a *Adapter) Live() bool {
	return a.model != nil
}

// BreakerState reports the model circuit breaker state, or "" when the model
// is not behind a breaker.
func (a *Adapter) BreakerState() string {
	if b, ok := a.model.(interface{ State() string }); ok {
		return b.State()
	}
	return ""
}

// complete issues the single model call for op and classifies failures.
func (a *Adapter) complete(ctx context.Context, op Operation, system, prompt string, image *llm.Image) (string, error) {
	if a.model == nil {
		return "", ErrNoCredential
	}
	p := a.params[op]

	start := time.Now()
	text, err := a.model.Complete(ctx, llm.Request{
		System:      system,
		Prompt:      prompt,
		Image:       image,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.ModelCall(string(op), "error", elapsed)
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	a.metrics.ModelCall(string(op), "ok", elapsed)
	a.logger.Debug("model call completed", "operation", op, "duration_ms", elapsed.Milliseconds(), "response_length", len(text))
	return text, nil
}

// fellBack records that op is serving a fallback because of err.
func (a *Adapter) fellBack(ctx context.Context, op Operation, err error) {
	reason := reasonFor(err)
	a.metrics.Fallback(string(op), reason)
	if errors.Is(err, ErrNoCredential) {
		a.logger.DebugContext(ctx, "serving fallback", "operation", op, "reason", reason)
		return
	}
	a.logger.WarnContext(ctx, "serving fallback", "operation", op, "reason", reason, "error", err)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
