package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/platewise/internal/analysis"
	"github.com/vbonduro/platewise/internal/config"
	"github.com/vbonduro/platewise/internal/db"
	"github.com/vbonduro/platewise/internal/llm"
	"github.com/vbonduro/platewise/internal/llm/claude"
	"github.com/vbonduro/platewise/internal/llm/ollama"
	"github.com/vbonduro/platewise/internal/llm/openai"
	"github.com/vbonduro/platewise/internal/logging"
	"github.com/vbonduro/platewise/internal/metrics"
	"github.com/vbonduro/platewise/internal/photostore"
	"github.com/vbonduro/platewise/internal/photostore/local"
	s3store "github.com/vbonduro/platewise/internal/photostore/s3"
	"github.com/vbonduro/platewise/internal/service"
	"github.com/vbonduro/platewise/internal/store"
	"github.com/vbonduro/platewise/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photoStg, err := newPhotoStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	rec := metrics.New("platewise")
	adapter := analysis.NewAdapter(newCompleter(cfg, logger), logger, analysis.WithMetrics(rec))

	mealService := service.NewMealService(
		store.NewMealStore(database),
		store.NewPlanStore(database),
		adapter,
		photoStg,
		logger,
	)
	server := web.NewServer(mealService, rec, web.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newCompleter returns nil when the backend has no usable credential, which
// puts every analysis on its deterministic fallback.
func newCompleter(cfg *config.Config, logger *slog.Logger) llm.Completer {
	if !cfg.HasCredential() {
		logger.Warn("no AI credential configured, serving fallback analysis", "backend", cfg.ModelBackend)
		return nil
	}

	var c llm.Completer
	switch cfg.ModelBackend {
	case config.BackendClaude:
		logger.Info("using Claude backend", "model", cfg.ClaudeModel)
		c = claude.NewCompleter(cfg.AIAPIKey, cfg.ClaudeModel, cfg.AITimeout)
	case config.BackendOllama:
		logger.Info("using Ollama backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		c = ollama.NewCompleter(cfg.OllamaHost, cfg.OllamaModel, cfg.AITimeout)
	case config.BackendOpenAI:
		logger.Info("using OpenAI backend", "model", cfg.OpenAIModel)
		c = openai.NewCompleter(cfg.AIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.AITimeout)
	default:
		logger.Error("unknown MODEL_BACKEND, serving fallback analysis", "backend", cfg.ModelBackend)
		return nil
	}

	if cfg.BreakerEnabled {
		return llm.WithBreaker(c, cfg.ModelBackend, llm.DefaultBreakerSettings(), logger)
	}
	return c
}

func newPhotoStore(ctx context.Context, cfg *config.Config) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case config.PhotoBackendLocal:
		return local.NewStore(cfg.PhotoPath)
	case config.PhotoBackendS3:
		return s3store.NewStore(ctx, s3store.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown PHOTO_BACKEND %q", cfg.PhotoBackend)
	}
}
