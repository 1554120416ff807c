package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/cache"
	"github.com/stemsi/guidedwork-backend/internal/config"
	"github.com/stemsi/guidedwork-backend/internal/database"
	"github.com/stemsi/guidedwork-backend/internal/extractor"
	"github.com/stemsi/guidedwork-backend/internal/handler"
	"github.com/stemsi/guidedwork-backend/internal/llm"
	"github.com/stemsi/guidedwork-backend/internal/logger"
	"github.com/stemsi/guidedwork-backend/internal/mediation"
	"github.com/stemsi/guidedwork-backend/internal/middleware"
	"github.com/stemsi/guidedwork-backend/internal/parser"
	"github.com/stemsi/guidedwork-backend/internal/repository"
	"github.com/stemsi/guidedwork-backend/internal/router"
	"github.com/stemsi/guidedwork-backend/internal/service"
	"github.com/stemsi/guidedwork-backend/internal/validator"
	"github.com/stemsi/guidedwork-backend/internal/worker"
)

const version = "1.0.0"

func main() {
	printStartUpBanner()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("cache_driver", cfg.CacheDriver).
		Msg("Starting GuidedWork Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	// ─── Response Cache ────────────────────────────────────────────────
	// Redis when configured; otherwise an in-process map swept periodically.
	var (
		responseCache cache.Cache
		cacheEntries  func() int
	)
	if cfg.UseRedisCache() {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		responseCache = cache.NewRedis(rdb, log)
	} else {
		mem := cache.NewMemory()
		responseCache = mem
		cacheEntries = mem.Len
		go worker.NewCacheSweeper(mem, cfg.CacheSweepInterval, log).Start(workerCtx)
	}

	// ─── Language Model ────────────────────────────────────────────────
	llmClient := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log)
	if !llmClient.Configured() {
		log.Warn().Msg("OPENAI_API_KEY not set; uploads will use the fallback draft and AI requests will return error messages")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	assignmentRepo := repository.NewAssignmentRepository()
	progressRepo := repository.NewProgressRepository()
	interactionRepo := repository.NewInteractionRepository()

	// ─── Initialize Services ──────────────────────────────────────────
	pdfParser := parser.New(llmClient, responseCache, parser.Options{
		Model:      cfg.ParserModel,
		TextBudget: cfg.ParserTextBudget,
		Timeout:    cfg.ParserTimeout,
		CacheTTL:   cfg.ParseCacheTTL,
	}, log)
	engine := mediation.NewEngine(llmClient, responseCache, mediation.Options{
		Model:    cfg.OpenAIModel,
		CacheTTL: cfg.AIResponseTTL,
	}, log)

	assignmentService := service.NewAssignmentService(
		service.NewUploadService(cfg),
		extractor.New(cfg.MaxPDFPages, log),
		pdfParser,
		assignmentRepo,
		progressRepo,
		log,
	)
	progressService := service.NewProgressService(assignmentRepo, progressRepo, log)
	aiService := service.NewAIService(engine, assignmentRepo, progressRepo, interactionRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Assignment: handler.NewAssignmentHandler(assignmentService, log),
		Progress:   handler.NewProgressHandler(progressService),
		AI:         handler.NewAIHandler(aiService),
		System: handler.NewSystemHandler(handler.SystemInfo{
			CacheDriver:   cfg.CacheDriver,
			LLMConfigured: llmClient.Configured(),
			CacheEntries:  cacheEntries,
		}, log),
	}

	aiLimiter := middleware.NewRateLimiter(cfg.AIRateLimit)
	go aiLimiter.Run(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, aiLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. AI calls can take up to 20s.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers.
	workerCancel()

	log.Info().Msg("Shutdown complete")
}

func printStartUpBanner() {
	banner := figure.NewFigure("GUIDEDWORK", "", true)
	banner.Print()

	fmt.Println("======================================================")
	fmt.Printf("GuidedWork API (v%s)\n\n", version)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
