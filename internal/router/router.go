package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/config"
	"github.com/stemsi/guidedwork-backend/internal/handler"
	"github.com/stemsi/guidedwork-backend/internal/logger"
	"github.com/stemsi/guidedwork-backend/internal/middleware"
	"github.com/stemsi/guidedwork-backend/internal/response"
)

// multipartOverhead is the body allowance above MaxUploadBytes for form framing.
const multipartOverhead = 1 << 20

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Assignment *handler.AssignmentHandler
	Progress   *handler.ProgressHandler
	AI         *handler.AIHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	handlers *Handlers,
	aiLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so logs and error bodies share it.
	router.Use(response.RequestIDMiddleware())
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Brotli())

	api := router.Group("/api")
	api.GET("/test", handlers.System.Test)

	// ─── 1. Assignments (Instructor) ───────────────────────────────────
	assignments := api.Group("/assignments")
	{
		assignments.POST("/upload",
			middleware.BodyLimit(cfg.MaxUploadBytes+multipartOverhead),
			handlers.Assignment.Upload,
		)
		assignments.POST("/configure", handlers.Assignment.Configure)
		assignments.GET("", handlers.Assignment.List)
		assignments.GET("/:id", handlers.Assignment.Get)
		assignments.DELETE("/:id", handlers.Assignment.Delete)
	}

	// ─── 2. Progress (Student) ─────────────────────────────────────────
	progress := api.Group("/assignments/:id")
	progress.Use(middleware.NoStore())
	{
		progress.POST("/progress/:studentId", handlers.Progress.Save)
		progress.GET("/progress/:studentId", handlers.Progress.Get)
		progress.POST("/submit", handlers.Progress.Submit)
	}

	// ─── 3. AI Assistance (Rate Limited) ───────────────────────────────
	ai := api.Group("/ai")
	ai.Use(aiLimiter.Middleware())
	{
		ai.POST("/generate", handlers.AI.Generate)
		ai.POST("/interaction", handlers.AI.RecordInteraction)
		ai.GET("/interactions", handlers.AI.ListInteractions)
	}

	// ─── 4. System ─────────────────────────────────────────────────────
	system := api.Group("/system")
	{
		system.GET("/status", handlers.System.Status)
		system.GET("/metrics", handlers.System.MetricsSSE)
	}

	return router
}
