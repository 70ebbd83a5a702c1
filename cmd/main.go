package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sessionlens/server/adapters"
	"github.com/sessionlens/server/adapters/llm"
	"github.com/sessionlens/server/adapters/media"
	"github.com/sessionlens/server/adapters/redisstore"
	"github.com/sessionlens/server/domain/repositories"
	"github.com/sessionlens/server/internal/api"
	"github.com/sessionlens/server/internal/auth"
	"github.com/sessionlens/server/internal/config"
	"github.com/sessionlens/server/internal/ratelimit"
	"github.com/sessionlens/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("512K"))

	// Initialize adapters
	ctx := context.Background()
	geminiClient, err := llm.NewGeminiClient(ctx)
	if err != nil {
		logger.Fatal("Failed to create Gemini client", zap.Error(err))
	}
	generationModel := llm.NewGeminiModel(geminiClient, logger)
	fileStore := media.NewGeminiFileStore(geminiClient, logger)

	// Rate counters live in Redis; fall back to in-process counters when
	// it is unreachable so a missing Redis never takes the service down.
	var counterStore repositories.CounterStore
	if redisClient, err := redisstore.NewClient(logger); err != nil {
		logger.Warn("Redis unavailable, using in-memory rate counters", zap.Error(err))
		counterStore = adapters.NewMemoryCounterStore()
	} else {
		defer redisClient.Close()
		counterStore = redisstore.NewCounter(redisClient, logger)
	}
	accountant := ratelimit.NewAccountant(counterStore, logger)

	// Initialize usecase services
	analysisService := usecase.NewAnalysisService(generationModel, fileStore, accountant, logger, usecase.AnalysisConfig{
		MediaHourlyLimit: cfg.MediaHourlyLimit,
		TextHourlyLimit:  cfg.TextHourlyLimit,
	})

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.AllowedEmailDomain)
	handler := api.NewHandler(analysisService, verifier, logger)

	// Initialize API routes
	api.InitRoutes(e, handler)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
