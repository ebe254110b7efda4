package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viniciushashizume/stock-insight-hub/internal/analytics"
	"github.com/viniciushashizume/stock-insight-hub/internal/api"
	"github.com/viniciushashizume/stock-insight-hub/internal/cache"
	"github.com/viniciushashizume/stock-insight-hub/internal/config"
	"github.com/viniciushashizume/stock-insight-hub/internal/ingest"
	"github.com/viniciushashizume/stock-insight-hub/internal/service"
	"github.com/viniciushashizume/stock-insight-hub/internal/snapshot"
	"github.com/viniciushashizume/stock-insight-hub/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		logger.UseJSON(os.Stdout)
		logger.SetLevel(cfg.Server.LogLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	opts, err := analytics.OptionsFromConfig(cfg.Analytics)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid analytics configuration")
	}
	engine, err := analytics.NewEngine(opts)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create analytics engine")
	}

	insightsCache, err := cache.NewInsightsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis cache unavailable, serving uncached")
		insightsCache = cache.NewNoopInsightsCache()
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	sources, err := ingest.BuildSources(rootCtx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to configure dataset sources")
	}

	// Load the dataset in the background; views answer 503 until it is ready
	store := snapshot.NewStore()
	store.LoadAsync(rootCtx, ingest.NewLoader(sources...).LoadDataset)

	insightsService := service.NewInsightsService(store, engine, insightsCache)
	router := api.NewRouter(&api.Services{InsightsService: insightsService, Snapshot: store}, cfg.Server.AllowedOrigins)

	// Initialize HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")
	stop()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
