package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/viniciushashizume/stock-insight-hub/internal/api/handlers"
	"github.com/viniciushashizume/stock-insight-hub/internal/api/middleware"
	"github.com/viniciushashizume/stock-insight-hub/internal/service"
)

// SnapshotStatus reports the state of the background dataset load.
type SnapshotStatus interface {
	Status() (loaded, loading bool, err error)
}

type Services struct {
	InsightsService *service.InsightsService
	Snapshot        SnapshotStatus
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if services != nil && services.Snapshot != nil {
			body["dataset"] = datasetStatus(services.Snapshot)
		}
		c.JSON(http.StatusOK, body)
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.InsightsService != nil {
		insightsHandler := handlers.NewInsightsHandler(services.InsightsService)
		insightsGroup := apiGroup.Group("/insights")
		{
			insightsGroup.GET("/clusters", insightsHandler.GetClusters)
			insightsGroup.GET("/risk", insightsHandler.GetRisk)
			insightsGroup.GET("/seasonality", insightsHandler.GetSeasonality)
			insightsGroup.GET("/strategic", insightsHandler.GetStrategic)
			insightsGroup.GET("/inflation", insightsHandler.GetInflation)
			insightsGroup.GET("/kpis", insightsHandler.GetKPIs)
			insightsGroup.GET("/overview", insightsHandler.GetOverview)
			insightsGroup.GET("/dataset", insightsHandler.GetDataset)
		}
	}

	return router
}

func datasetStatus(s SnapshotStatus) gin.H {
	loaded, loading, err := s.Status()
	status := gin.H{"loaded": loaded, "loading": loading}
	if err != nil {
		status["last_error"] = err.Error()
	}
	return status
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
