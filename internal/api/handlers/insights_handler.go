package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
	"github.com/viniciushashizume/stock-insight-hub/internal/service"
	"github.com/viniciushashizume/stock-insight-hub/internal/snapshot"
)

type InsightsHandler struct {
	service *service.InsightsService
}

func NewInsightsHandler(service *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{service: service}
}

// respondError maps service errors onto status codes. A dataset that is
// still loading is reported as 503 so clients can retry.
func respondError(c *gin.Context, view string, err error) {
	if errors.Is(err, snapshot.ErrNotLoaded) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset not loaded yet"})
		return
	}
	log.Error().Err(err).Str("view", view).Msg("failed to compute insight")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute " + view, "details": err.Error()})
}

// groupFilter reads ?grupo=, accepting repeated or comma separated values.
func groupFilter(c *gin.Context) map[string]struct{} {
	var groups map[string]struct{}
	for _, raw := range c.QueryArray("grupo") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if groups == nil {
				groups = make(map[string]struct{})
			}
			groups[part] = struct{}{}
		}
	}
	return groups
}

func inGroups(groups map[string]struct{}, group string) bool {
	if groups == nil {
		return true
	}
	_, ok := groups[strings.ToUpper(group)]
	return ok
}

func (h *InsightsHandler) GetClusters(c *gin.Context) {
	rows, err := h.service.Clusters(c.Request.Context())
	if err != nil {
		respondError(c, "clusters", err)
		return
	}

	groups := groupFilter(c)
	if groups != nil {
		filtered := make([]domain.ClusterRow, 0, len(rows))
		for _, r := range rows {
			if inGroups(groups, r.Group) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	c.JSON(http.StatusOK, rows)
}

func (h *InsightsHandler) GetRisk(c *gin.Context) {
	result, err := h.service.Risk(c.Request.Context())
	if err != nil {
		respondError(c, "risk", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InsightsHandler) GetSeasonality(c *gin.Context) {
	rows, err := h.service.Seasonality(c.Request.Context())
	if err != nil {
		respondError(c, "seasonality", err)
		return
	}

	if class := strings.TrimSpace(c.Query("classificacao")); class != "" {
		filtered := make([]domain.SeasonalityRow, 0, len(rows))
		for _, r := range rows {
			if strings.EqualFold(r.Classification, class) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	c.JSON(http.StatusOK, rows)
}

func (h *InsightsHandler) GetStrategic(c *gin.Context) {
	result, err := h.service.Strategic(c.Request.Context())
	if err != nil {
		respondError(c, "strategic", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InsightsHandler) GetInflation(c *gin.Context) {
	result, err := h.service.Inflation(c.Request.Context())
	if err != nil {
		respondError(c, "inflation", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InsightsHandler) GetKPIs(c *gin.Context) {
	result, err := h.service.KPIs(c.Request.Context())
	if err != nil {
		respondError(c, "kpis", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InsightsHandler) GetOverview(c *gin.Context) {
	result, err := h.service.Overview(c.Request.Context())
	if err != nil {
		respondError(c, "overview", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InsightsHandler) GetDataset(c *gin.Context) {
	result, err := h.service.Dataset(c.Request.Context())
	if err != nil {
		respondError(c, "dataset", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
