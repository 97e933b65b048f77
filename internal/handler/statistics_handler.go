package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/placement-api/internal/service"
	"github.com/campuslink/placement-api/pkg/response"
)

// StatisticsHandler exposes derived drive statistics.
type StatisticsHandler struct {
	statistics *service.StatisticsService
}

// NewStatisticsHandler constructs StatisticsHandler.
func NewStatisticsHandler(statistics *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statistics: statistics}
}

// Get returns summary statistics for a drive's registration set.
func (h *StatisticsHandler) Get(c *gin.Context) {
	stats, err := h.statistics.ForDrive(c.Request.Context(), orgFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
