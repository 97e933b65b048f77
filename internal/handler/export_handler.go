package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/placement-api/internal/models"
	"github.com/campuslink/placement-api/internal/service"
	appErrors "github.com/campuslink/placement-api/pkg/errors"
	"github.com/campuslink/placement-api/pkg/response"
)

// ExportHandler exposes drive exports: registration lists as CSV and the
// drive summary as PDF.
type ExportHandler struct {
	drives        *service.DriveService
	registrations *service.RegistrationService
	statistics    *service.StatisticsService
	exports       *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(drives *service.DriveService, registrations *service.RegistrationService, statistics *service.StatisticsService, exports *service.ExportService) *ExportHandler {
	return &ExportHandler{drives: drives, registrations: registrations, statistics: statistics, exports: exports}
}

// Export streams a drive export. Query params: status (optional registration
// status filter, CSV only) and format (csv, default, or pdf).
func (h *ExportHandler) Export(c *gin.Context) {
	orgID := orgFromContext(c)
	driveID := c.Param("id")

	drive, err := h.drives.Get(c.Request.Context(), orgID, driveID)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		statusFilter := models.RegistrationStatus(c.Query("status"))
		if statusFilter != "" && !statusFilter.IsValid() {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidStatus, "status must be one of Registered, Selected, Rejected, Waitlisted"))
			return
		}
		registrations, err := h.registrations.ListAll(c.Request.Context(), orgID, driveID)
		if err != nil {
			response.Error(c, err)
			return
		}
		payload, err := h.exports.RegistrationsCSV(drive, registrations, statusFilter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_registrations.csv", driveID))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		stats, err := h.statistics.ForDrive(c.Request.Context(), orgID, driveID)
		if err != nil {
			response.Error(c, err)
			return
		}
		payload, err := h.exports.StatisticsPDF(drive, *stats)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_summary.pdf", driveID))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
