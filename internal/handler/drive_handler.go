package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/placement-api/internal/models"
	"github.com/campuslink/placement-api/internal/service"
	appErrors "github.com/campuslink/placement-api/pkg/errors"
	"github.com/campuslink/placement-api/pkg/response"
)

// DriveHandler exposes placement drive endpoints.
type DriveHandler struct {
	drives *service.DriveService
}

// NewDriveHandler constructs DriveHandler.
func NewDriveHandler(drives *service.DriveService) *DriveHandler {
	return &DriveHandler{drives: drives}
}

// List returns the organization's drives.
func (h *DriveHandler) List(c *gin.Context) {
	var filter models.DriveFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Status = models.DriveStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	drives, pagination, err := h.drives.List(c.Request.Context(), orgFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drives, pagination)
}

// Get returns a single drive.
func (h *DriveHandler) Get(c *gin.Context) {
	drive, err := h.drives.Get(c.Request.Context(), orgFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Create schedules a new drive.
func (h *DriveHandler) Create(c *gin.Context) {
	var req service.DriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	drive, err := h.drives.Create(c.Request.Context(), orgFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, drive)
}

// Update edits a drive's fields.
func (h *DriveHandler) Update(c *gin.Context) {
	var req service.DriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	drive, err := h.drives.Update(c.Request.Context(), orgFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Delete removes a drive and its registrations.
func (h *DriveHandler) Delete(c *gin.Context) {
	if err := h.drives.Delete(c.Request.Context(), orgFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleRegistration flips a drive between Open and Closed.
func (h *DriveHandler) ToggleRegistration(c *gin.Context) {
	drive, err := h.drives.ToggleRegistration(c.Request.Context(), orgFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}
