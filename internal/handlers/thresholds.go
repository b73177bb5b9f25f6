package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hvac_scheduler/internal/models"
)

const (
	errListThresholds  = "failed to list threshold settings"
	errSaveThreshold   = "failed to save threshold setting"
	errDeleteThreshold = "failed to delete threshold setting"
	errInvalidBodyPref = "invalid body: "
)

// thresholdRequest is the upsert payload.
type thresholdRequest struct {
	ID          string   `json:"id"`
	EquipmentID string   `json:"equipment_id" binding:"required"`
	MetricPath  string   `json:"metric_path"`
	MetricName  string   `json:"metric_name" binding:"required"`
	Min         *float64 `json:"min"`
	Max         *float64 `json:"max"`
	Enabled     bool     `json:"enabled"`
	LocationID  string   `json:"location_id"`
	System      string   `json:"system"`
}

// @Summary      List threshold settings
// @Tags         thresholds
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, thresholds"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/thresholds [get]
func (h *Handler) listThresholds(c *gin.Context) {
	settings, err := h.services.Repo.Thresholds.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListThresholds, "threshold_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(settings), "thresholds": settings})
}

// @Summary      Create or update a threshold setting
// @Tags         thresholds
// @Accept       json
// @Produce      json
// @Param        body  body  thresholdRequest  true  "Threshold setting"
// @Success      200  {object}  map[string]interface{}  "status, id"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/thresholds [put]
func (h *Handler) upsertThreshold(c *gin.Context) {
	var req thresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	setting := models.ThresholdSetting{
		ID:          req.ID,
		EquipmentID: req.EquipmentID,
		MetricPath:  req.MetricPath,
		MetricName:  req.MetricName,
		Min:         req.Min,
		Max:         req.Max,
		Enabled:     req.Enabled,
		LocationID:  req.LocationID,
		System:      req.System,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := h.services.Repo.Thresholds.Upsert(c.Request.Context(), setting); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveThreshold, "threshold_save_failed", err, "id", req.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "id": setting.ID})
}

// @Summary      Delete a threshold setting
// @Tags         thresholds
// @Produce      json
// @Param        id  path  string  true  "Setting id"
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/thresholds/{id} [delete]
func (h *Handler) deleteThreshold(c *gin.Context) {
	if err := h.services.Repo.Thresholds.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errDeleteThreshold, "threshold_delete_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
