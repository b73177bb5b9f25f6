package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hvac_scheduler/internal/models"
)

const errSaveCommand = "failed to record command"

// commandRequest is an operator-issued command. Recording it forces a
// control pass for the equipment on an upcoming tick.
type commandRequest struct {
	EquipmentID string `json:"equipment_id" binding:"required"`
	Command     string `json:"command" binding:"required"`
	Value       string `json:"value"`
	IssuedBy    string `json:"issued_by"`
}

// @Summary      Issue operator command
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        body  body  commandRequest  true  "Command"
// @Success      200  {object}  map[string]interface{}  "status, id"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/commands [post]
func (h *Handler) issueCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	cmd := models.OperatorCommand{
		ID:          uuid.NewString(),
		EquipmentID: req.EquipmentID,
		Command:     req.Command,
		Value:       req.Value,
		IssuedBy:    req.IssuedBy,
		IssuedAt:    time.Now().UTC(),
	}
	if err := h.services.Repo.Commands.Append(c.Request.Context(), cmd); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveCommand, "command_save_failed", err, "equipment_id", req.EquipmentID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded", "id": cmd.ID})
}
