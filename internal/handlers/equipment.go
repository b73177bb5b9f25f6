package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const errEquipmentMissing = "equipment not found"

// @Summary      List equipment
// @Tags         equipment
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, equipment"
// @Router       /api/v1/equipment [get]
func (h *Handler) listEquipment(c *gin.Context) {
	list := h.services.Registry.All()
	c.JSON(http.StatusOK, gin.H{"count": len(list), "equipment": list})
}

// @Summary      Get equipment runtime state
// @Description  Process-local scheduling state: last snapshot, last run, last outdoor reading.
// @Tags         equipment
// @Produce      json
// @Param        id  path  string  true  "Equipment id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/equipment/{id}/state [get]
func (h *Handler) getEquipmentState(c *gin.Context) {
	id := c.Param("id")
	eq, ok := h.services.Registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errEquipmentMissing})
		return
	}
	resp := gin.H{"equipment": eq}
	if st, ok := h.services.States.Snapshot(id); ok {
		resp["state"] = gin.H{
			"last_run":          st.LastRun,
			"last_outdoor_temp": st.LastOutdoorTemp,
			"has_outdoor":       st.HasOutdoor,
			"last_snapshot":     st.LastSnapshot,
		}
	}
	c.JSON(http.StatusOK, resp)
}
