package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	errListWaiting = "failed to list waiting jobs"
	errListActive  = "failed to list active jobs"
)

// @Summary      List waiting jobs
// @Description  Queued control passes in dispatch order.
// @Tags         queue
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, jobs"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/queue/waiting [get]
func (h *Handler) listWaitingJobs(c *gin.Context) {
	jobs, err := h.services.Queue.ListWaiting(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListWaiting, "queue_waiting_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(jobs), "jobs": jobs})
}

// @Summary      List active jobs
// @Tags         queue
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, jobs"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/queue/active [get]
func (h *Handler) listActiveJobs(c *gin.Context) {
	jobs, err := h.services.Queue.ListActive(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListActive, "queue_active_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(jobs), "jobs": jobs})
}
