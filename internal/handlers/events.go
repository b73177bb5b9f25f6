package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	errListEvents  = "failed to list events"
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
)

// @Summary      List engine events
// @Description  Job and alarm lifecycle events. Filter by date and type; a date-only 'to' is treated as end-of-day inclusive.
// @Tags         events
// @Produce      json
// @Param        from  query  string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2026-08-01)
// @Param        to    query  string  false  "End of range; date-only treated as end of day"  example(2026-08-31)
// @Param        type  query  string  false  "Event type"  Enums(JOB_SUBMITTED,JOB_COMPLETED,JOB_FAILED,JOB_TIMEOUT,ALARM_RAISED,ALARM_ACKED,ALARM_RESOLVED)
// @Success      200  {object}  map[string]interface{}  "count, events"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/events [get]
func (h *Handler) getEvents(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		from, to  time.Time
		eventType = strings.ToUpper(strings.TrimSpace(c.Query("type")))
		err       error
	)
	if qs := c.Query("from"); qs != "" {
		if from, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		if to, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
	}

	events, err := h.services.Repo.Events.List(ctx, from, to, eventType)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListEvents, "event_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}
