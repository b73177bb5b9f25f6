package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hvac_scheduler/internal/repository"
)

const (
	errListAlarms   = "failed to list alarms"
	errAckAlarm     = "failed to acknowledge alarm"
	errResolveAlarm = "failed to resolve alarm"
	errDeleteAlarm  = "failed to delete alarm"
	errAlarmMissing = "alarm not found"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// actorRequest carries the operator performing a lifecycle transition.
type actorRequest struct {
	By string `json:"by"`
}

// @Summary      List alarms
// @Description  Filter by equipment_id, location_id, active=true, and from/to timestamps.
// @Tags         alarms
// @Produce      json
// @Param        equipment_id  query  string  false  "Equipment id"
// @Param        location_id   query  string  false  "Location id"
// @Param        active        query  bool    false  "Active alarms only"
// @Param        from          query  string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to            query  string  false  "End of range; date-only treated as end of day"
// @Success      200  {object}  map[string]interface{}  "count, alarms"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/alarms [get]
func (h *Handler) listAlarms(c *gin.Context) {
	ctx := c.Request.Context()
	filter := repository.AlarmFilter{
		EquipmentID: c.Query("equipment_id"),
		LocationID:  c.Query("location_id"),
		ActiveOnly:  c.Query("active") == "true",
	}
	var err error
	if qs := c.Query("from"); qs != "" {
		if filter.From, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' time; use RFC3339 or YYYY-MM-DD"})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		if filter.To, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' time; use RFC3339 or YYYY-MM-DD"})
			return
		}
		if isDateOnly(qs) {
			filter.To = filter.To.Add(24*time.Hour - time.Nanosecond)
		}
	}

	alarms, err := h.services.Repo.Alarms.List(ctx, filter)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListAlarms, "alarm_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(alarms), "alarms": alarms})
}

// @Summary      Acknowledge alarm
// @Tags         alarms
// @Accept       json
// @Produce      json
// @Param        id    path  string        true   "Alarm id"
// @Param        body  body  actorRequest  false  "Acknowledging operator"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/alarms/{id}/ack [post]
func (h *Handler) ackAlarm(c *gin.Context) {
	var req actorRequest
	_ = c.ShouldBindJSON(&req)
	err := h.services.Alarms.Acknowledge(c.Request.Context(), c.Param("id"), req.By)
	if err != nil {
		if errors.Is(err, repository.ErrAlarmNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errAlarmMissing})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errAckAlarm, "alarm_ack_failed", err, "alarm_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

// @Summary      Resolve alarm
// @Tags         alarms
// @Accept       json
// @Produce      json
// @Param        id    path  string        true   "Alarm id"
// @Param        body  body  actorRequest  false  "Resolving operator"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/alarms/{id}/resolve [post]
func (h *Handler) resolveAlarm(c *gin.Context) {
	var req actorRequest
	_ = c.ShouldBindJSON(&req)
	err := h.services.Alarms.Resolve(c.Request.Context(), c.Param("id"), req.By)
	if err != nil {
		if errors.Is(err, repository.ErrAlarmNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errAlarmMissing})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errResolveAlarm, "alarm_resolve_failed", err, "alarm_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}

// @Summary      Delete alarm
// @Tags         alarms
// @Produce      json
// @Param        id  path  string  true  "Alarm id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/alarms/{id} [delete]
func (h *Handler) deleteAlarm(c *gin.Context) {
	err := h.services.Alarms.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrAlarmNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errAlarmMissing})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errDeleteAlarm, "alarm_delete_failed", err, "alarm_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// isDateOnly reports whether the query string represents a date without a
// time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// parseQueryTime accepts RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'.
func parseQueryTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(layoutDateTime, s); err == nil {
		return t, nil
	}
	return time.Parse(layoutDate, s)
}
