package handlers

import (
	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to the engine and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAPIRoutes(router)

	// Live event stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerAlarmRoutes(api)
		h.registerThresholdRoutes(api)
		h.registerQueueRoutes(api)
		h.registerEquipmentRoutes(api)
		h.registerEventRoutes(api)
		h.registerCommandRoutes(api)
	}
}

func (h *Handler) registerAlarmRoutes(api *gin.RouterGroup) {
	alarms := api.Group("/alarms")
	{
		alarms.GET("/", h.listAlarms)
		alarms.POST("/:id/ack", h.ackAlarm)
		alarms.POST("/:id/resolve", h.resolveAlarm)
		alarms.DELETE("/:id", h.deleteAlarm)
	}
}

func (h *Handler) registerThresholdRoutes(api *gin.RouterGroup) {
	thresholds := api.Group("/thresholds")
	{
		thresholds.GET("/", h.listThresholds)
		thresholds.PUT("/", h.upsertThreshold)
		thresholds.DELETE("/:id", h.deleteThreshold)
	}
}

func (h *Handler) registerQueueRoutes(api *gin.RouterGroup) {
	queue := api.Group("/queue")
	{
		queue.GET("/waiting", h.listWaitingJobs)
		queue.GET("/active", h.listActiveJobs)
	}
}

func (h *Handler) registerEquipmentRoutes(api *gin.RouterGroup) {
	equipment := api.Group("/equipment")
	{
		equipment.GET("/", h.listEquipment)
		equipment.GET("/:id/state", h.getEquipmentState)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	events := api.Group("/events")
	{
		events.GET("/", h.getEvents)
	}
}

func (h *Handler) registerCommandRoutes(api *gin.RouterGroup) {
	commands := api.Group("/commands")
	{
		commands.POST("/", h.issueCommand)
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
