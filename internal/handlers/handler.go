package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/service"
	"solarcleaner/internal/ws"
)

// Handler wires the HTTP layer to services, the notification hub and
// logging.
type Handler struct {
	services *service.Service
	hub      *ws.Hub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, hub *ws.Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// The dashboard is served from a different origin.
	router.Use(cors.Default())

	router.GET("/health", h.health)

	router.POST("/start", h.startCleaning)
	router.POST("/stop", h.stopCleaning)
	router.POST("/set_schedule", h.setSchedule)
	router.GET("/logs", h.getLogs)

	// WebSocket upgrade on the same port
	router.GET("/ws", h.wsConnect)

	return router
}
