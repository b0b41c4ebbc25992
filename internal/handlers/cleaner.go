package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"solarcleaner/internal/service"
)

const (
	statusOK = "ok"

	msgStarted        = "cleaning started"
	msgAlreadyRunning = "cleaning cycle already running"
	msgReturning      = "robot ordered to return home"
	msgNotRunning     = "no cleaning cycle is running"
	errStartCleaning  = "failed to start cleaning"
	errStopCleaning   = "failed to stop cleaning"
)

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// startCleaning kicks off a manual cycle; a duplicate start is a conflict,
// not a failure.
func (h *Handler) startCleaning(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Cleaner.Start(ctx, service.OriginManual); err != nil {
		if errors.Is(err, service.ErrCycleRunning) {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgAlreadyRunning})
			return
		}
		h.log.Errorw("cleaning_start_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errStartCleaning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgStarted})
}

// stopCleaning requests a cooperative abort of the running cycle.
func (h *Handler) stopCleaning(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Cleaner.Stop(ctx); err != nil {
		if errors.Is(err, service.ErrNotRunning) {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgNotRunning})
			return
		}
		h.log.Errorw("cleaning_stop_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errStopCleaning})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgReturning})
}
