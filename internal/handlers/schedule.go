package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"solarcleaner/internal/service"
)

const (
	msgSchedulesUpdated = "schedules updated"
	errInvalidSchedules = "invalid body: schedules must be a list of HH:MM strings"
	errSaveSchedules    = "failed to update schedules"
)

// Request DTO for replacing the schedule set. An empty list clears all
// schedules.
type setScheduleRequest struct {
	Schedules []string `json:"schedules" binding:"required"`
}

// setSchedule atomically replaces the full schedule set.
func (h *Handler) setSchedule(c *gin.Context) {
	var req setScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": errInvalidSchedules})
		return
	}

	ctx := c.Request.Context()
	saved, err := h.services.Schedules.Replace(ctx, req.Schedules)
	if err != nil {
		if errors.Is(err, service.ErrInvalidScheduleTime) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		h.log.Errorw("schedule_replace_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errSaveSchedules})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgSchedulesUpdated, "new_schedules": saved})
}
