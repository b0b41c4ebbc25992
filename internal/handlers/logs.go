package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const errLoadLogs = "failed to load logs"

// getLogs returns the most recent log entries, newest first, capped by
// the service layer.
func (h *Handler) getLogs(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := h.services.EventLog.Recent(ctx)
	if err != nil {
		h.log.Errorw("logs_load_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errLoadLogs})
		return
	}
	c.JSON(http.StatusOK, entries)
}
