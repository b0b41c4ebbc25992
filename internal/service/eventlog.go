package service

import (
	"context"

	"solarcleaner/internal/models"
	"solarcleaner/internal/repository"
)

// recentLogLimit bounds the log view served to the UI.
const recentLogLimit = 100

type EventLogService struct {
	logs repository.LogRepo
}

func NewEventLogService(logs repository.LogRepo) *EventLogService {
	return &EventLogService{logs: logs}
}

// Recent returns the newest log entries, newest first.
func (s *EventLogService) Recent(ctx context.Context) ([]models.LogEntry, error) {
	return s.logs.Recent(ctx, recentLogLimit)
}
