package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
	"solarcleaner/internal/repository"
)

// clockLayout is the wall-clock format schedules are stored in.
const clockLayout = "15:04"

var ErrInvalidScheduleTime = errors.New("invalid schedule time, expected HH:MM")

type ScheduleService struct {
	schedules repository.ScheduleRepo
	logs      repository.LogRepo
	notifier  Notifier
	log       *logger.Logger
}

func NewScheduleService(schedules repository.ScheduleRepo, logs repository.LogRepo, notifier Notifier, log *logger.Logger) *ScheduleService {
	return &ScheduleService{schedules: schedules, logs: logs, notifier: notifier, log: log}
}

// Replace validates and atomically swaps the full schedule set. Duplicates
// are collapsed; any malformed time rejects the whole request. Returns the
// set as persisted.
func (s *ScheduleService) Replace(ctx context.Context, times []string) ([]string, error) {
	cleaned := make([]string, 0, len(times))
	seen := make(map[string]struct{}, len(times))
	for _, t := range times {
		t = strings.TrimSpace(t)
		if _, err := time.Parse(clockLayout, t); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidScheduleTime, t)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}

	if err := s.schedules.ReplaceAll(ctx, cleaned); err != nil {
		return nil, err
	}

	e := models.LogEntry{
		Timestamp: time.Now().UTC(),
		Action:    models.ActionSetSchedule,
		Status:    models.LogStatusSuccess,
		Type:      models.LogTypeSchedule,
	}
	if err := s.logs.Append(ctx, e); err != nil {
		s.log.Errorw("schedule log append failed", "err", err)
	}
	s.notifier.LogUpdate(e)

	return cleaned, nil
}

// List returns the stored schedules in ascending time order.
func (s *ScheduleService) List(ctx context.Context) ([]string, error) {
	return s.schedules.List(ctx)
}
