package repository

import (
	"context"
	"database/sql"

	"solarcleaner/internal/models"
)

// ScheduleRepo owns the stored cleaning schedules. The poller and
// orchestrator only ever read them; writes go through ReplaceAll.
type ScheduleRepo interface {
	ReplaceAll(ctx context.Context, times []string) error
	List(ctx context.Context) ([]string, error)
}

// LogRepo is the append-only audit log.
type LogRepo interface {
	Append(ctx context.Context, e models.LogEntry) error
	Recent(ctx context.Context, limit int) ([]models.LogEntry, error)
}

type Repository struct {
	Schedules ScheduleRepo
	Logs      LogRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Schedules: NewScheduleSQLite(db),
		Logs:      NewLogSQLite(db),
	}
}
