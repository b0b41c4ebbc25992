package service

import (
	"context"
	"time"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
	"solarcleaner/internal/repository"
)

// Origin tags how a cleaning cycle was triggered.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginAuto   Origin = "auto"
)

// Publisher sends commands to the robot over the messaging bridge.
type Publisher interface {
	PublishCommand(cmd models.DeviceCommand) error
}

// Notifier pushes events to connected observers. Implementations must
// never block: broadcasts are fire-and-forget.
type Notifier interface {
	StatusUpdate(status string, progress int)
	ProgressUpdate(progress int)
	LogUpdate(e models.LogEntry)
}

// Cleaner exposes cleaning cycle control. HandleDeviceStatus is the entry
// point the messaging bridge routes inbound device messages to.
type Cleaner interface {
	Start(ctx context.Context, origin Origin) error
	Stop(ctx context.Context) error
	Status() models.CycleStatus
	HandleDeviceStatus(st models.DeviceStatus)
}

// Schedules manages the stored cleaning schedules (replace-all semantics).
type Schedules interface {
	Replace(ctx context.Context, times []string) ([]string, error)
	List(ctx context.Context) ([]string, error)
}

// EventLog exposes the bounded recent-log view.
type EventLog interface {
	Recent(ctx context.Context) ([]models.LogEntry, error)
}

// Poller runs the unattended schedule loop. Stop via context cancellation
// in main() for graceful shutdown.
type Poller interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Cleaner
	Schedules
	EventLog
	Poller
}

// NewService wires the repository layer, bridge and notification sink into
// concrete services.
func NewService(repos *repository.Repository, pub Publisher, notifier Notifier, log *logger.Logger) *Service {
	orch := NewOrchestrator(pub, notifier, repos.Logs, log)
	return &Service{
		Cleaner:   orch,
		Schedules: NewScheduleService(repos.Schedules, repos.Logs, notifier, log),
		EventLog:  NewEventLogService(repos.Logs),
		Poller:    NewPollerService(repos.Schedules, orch, log),
	}
}
