package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
	"solarcleaner/internal/service"
	"solarcleaner/internal/ws"
)

// ---- Service mocks used by handler tests ----

type mockCleaner struct {
	startErr   error
	stopErr    error
	startCalls int
	stopCalls  int
	lastOrigin service.Origin
	status     models.CycleStatus
	handled    []models.DeviceStatus
}

func (m *mockCleaner) Start(ctx context.Context, origin service.Origin) error {
	m.startCalls++
	m.lastOrigin = origin
	return m.startErr
}

func (m *mockCleaner) Stop(ctx context.Context) error {
	m.stopCalls++
	return m.stopErr
}

func (m *mockCleaner) Status() models.CycleStatus { return m.status }

func (m *mockCleaner) HandleDeviceStatus(st models.DeviceStatus) {
	m.handled = append(m.handled, st)
}

type mockSchedules struct {
	replaceResp []string
	replaceErr  error
	listResp    []string
	listErr     error

	lastReplace []string
}

func (m *mockSchedules) Replace(ctx context.Context, times []string) ([]string, error) {
	m.lastReplace = times
	if m.replaceErr != nil {
		return nil, m.replaceErr
	}
	if m.replaceResp != nil {
		return m.replaceResp, nil
	}
	return times, nil
}

func (m *mockSchedules) List(ctx context.Context) ([]string, error) {
	return m.listResp, m.listErr
}

type mockEventLog struct {
	entries []models.LogEntry
	err     error
}

func (m *mockEventLog) Recent(ctx context.Context) ([]models.LogEntry, error) {
	return m.entries, m.err
}

type mockPoller struct{}

func (mockPoller) Run(ctx context.Context, tick time.Duration) {}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Get(logger.ErrorLevel)
	h := NewHandler(s, ws.NewHub(log), log)
	return h.InitRoutes()
}
