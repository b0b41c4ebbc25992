package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"solarcleaner/internal/models"
	"solarcleaner/internal/service"
)

func TestGetLogs_ReturnsEntries(t *testing.T) {
	entries := []models.LogEntry{
		{ID: 2, Timestamp: time.Date(2026, 8, 30, 19, 30, 0, 0, time.UTC), Action: models.ActionStopManual, Status: models.LogStatusSuccess, Type: models.LogTypeStop},
		{ID: 1, Timestamp: time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC), Action: models.ActionStartManual, Status: models.LogStatusSuccess, Type: models.LogTypeStart},
	}
	s := &service.Service{Cleaner: &mockCleaner{}, Schedules: &mockSchedules{}, EventLog: &mockEventLog{entries: entries}, Poller: mockPoller{}}
	r := newTestRouter(s)

	w := doRequest(t, r, http.MethodGet, "/logs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	var got []models.LogEntry
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[0].Action != models.ActionStopManual {
		t.Fatalf("unexpected logs: %+v", got)
	}
}

func TestGetLogs_StoreFailureIs500(t *testing.T) {
	s := &service.Service{Cleaner: &mockCleaner{}, Schedules: &mockSchedules{}, EventLog: &mockEventLog{err: errors.New("db down")}, Poller: mockPoller{}}
	r := newTestRouter(s)

	w := doRequest(t, r, http.MethodGet, "/logs", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", w.Code)
	}
}
