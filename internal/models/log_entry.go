package models

import "time"

// Log entry actions and types recorded by the controller.
const (
	ActionStartManual = "START MANUAL"
	ActionStartAuto   = "START AUTO"
	ActionStopManual  = "STOP MANUAL"
	ActionSetSchedule = "SET SCHEDULE"

	LogStatusSuccess = "SUCCESS"

	LogTypeStart    = "start"
	LogTypeAuto     = "auto"
	LogTypeStop     = "stop"
	LogTypeSchedule = "schedule"
)

// LogEntry is an immutable audit record, appended on every significant
// event and never updated.
type LogEntry struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Type      string    `json:"type"`
}
