package models

// Phase is the orchestrator's current stage within a cleaning cycle.
type Phase string

const (
	PhaseStandby    Phase = "STANDBY"
	PhaseDescending Phase = "DESCENDING"
	PhaseAscending  Phase = "ASCENDING"
)

// Broadcast status for an aborted cycle while the robot travels home.
// Not a phase: the cycle task still owns the phase until the reset lands.
const StatusReturning = "RETURNING"

// CycleStatus is a read-only snapshot of the orchestrator state.
type CycleStatus struct {
	Active   bool   `json:"active"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}
