package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
	"solarcleaner/internal/repository"
)

var (
	ErrCycleRunning = errors.New("cleaning cycle already running")
	ErrNotRunning   = errors.New("no cleaning cycle is running")
)

// cycle carries the signal channels for one cleaning cycle. Each channel
// is closed at most once, under the orchestrator mutex.
type cycle struct {
	stop    chan struct{} // operator requested an abort
	reverse chan struct{} // robot reported REACHED_BOTTOM
	done    chan struct{} // state was reset to standby
}

func newCycle() *cycle {
	return &cycle{
		stop:    make(chan struct{}),
		reverse: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Orchestrator owns the cycle state machine. It is the sole writer of the
// run/stop/reverse state; everything else reads snapshots through Status.
// The robot is the source of truth for physical position: the server only
// tracks intent and relays device-reported milestones, so no timers or
// distance estimation are needed here.
type Orchestrator struct {
	pub      Publisher
	notifier Notifier
	logs     repository.LogRepo
	log      *logger.Logger

	mu              sync.Mutex
	phase           models.Phase
	stopRequested   bool
	reverseSignaled bool
	progress        int
	cur             *cycle
}

func NewOrchestrator(pub Publisher, notifier Notifier, logs repository.LogRepo, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		pub:      pub,
		notifier: notifier,
		logs:     logs,
		log:      log,
		phase:    models.PhaseStandby,
	}
}

// Start begins a cleaning cycle. The idle check and the transition to
// DESCENDING happen as one step under the mutex, so a manual request and
// an auto trigger racing each other cannot both win.
func (o *Orchestrator) Start(ctx context.Context, origin Origin) error {
	o.mu.Lock()
	if o.phase != models.PhaseStandby {
		o.mu.Unlock()
		return ErrCycleRunning
	}
	c := newCycle()
	o.cur = c
	o.phase = models.PhaseDescending
	o.stopRequested = false
	o.reverseSignaled = false
	o.progress = 0
	o.mu.Unlock()

	if err := o.pub.PublishCommand(models.CommandStart); err != nil {
		// No fallback command path; the broker client reconnects on its own.
		o.log.Errorw("publish start command failed", "err", err)
	}

	action, typ := models.ActionStartManual, models.LogTypeStart
	if origin == OriginAuto {
		action, typ = models.ActionStartAuto, models.LogTypeAuto
	}
	o.logAndEmit(ctx, action, models.LogStatusSuccess, typ)

	go o.runCycle(c)
	return nil
}

// Stop requests a cooperative abort: the robot is told to return home and
// the cycle task observes the stop signal at its next wait. The phase is
// not changed here.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if o.phase == models.PhaseStandby {
		o.mu.Unlock()
		return ErrNotRunning
	}
	if !o.stopRequested {
		o.stopRequested = true
		close(o.cur.stop)
	}
	progress := o.progress
	o.mu.Unlock()

	if err := o.pub.PublishCommand(models.CommandReturn); err != nil {
		o.log.Errorw("publish return command failed", "err", err)
	}
	o.notifier.StatusUpdate(models.StatusReturning, progress)
	o.logAndEmit(ctx, models.ActionStopManual, models.LogStatusSuccess, models.LogTypeStop)
	return nil
}

// Status returns a read-only snapshot.
func (o *Orchestrator) Status() models.CycleStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := string(o.phase)
	if o.stopRequested && o.phase != models.PhaseStandby {
		status = models.StatusReturning
	}
	return models.CycleStatus{
		Active:   o.phase != models.PhaseStandby,
		Status:   status,
		Progress: o.progress,
	}
}

// HandleDeviceStatus reacts to an inbound device message. STANDBY and
// SELESAI are the authoritative "cycle truly finished" signals and always
// win regardless of the current phase.
func (o *Orchestrator) HandleDeviceStatus(st models.DeviceStatus) {
	switch st.Kind {
	case models.StatusProgress:
		o.mu.Lock()
		if o.phase != models.PhaseStandby {
			o.progress = st.Progress
		}
		o.mu.Unlock()
		o.notifier.ProgressUpdate(st.Progress)

	case models.StatusReachedBottom:
		o.mu.Lock()
		if o.phase != models.PhaseStandby && !o.reverseSignaled {
			o.reverseSignaled = true
			close(o.cur.reverse)
		}
		o.mu.Unlock()

	case models.StatusStandby, models.StatusDone:
		o.resetToStandby()
	}
}

// resetToStandby is the single terminal transition. Idempotent: a second
// call while already standby does nothing. Closing done releases the cycle
// task, so it exits without resetting again.
func (o *Orchestrator) resetToStandby() {
	o.mu.Lock()
	if o.phase == models.PhaseStandby {
		o.mu.Unlock()
		return
	}
	o.phase = models.PhaseStandby
	o.stopRequested = false
	o.reverseSignaled = false
	o.progress = 0
	if o.cur != nil {
		close(o.cur.done)
		o.cur = nil
	}
	o.mu.Unlock()

	o.notifier.StatusUpdate(string(models.PhaseStandby), 0)
}

// runCycle drives one cleaning cycle. One instance per active cycle;
// errors are recovered and treated as an implicit stop, never left to
// crash the process.
func (o *Orchestrator) runCycle(c *cycle) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorw("cycle task panicked", "panic", r)
			o.resetToStandby()
		}
	}()

	o.notifier.StatusUpdate(string(models.PhaseDescending), 0)

	// Descending: wait for the robot to report bottom.
	select {
	case <-c.stop:
		// Descent abandoned; the robot is returning home on its own.
		o.resetToStandby()
		return
	case <-c.done:
		// Device-side reset won the race.
		return
	case <-c.reverse:
	}

	o.mu.Lock()
	if o.cur != c {
		// Reset landed between the reverse signal and here.
		o.mu.Unlock()
		return
	}
	o.phase = models.PhaseAscending
	o.progress = 50
	o.mu.Unlock()

	if err := o.pub.PublishCommand(models.CommandAscend); err != nil {
		o.log.Errorw("publish ascend command failed", "err", err)
	}
	o.notifier.StatusUpdate(string(models.PhaseAscending), 50)

	// Ascending: the robot's STANDBY/SELESAI closes done via the reset
	// path; a manual stop ends the cycle from our side.
	select {
	case <-c.stop:
		o.resetToStandby()
	case <-c.done:
	}
}

// logAndEmit appends an audit entry and pushes it to observers. A store
// failure is logged and the broadcast still goes out; the cycle keeps
// running either way.
func (o *Orchestrator) logAndEmit(ctx context.Context, action, status, typ string) {
	e := models.LogEntry{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Status:    status,
		Type:      typ,
	}
	if err := o.logs.Append(ctx, e); err != nil {
		o.log.Errorw("log append failed", "action", action, "err", err)
	}
	o.notifier.LogUpdate(e)
}
