// Package sim speaks the device side of the messaging protocol so the
// controller can be exercised without hardware.
package sim

import (
	"sync"
	"time"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
)

// StatusPublisher sends raw status payloads to the status topic.
type StatusPublisher interface {
	PublishStatus(payload string) error
}

// Config tunes the simulated robot's travel.
type Config struct {
	Travel      time.Duration // duration of one leg (descent or ascent)
	Steps       int           // progress ticks per leg
	ReturnDelay time.Duration // time to dock after a return command
}

// Robot simulates the panel cleaner. A `start` command begins an
// interruptible descent ending in REACHED_BOTTOM; `naik` an ascent ending
// in SELESAI; `return` aborts the current leg and docks with STANDBY.
type Robot struct {
	cfg Config
	pub StatusPublisher
	log *logger.Logger

	mu    sync.Mutex
	abort chan struct{}
}

func NewRobot(cfg Config, pub StatusPublisher, log *logger.Logger) *Robot {
	if cfg.Steps <= 0 {
		cfg.Steps = 10
	}
	return &Robot{cfg: cfg, pub: pub, log: log}
}

// HandleCommand reacts to a command from the controller. Legs run in their
// own goroutine so the subscription callback never blocks.
func (r *Robot) HandleCommand(cmd models.DeviceCommand) {
	switch cmd {
	case models.CommandStart:
		r.log.Infow("descending", "travel", r.cfg.Travel)
		go r.descend(r.beginLeg())
	case models.CommandAscend:
		r.log.Infow("ascending", "travel", r.cfg.Travel)
		go r.ascend(r.beginLeg())
	case models.CommandReturn:
		r.log.Infow("returning home")
		r.interrupt()
		go r.returnHome()
	default:
		r.log.Warnw("unknown command", "command", string(cmd))
	}
}

// beginLeg aborts any running leg and arms a fresh abort channel.
func (r *Robot) beginLeg() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.abort != nil {
		close(r.abort)
	}
	r.abort = make(chan struct{})
	return r.abort
}

func (r *Robot) interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.abort != nil {
		close(r.abort)
		r.abort = nil
	}
}

func (r *Robot) descend(abort <-chan struct{}) {
	if r.travel(abort, 0, 50) {
		r.send(models.DeviceStatus{Kind: models.StatusReachedBottom})
	}
}

func (r *Robot) ascend(abort <-chan struct{}) {
	if r.travel(abort, 50, 100) {
		r.send(models.DeviceStatus{Kind: models.StatusDone})
	}
}

func (r *Robot) returnHome() {
	time.Sleep(r.cfg.ReturnDelay)
	r.send(models.DeviceStatus{Kind: models.StatusStandby})
}

// travel walks progress from fromPct to toPct over the leg duration,
// reporting each tick. Returns false when the leg was aborted.
func (r *Robot) travel(abort <-chan struct{}, fromPct, toPct int) bool {
	stepDur := r.cfg.Travel / time.Duration(r.cfg.Steps)
	for i := 1; i <= r.cfg.Steps; i++ {
		select {
		case <-abort:
			return false
		case <-time.After(stepDur):
		}
		pct := fromPct + (toPct-fromPct)*i/r.cfg.Steps
		r.send(models.DeviceStatus{Kind: models.StatusProgress, Progress: pct})
	}
	return true
}

func (r *Robot) send(st models.DeviceStatus) {
	if err := r.pub.PublishStatus(st.Wire()); err != nil {
		r.log.Errorw("status publish failed", "payload", st.Wire(), "err", err)
	}
}
