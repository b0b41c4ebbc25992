package service

import (
	"context"
	"errors"
	"time"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/repository"
)

// PollerService starts unattended cycles at stored wall-clock times. The
// match is minute-granular while the loop runs sub-minute, so the only
// retrigger guard is "no cycle active": a cycle that finished inside its
// matching minute would be started again on the next tick. Cycles are
// assumed to outlast a minute.
type PollerService struct {
	schedules repository.ScheduleRepo
	cleaner   Cleaner
	log       *logger.Logger
	now       func() time.Time
}

func NewPollerService(schedules repository.ScheduleRepo, cleaner Cleaner, log *logger.Logger) *PollerService {
	return &PollerService{
		schedules: schedules,
		cleaner:   cleaner,
		log:       log,
		now:       time.Now,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (p *PollerService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.checkOnce(ctx)
		}
	}
}

// checkOnce loads the schedules and starts a cycle when the current
// minute matches one and nothing is running.
func (p *PollerService) checkOnce(ctx context.Context) {
	times, err := p.schedules.List(ctx)
	if err != nil {
		p.log.Errorw("schedule load failed", "err", err)
		return
	}

	now := p.now().Format(clockLayout)
	for _, t := range times {
		if t != now {
			continue
		}
		if p.cleaner.Status().Active {
			return
		}
		p.log.Infow("starting scheduled cleaning", "time", now)
		if err := p.cleaner.Start(ctx, OriginAuto); err != nil && !errors.Is(err, ErrCycleRunning) {
			p.log.Errorw("scheduled start failed", "err", err)
		}
		return
	}
}
