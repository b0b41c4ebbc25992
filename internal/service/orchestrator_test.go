package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
)

// ---- fakes ----

type fakePublisher struct {
	mu   sync.Mutex
	cmds []models.DeviceCommand
	ch   chan models.DeviceCommand
	err  error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{ch: make(chan models.DeviceCommand, 16)}
}

func (f *fakePublisher) PublishCommand(cmd models.DeviceCommand) error {
	f.mu.Lock()
	f.cmds = append(f.cmds, cmd)
	f.mu.Unlock()
	f.ch <- cmd
	return f.err
}

func (f *fakePublisher) published() []models.DeviceCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.DeviceCommand, len(f.cmds))
	copy(out, f.cmds)
	return out
}

type statusEvent struct {
	status   string
	progress int
}

type fakeNotifier struct {
	mu         sync.Mutex
	statuses   []statusEvent
	progresses []int
	logs       []models.LogEntry
}

func (f *fakeNotifier) StatusUpdate(status string, progress int) {
	f.mu.Lock()
	f.statuses = append(f.statuses, statusEvent{status, progress})
	f.mu.Unlock()
}

func (f *fakeNotifier) ProgressUpdate(progress int) {
	f.mu.Lock()
	f.progresses = append(f.progresses, progress)
	f.mu.Unlock()
}

func (f *fakeNotifier) LogUpdate(e models.LogEntry) {
	f.mu.Lock()
	f.logs = append(f.logs, e)
	f.mu.Unlock()
}

func (f *fakeNotifier) sawStatus(status string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.statuses {
		if ev.status == status {
			return true
		}
	}
	return false
}

func (f *fakeNotifier) lastStatus(t *testing.T) statusEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		t.Fatalf("expected at least one status broadcast")
	}
	return f.statuses[len(f.statuses)-1]
}

type fakeLogRepo struct {
	mu        sync.Mutex
	entries   []models.LogEntry
	appendErr error
}

func (f *fakeLogRepo) Append(ctx context.Context, e models.LogEntry) error {
	f.mu.Lock()
	f.entries = append(f.entries, e)
	f.mu.Unlock()
	return f.appendErr
}

func (f *fakeLogRepo) Recent(ctx context.Context, limit int) ([]models.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LogEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeLogRepo) countAction(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// ---- helpers ----

func newTestOrchestrator() (*Orchestrator, *fakePublisher, *fakeNotifier, *fakeLogRepo) {
	pub := newFakePublisher()
	notifier := &fakeNotifier{}
	logs := &fakeLogRepo{}
	o := NewOrchestrator(pub, notifier, logs, logger.Get(logger.ErrorLevel))
	return o, pub, notifier, logs
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func expectCommand(t *testing.T, pub *fakePublisher, want models.DeviceCommand) {
	t.Helper()
	select {
	case got := <-pub.ch:
		if got != want {
			t.Fatalf("published %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for command %q", want)
	}
}

func expectNoCommand(t *testing.T, pub *fakePublisher) {
	t.Helper()
	select {
	case got := <-pub.ch:
		t.Fatalf("unexpected command %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

// ---- tests ----

func TestStart_RejectsDoubleStart(t *testing.T) {
	o, pub, _, _ := newTestOrchestrator()

	if err := o.Start(context.Background(), OriginManual); err != nil {
		t.Fatalf("first start: %v", err)
	}
	expectCommand(t, pub, models.CommandStart)

	if err := o.Start(context.Background(), OriginManual); err != ErrCycleRunning {
		t.Fatalf("second start: got %v, want ErrCycleRunning", err)
	}

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusDone})
	waitFor(t, "standby", func() bool { return !o.Status().Active })
}

func TestStart_ConcurrentRaceAdmitsExactlyOne(t *testing.T) {
	o, _, _, _ := newTestOrchestrator()

	const attempts = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := o.Start(context.Background(), OriginAuto); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if started != 1 {
		t.Fatalf("%d starts succeeded, want exactly 1", started)
	}

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusStandby})
	waitFor(t, "standby", func() bool { return !o.Status().Active })
}

func TestReachedBottom_PublishesAscendExactlyOnce(t *testing.T) {
	o, pub, notifier, _ := newTestOrchestrator()

	if err := o.Start(context.Background(), OriginManual); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCommand(t, pub, models.CommandStart)

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusReachedBottom})
	expectCommand(t, pub, models.CommandAscend)
	waitFor(t, "ascending broadcast", func() bool { return notifier.sawStatus(string(models.PhaseAscending)) })

	// a duplicate bottom signal is a no-op
	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusReachedBottom})
	expectNoCommand(t, pub)

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusDone})
	waitFor(t, "standby", func() bool { return !o.Status().Active })
	if last := notifier.lastStatus(t); last.status != string(models.PhaseStandby) || last.progress != 0 {
		t.Fatalf("final broadcast %+v, want STANDBY/0", last)
	}
}

func TestDeviceReset_IsIdempotent(t *testing.T) {
	o, pub, notifier, _ := newTestOrchestrator()

	if err := o.Start(context.Background(), OriginManual); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCommand(t, pub, models.CommandStart)

	// let the cycle task pass its opening broadcast before resetting
	waitFor(t, "descending broadcast", func() bool { return notifier.sawStatus(string(models.PhaseDescending)) })

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusStandby})
	waitFor(t, "standby", func() bool { return !o.Status().Active })

	notifier.mu.Lock()
	before := len(notifier.statuses)
	notifier.mu.Unlock()

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusStandby})
	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusDone})

	notifier.mu.Lock()
	after := len(notifier.statuses)
	notifier.mu.Unlock()
	if after != before {
		t.Fatalf("repeated resets broadcast %d extra updates", after-before)
	}
}

func TestProgress_BroadcastsWithoutStateChange(t *testing.T) {
	o, pub, notifier, _ := newTestOrchestrator()

	if err := o.Start(context.Background(), OriginManual); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCommand(t, pub, models.CommandStart)

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusProgress, Progress: 57})

	notifier.mu.Lock()
	got := append([]int(nil), notifier.progresses...)
	notifier.mu.Unlock()
	if len(got) != 1 || got[0] != 57 {
		t.Fatalf("progress broadcasts %v, want [57]", got)
	}

	st := o.Status()
	if !st.Active || st.Status != string(models.PhaseDescending) {
		t.Fatalf("progress changed cycle state: %+v", st)
	}

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusDone})
	waitFor(t, "standby", func() bool { return !o.Status().Active })
}

func TestFullCycle_EndsStandbyWithSingleStartEntry(t *testing.T) {
	o, pub, notifier, logs := newTestOrchestrator()

	if err := o.Start(context.Background(), OriginManual); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCommand(t, pub, models.CommandStart)

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusReachedBottom})
	expectCommand(t, pub, models.CommandAscend)
	waitFor(t, "ascending broadcast", func() bool { return notifier.sawStatus(string(models.PhaseAscending)) })

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusDone})
	waitFor(t, "standby", func() bool { return !o.Status().Active })

	if last := notifier.lastStatus(t); last.status != string(models.PhaseStandby) || last.progress != 0 {
		t.Fatalf("final broadcast %+v, want STANDBY/0", last)
	}
	if n := logs.countAction(models.ActionStartManual); n != 1 {
		t.Fatalf("%d START MANUAL entries, want 1", n)
	}
	if n := logs.countAction(models.ActionStopManual); n != 0 {
		t.Fatalf("%d STOP MANUAL entries, want 0", n)
	}
}

func TestStop_BeforeBottomSignalSkipsAscend(t *testing.T) {
	o, pub, notifier, logs := newTestOrchestrator()

	if err := o.Start(context.Background(), OriginManual); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCommand(t, pub, models.CommandStart)

	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	expectCommand(t, pub, models.CommandReturn)
	waitFor(t, "standby", func() bool { return !o.Status().Active })

	for _, cmd := range pub.published() {
		if cmd == models.CommandAscend {
			t.Fatalf("ascend published after abandoned descent")
		}
	}

	// both the RETURNING broadcast and the standby reset went out
	waitFor(t, "returning broadcast", func() bool { return notifier.sawStatus(models.StatusReturning) })
	waitFor(t, "standby broadcast", func() bool { return notifier.sawStatus(string(models.PhaseStandby)) })
	if n := logs.countAction(models.ActionStopManual); n != 1 {
		t.Fatalf("%d STOP MANUAL entries, want 1", n)
	}
}

func TestStop_WhenIdleIsConflict(t *testing.T) {
	o, _, _, _ := newTestOrchestrator()

	if err := o.Stop(context.Background()); err != ErrNotRunning {
		t.Fatalf("got %v, want ErrNotRunning", err)
	}
}

func TestStop_DuringAscentJoinsCycleTask(t *testing.T) {
	o, pub, _, _ := newTestOrchestrator()

	if err := o.Start(context.Background(), OriginManual); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCommand(t, pub, models.CommandStart)

	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusReachedBottom})
	expectCommand(t, pub, models.CommandAscend)

	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	expectCommand(t, pub, models.CommandReturn)
	waitFor(t, "standby", func() bool { return !o.Status().Active })

	// a fresh cycle can start once the old task has let go
	if err := o.Start(context.Background(), OriginManual); err != nil {
		t.Fatalf("restart: %v", err)
	}
	expectCommand(t, pub, models.CommandStart)
	o.HandleDeviceStatus(models.DeviceStatus{Kind: models.StatusDone})
	waitFor(t, "standby", func() bool { return !o.Status().Active })
}
