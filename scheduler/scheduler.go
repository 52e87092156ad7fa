// Package scheduler implements the priority-based decision loop (C9/C10):
// each tick it ingests a power sample, refreshes every task's priority,
// stops tasks (ascending importance) that no longer justify their draw,
// starts tasks (descending importance, with preemption) that do, and
// retargets auto-adjust tasks still running. PeriodicTask/run is kept
// nearly verbatim from the teacher's own tick-loop idiom; everything
// miner-specific collapses into the single domain-agnostic Tick method.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jlindstrom/solar-allocator/remote"
	"github.com/jlindstrom/solar-allocator/task"
	"github.com/jlindstrom/solar-allocator/window"
)

// PeriodicTask runs a function on an interval, with an optional initial
// delay, kept verbatim from the teacher's own loop idiom: the tick loop
// itself is a PeriodicTask like any other registered periodic job.
type PeriodicTask struct {
	name         string
	initialDelay time.Duration
	interval     time.Duration
	runFunc      func()
}

func (pt *PeriodicTask) run(ctx context.Context, stopChan <-chan struct{}, logger *log.Logger) {
	if pt.initialDelay > 0 {
		logger.Printf("[%s] waiting initial delay: %v", pt.name, pt.initialDelay)
		select {
		case <-time.After(pt.initialDelay):
			pt.runFunc()
		case <-ctx.Done():
			return
		case <-stopChan:
			return
		}
	} else {
		pt.runFunc()
	}

	ticker := time.NewTicker(pt.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pt.runFunc()
		case <-ctx.Done():
			logger.Printf("[%s] stopped: context cancelled", pt.name)
			return
		case <-stopChan:
			logger.Printf("[%s] stopped: stop signal", pt.name)
			return
		}
	}
}

const maxConsecutiveStaleObservations = 3

// Scheduler owns the shared sliding window and the roster of registered
// tasks, and runs the per-tick decision algorithm against them.
type Scheduler struct {
	mu       sync.RWMutex
	tasks    map[string]task.Task
	keys     map[string]string // channel key -> owning task id, rejects collisions at Register
	window   *window.Window
	logger   *log.Logger
	timeout  time.Duration
	isRunning bool
	paused    bool
	stopChan  chan struct{}

	staleCounts map[string]int
	sanitised   map[string]bool

	lastTick time.Time // zero until the first Tick; used to measure the elapsed interval for Accumulate
}

// New builds a Scheduler over win, with adapterTimeout bounding every
// remote.Call made against a task during a tick.
func New(win *window.Window, logger *log.Logger, adapterTimeout time.Duration) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		tasks:       make(map[string]task.Task),
		keys:        make(map[string]string),
		window:      win,
		logger:      logger,
		timeout:     adapterTimeout,
		stopChan:    make(chan struct{}),
		staleCounts: make(map[string]int),
		sanitised:   make(map[string]bool),
	}
}

// Register adds t to the roster. Channel-key collisions are rejected: two
// tasks sharing a window channel would double-count consumption, so this is
// a configuration error rather than something the tick loop should paper
// over (spec's resolved Open Question #3).
func (s *Scheduler) Register(id string, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; exists {
		return fmt.Errorf("scheduler: task %q already registered", id)
	}
	for _, k := range t.Keys() {
		if owner, taken := s.keys[k]; taken {
			return fmt.Errorf("scheduler: channel key %q already owned by task %q", k, owner)
		}
	}
	for _, k := range t.Keys() {
		s.keys[k] = id
	}
	s.tasks[id] = t
	return nil
}

// Unregister removes a task and frees its channel keys.
func (s *Scheduler) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return
	}
	for _, k := range t.Keys() {
		delete(s.keys, k)
	}
	delete(s.tasks, id)
	delete(s.staleCounts, id)
	delete(s.sanitised, id)
}

// Pause suspends new start decisions; already-running tasks continue to be
// evaluated for stop decisions so the system can wind down safely.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// StopAll stops every running task regardless of IsStoppable, per spec's
// resolved Open Question #2 — a deliberate bypass of the usual safety
// lockout for emergency/shutdown use.
func (s *Scheduler) StopAll(ctx context.Context) {
	s.mu.RLock()
	tasks := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.RUnlock()

	for _, t := range tasks {
		if t.IsRunning(ctx) {
			result := remote.CallVoid(ctx, s.timeout, t.Stop)
			if result.Status != remote.Ok {
				s.logger.Printf("[scheduler] StopAll: failed to stop %s: %v", t.ID(), result.Err)
			}
		}
	}
}

// Tasks returns each registered task's Desc() string, for dashboards.
func (s *Scheduler) Tasks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Desc())
	}
	sort.Strings(out)
	return out
}

// Window exposes the scheduler's window for read-only snapshotting by the
// webserver; the scheduler's own tick never takes the window's lock beyond
// what Window itself already serialises internally.
func (s *Scheduler) Window() *window.Window {
	return s.window
}

// Tick runs one full decision pass: ingest the sample, sanitise stale
// tasks, refresh priorities, partition into running/idle, stop (ascending
// importance), start (descending importance, with preemption), then adjust
// any auto-adjust task still running.
func (s *Scheduler) Tick(ctx context.Context, sample window.PowerRecord) {
	s.window.Push(sample)

	s.mu.RLock()
	tasks := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	paused := s.paused
	s.mu.RUnlock()

	s.observe(ctx, tasks)

	runnable := s.sanitise(ctx, tasks)

	sort.Slice(runnable, func(i, j int) bool { return task.Less(runnable[i], runnable[j]) })

	s.stopPass(ctx, runnable)
	if !paused {
		s.startPass(ctx, runnable)
	}
	s.adjustPass(ctx, runnable)
}

// observe feeds each task's own per-tick bookkeeping hooks before the
// decision passes run, so a task's priority and runnability reflect this
// tick's reading: WaterHeater's full-tank cool-down timer (ObservePower) and
// PoolPump's cumulative on-time (Accumulate), each picked up via a local
// structural interface rather than a type switch, same idiom as adjuster.
func (s *Scheduler) observe(ctx context.Context, tasks []task.Task) {
	now := time.Now()
	elapsed := time.Duration(0)
	if !s.lastTick.IsZero() {
		elapsed = now.Sub(s.lastTick)
	}
	s.lastTick = now

	for _, t := range tasks {
		if po, ok := t.(powerObserver); ok {
			po.ObservePower(s.window.PowerUsedBy(t))
		}
		if ra, ok := t.(runtimeAccumulator); ok {
			ra.Accumulate(now, elapsed, t.IsRunning(ctx))
		}
	}
}

// powerObserver is implemented by tasks that need their own metered draw
// each tick; WaterHeater uses it to arm its full-tank cool-down.
type powerObserver interface {
	ObservePower(power float64)
}

// runtimeAccumulator is implemented by tasks that track cumulative run-time
// against a recurring quota; PoolPump uses it to fold this tick's run state
// into today's total.
type runtimeAccumulator interface {
	Accumulate(now time.Time, tickInterval time.Duration, ran bool)
}

// sanitise drops, for this tick, every task whose IsRunnable call times out
// and every task that reports not runnable. After
// maxConsecutiveStaleObservations timeouts in a row it logs the task and
// flags it as sanitised; the counter and the flag clear on the next clean
// observation.
func (s *Scheduler) sanitise(ctx context.Context, tasks []task.Task) []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ok []task.Task
	for _, t := range tasks {
		result := remote.Call(ctx, s.timeout, func(ctx context.Context) (bool, error) {
			return t.IsRunnable(ctx), nil
		})
		if result.Status != remote.Ok {
			s.staleCounts[t.ID()]++
			if s.staleCounts[t.ID()] >= maxConsecutiveStaleObservations {
				s.sanitised[t.ID()] = true
				s.logger.Printf("[scheduler] task %s sanitised after %d stale observations", t.ID(), s.staleCounts[t.ID()])
			}
			continue
		}
		s.staleCounts[t.ID()] = 0
		delete(s.sanitised, t.ID())
		if result.Value {
			ok = append(ok, t)
		}
	}
	return ok
}

// runningAutoAdjust returns every running, auto-adjusting task in ordered
// other than except, as window.PowerConsumers — the running_auto_adjust set
// passed as minimize/minimum so only each such task's nominal share, not its
// excess draw above it, counts against everyone else's available power. except must
// never appear in its own set: availableIn already excludes t's own channel
// keys from the baseline subtraction, so re-adding them here would double
// count.
func (s *Scheduler) runningAutoAdjust(ctx context.Context, ordered []task.Task, except task.Task) []window.PowerConsumer {
	var out []window.PowerConsumer
	for _, t := range ordered {
		if t.ID() == except.ID() {
			continue
		}
		if !t.AutoAdjust() || !t.IsRunning(ctx) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// lowerPriorityRunning returns the running tasks among lowerPriority, as
// window.PowerConsumers — the ignore set startPass passes so a task being
// considered for start isn't penalized by draw that preemption is about to
// free up anyway.
func lowerPriorityRunning(ctx context.Context, lowerPriority []task.Task) []window.PowerConsumer {
	var out []window.PowerConsumer
	for _, t := range lowerPriority {
		if t.IsRunning(ctx) {
			out = append(out, t)
		}
	}
	return out
}

// stopPass walks tasks in ascending importance (ordered runnable is
// descending already, so this reverses it) and stops any running task that
// no longer meets its running criteria.
func (s *Scheduler) stopPass(ctx context.Context, ordered []task.Task) {
	for i := len(ordered) - 1; i >= 0; i-- {
		t := ordered[i]
		if !t.IsRunning(ctx) {
			continue
		}
		if !t.IsStoppable(ctx) {
			continue
		}
		minimize := s.runningAutoAdjust(ctx, ordered, t)
		ratio := s.window.CoveredByProduction(t, minimize, nil)
		power := s.window.PowerUsedBy(t)
		if t.MeetRunningCriteria(ratio, power) {
			continue
		}
		result := remote.CallVoid(ctx, s.timeout, t.Stop)
		if result.Status != remote.Ok {
			s.logger.Printf("[scheduler] failed to stop %s: %v", t.ID(), result.Err)
		}
	}
}

// startPass walks tasks in descending importance and starts any idle task
// that meets its running criteria, preempting lower-priority running tasks
// when the available power doesn't otherwise cover it.
func (s *Scheduler) startPass(ctx context.Context, ordered []task.Task) {
	for i, t := range ordered {
		if t.IsRunning(ctx) {
			continue
		}
		var lower []task.Task
		for _, o := range ordered[i+1:] {
			if o.Priority() < t.Priority() {
				lower = append(lower, o)
			}
		}
		minimum := s.runningAutoAdjust(ctx, ordered, t)
		ignore := lowerPriorityRunning(ctx, lower)
		available := s.window.AvailableFor(t, minimum, ignore)
		ratio := s.window.CoveredByProduction(t, minimum, ignore)
		if !t.MeetRunningCriteria(ratio, t.NominalPower()) {
			continue
		}

		if available < t.NominalPower() {
			s.preempt(ctx, lower, t.NominalPower()-available)
		}

		result := remote.CallVoid(ctx, s.timeout, t.Start)
		if result.Status != remote.Ok {
			s.logger.Printf("[scheduler] failed to start %s: %v", t.ID(), result.Err)
		}
	}
}

// preempt stops lower-priority running tasks, in ascending importance
// order, until at least `need` kW has been freed or there is nothing left
// to stop — the scenario spec.md's worked example ("EV arrives at 10% SoC,
// priority URGENT... scheduler stops water heater, starts EV") describes.
func (s *Scheduler) preempt(ctx context.Context, lowerPriority []task.Task, need float64) {
	for i := len(lowerPriority) - 1; i >= 0; i-- {
		if need <= 0 {
			return
		}
		t := lowerPriority[i]
		if !t.IsRunning(ctx) || !t.IsStoppable(ctx) {
			continue
		}
		freed := s.window.PowerUsedBy(t)
		result := remote.CallVoid(ctx, s.timeout, t.Stop)
		if result.Status == remote.Ok {
			need -= freed
		}
	}
}

// adjustPass retargets every running auto-adjust task; CarCharger is the
// only current adapter implementing this, exposed through a local
// structural interface rather than a type switch so future auto-adjust
// tasks need no scheduler change.
type adjuster interface {
	Adjust(ctx context.Context, availablePower float64) error
}

func (s *Scheduler) adjustPass(ctx context.Context, ordered []task.Task) {
	for _, t := range ordered {
		if !t.AutoAdjust() || !t.IsRunning(ctx) {
			continue
		}
		a, ok := t.(adjuster)
		if !ok {
			continue
		}
		minimum := s.runningAutoAdjust(ctx, ordered, t)
		available := s.window.AvailableFor(t, minimum, nil) + s.window.PowerUsedBy(t)
		if err := a.Adjust(ctx, available); err != nil {
			s.logger.Printf("[scheduler] failed to adjust %s: %v", t.ID(), err)
		}
	}
}

// Status is the dashboard-facing summary of one tick's outcome.
type Status struct {
	Timestamp time.Time `json:"timestamp"`
	Tasks     []string  `json:"tasks"`
	Paused    bool      `json:"paused"`
	IsRunning bool      `json:"is_running"`
	TaskCount int       `json:"task_count"`
}

func (s *Scheduler) Status() Status {
	s.mu.RLock()
	paused := s.paused
	running := s.isRunning
	count := len(s.tasks)
	s.mu.RUnlock()
	return Status{Timestamp: time.Now(), Tasks: s.Tasks(), Paused: paused, IsRunning: running, TaskCount: count}
}

// IsRunning reports whether Run's periodic tick loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// SampleFunc produces the next power sample for Run's tick loop, pulling
// readings from every registered sensor into a single PowerRecord.
type SampleFunc func(ctx context.Context) (window.PowerRecord, error)

// Run drives Tick on a PeriodicTask, the same initial-delay-then-ticker
// loop every other periodic job in this package uses, until ctx is
// cancelled or Stop is called. sample is expected to be the caller's
// sensor-polling closure; a sample error is logged and skipped rather than
// stopping the loop, since a single stale sensor shouldn't halt every task.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, sample SampleFunc) {
	s.mu.Lock()
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stopChan := s.stopChan
	s.mu.Unlock()

	pt := &PeriodicTask{
		name:     "scheduler-tick",
		interval: interval,
		runFunc: func() {
			result := remote.Call(ctx, s.timeout, func(ctx context.Context) (window.PowerRecord, error) {
				return sample(ctx)
			})
			if result.Status != remote.Ok {
				s.logger.Printf("[scheduler] sample failed: %v", result.Err)
				return
			}
			s.Tick(ctx, result.Value)
		},
	}
	pt.run(ctx, stopChan, s.logger)

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

// Stop ends a running Run loop; it does not itself stop any task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
