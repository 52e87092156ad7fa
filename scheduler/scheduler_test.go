package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jlindstrom/solar-allocator/task"
	"github.com/jlindstrom/solar-allocator/window"
)

type fakeTask struct {
	id        string
	priority  task.Priority
	nominal   float64
	keys      []string
	auto      bool
	runnable  bool
	running   bool
	stoppable bool
	meets     bool
	starts    int
	stops     int
}

func (f *fakeTask) ID() string               { return f.id }
func (f *fakeTask) Priority() task.Priority  { return f.priority }
func (f *fakeTask) NominalPower() float64                        { return f.nominal }
func (f *fakeTask) Keys() []string                               { return f.keys }
func (f *fakeTask) AutoAdjust() bool                             { return f.auto }
func (f *fakeTask) IsRunnable(ctx context.Context) bool          { return f.runnable }
func (f *fakeTask) IsRunning(ctx context.Context) bool           { return f.running }
func (f *fakeTask) IsStoppable(ctx context.Context) bool         { return f.stoppable }
func (f *fakeTask) MeetRunningCriteria(ratio, power float64) bool { return f.meets }
func (f *fakeTask) Start(ctx context.Context) error              { f.starts++; f.running = true; return nil }
func (f *fakeTask) Stop(ctx context.Context) error               { f.stops++; f.running = false; return nil }
func (f *fakeTask) Usage(r window.PowerRecord) float64 {
	var sum float64
	for _, k := range f.keys {
		sum += r.Values[k]
	}
	return sum
}
func (f *fakeTask) Desc() string { return f.id }

func TestScheduler_RegisterRejectsKeyCollision(t *testing.T) {
	s := New(window.New(10), nil, time.Second)
	a := &fakeTask{id: "a", keys: []string{"ev"}, stoppable: true}
	b := &fakeTask{id: "b", keys: []string{"ev"}, stoppable: true}

	if err := s.Register("a", a); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if err := s.Register("b", b); err == nil {
		t.Error("expected channel key collision to be rejected")
	}
}

func TestScheduler_RegisterRejectsDuplicateID(t *testing.T) {
	s := New(window.New(10), nil, time.Second)
	a := &fakeTask{id: "a", keys: []string{"ev"}}
	if err := s.Register("a", a); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("a", a); err == nil {
		t.Error("expected duplicate ID registration to be rejected")
	}
}

func TestScheduler_Tick_StartsRunnableTaskThatMeetsCriteria(t *testing.T) {
	s := New(window.New(10), nil, time.Second)
	ev := &fakeTask{id: "ev", keys: []string{"ev"}, nominal: 3, runnable: true, meets: true, stoppable: true}
	s.Register("ev", ev)

	s.Tick(context.Background(), window.PowerRecord{
		Timestamp: time.Now(),
		Values:    map[string]float64{window.ProductionKey: 5},
	})

	if ev.starts != 1 {
		t.Errorf("starts = %d, want 1", ev.starts)
	}
}

func TestScheduler_Tick_StopsTaskThatNoLongerMeetsCriteria(t *testing.T) {
	s := New(window.New(10), nil, time.Second)
	wh := &fakeTask{id: "wh", keys: []string{"wh"}, nominal: 4, runnable: true, running: true, meets: false, stoppable: true}
	s.Register("wh", wh)

	s.Tick(context.Background(), window.PowerRecord{
		Timestamp: time.Now(),
		Values:    map[string]float64{window.ProductionKey: 0, "wh": 4},
	})

	if wh.stops != 1 {
		t.Errorf("stops = %d, want 1", wh.stops)
	}
}

func TestScheduler_Pause_SkipsStartPass(t *testing.T) {
	s := New(window.New(10), nil, time.Second)
	ev := &fakeTask{id: "ev", keys: []string{"ev"}, nominal: 3, runnable: true, meets: true, stoppable: true}
	s.Register("ev", ev)
	s.Pause()

	s.Tick(context.Background(), window.PowerRecord{
		Timestamp: time.Now(),
		Values:    map[string]float64{window.ProductionKey: 5},
	})

	if ev.starts != 0 {
		t.Errorf("starts while paused = %d, want 0", ev.starts)
	}
}

func TestScheduler_StopAll_BypassesIsStoppable(t *testing.T) {
	s := New(window.New(10), nil, time.Second)
	wh := &fakeTask{id: "wh", keys: []string{"wh"}, running: true, stoppable: false}
	s.Register("wh", wh)

	s.StopAll(context.Background())

	if wh.stops != 1 {
		t.Errorf("StopAll should stop even a non-stoppable task, stops = %d", wh.stops)
	}
}

func TestScheduler_Unregister_FreesChannelKey(t *testing.T) {
	s := New(window.New(10), nil, time.Second)
	a := &fakeTask{id: "a", keys: []string{"ev"}}
	s.Register("a", a)
	s.Unregister("a")

	b := &fakeTask{id: "b", keys: []string{"ev"}}
	if err := s.Register("b", b); err != nil {
		t.Errorf("expected key to be free after Unregister, got: %v", err)
	}
}
