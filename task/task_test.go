package task

import (
	"context"
	"testing"

	"github.com/jlindstrom/solar-allocator/window"
)

type fakeTask struct {
	id       string
	priority Priority
	auto     bool
}

func (f fakeTask) ID() string                                 { return f.id }
func (f fakeTask) Priority() Priority                         { return f.priority }
func (f fakeTask) NominalPower() float64                      { return 0 }
func (f fakeTask) Keys() []string                             { return []string{f.id} }
func (f fakeTask) AutoAdjust() bool                           { return f.auto }
func (f fakeTask) IsRunnable(ctx context.Context) bool        { return true }
func (f fakeTask) IsRunning(ctx context.Context) bool         { return false }
func (f fakeTask) IsStoppable(ctx context.Context) bool       { return true }
func (f fakeTask) MeetRunningCriteria(ratio, power float64) bool { return ratio >= 0.5 }
func (f fakeTask) Start(ctx context.Context) error            { return nil }
func (f fakeTask) Stop(ctx context.Context) error             { return nil }
func (f fakeTask) Usage(r window.PowerRecord) float64         { return r.Values[f.id] }
func (f fakeTask) Desc() string                               { return f.id }

func TestPriority_Ordering(t *testing.T) {
	if !Background.Less(Low) || !Low.Less(Medium) || !Medium.Less(High) || !High.Less(Urgent) {
		t.Error("priority levels are not in ascending order")
	}
	if Urgent.Less(Background) {
		t.Error("Urgent should not be less than Background")
	}
}

func TestPriority_String(t *testing.T) {
	cases := map[Priority]string{
		Background: "Background",
		Low:        "Low",
		Medium:     "Medium",
		High:       "High",
		Urgent:     "Urgent",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", p, got, want)
		}
	}
}

func TestLess_PriorityDominates(t *testing.T) {
	a := fakeTask{id: "a", priority: High}
	b := fakeTask{id: "b", priority: Low}
	if !Less(a, b) {
		t.Error("higher-priority task should sort first")
	}
}

func TestLess_AutoAdjustTieBreak(t *testing.T) {
	a := fakeTask{id: "a", priority: Medium, auto: false}
	b := fakeTask{id: "b", priority: Medium, auto: true}
	if !Less(a, b) {
		t.Error("non-auto-adjust task should sort before auto-adjust at equal priority")
	}
}

func TestLess_IDTieBreak(t *testing.T) {
	a := fakeTask{id: "a", priority: Medium}
	b := fakeTask{id: "b", priority: Medium}
	if !Less(a, b) {
		t.Error("lexicographically smaller ID should sort first")
	}
}
