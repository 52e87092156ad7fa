package window

import (
	"testing"
	"time"
)

type fakeConsumer struct {
	id      string
	nominal float64
	keys    []string
	auto    bool
}

func (f fakeConsumer) ID() string            { return f.id }
func (f fakeConsumer) NominalPower() float64 { return f.nominal }
func (f fakeConsumer) Keys() []string        { return f.keys }
func (f fakeConsumer) AutoAdjust() bool      { return f.auto }

func TestWindow_PushEvictsOldest(t *testing.T) {
	w := New(2)
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	w.Push(PowerRecord{Timestamp: base, Values: map[string]float64{ProductionKey: 1}})
	w.Push(PowerRecord{Timestamp: base.Add(time.Minute), Values: map[string]float64{ProductionKey: 2}})
	w.Push(PowerRecord{Timestamp: base.Add(2 * time.Minute), Values: map[string]float64{ProductionKey: 3}})

	records := w.Snapshot()
	if len(records) != 2 {
		t.Fatalf("expected 2 records after eviction, got %d", len(records))
	}
	if records[0].production() != 2 || records[1].production() != 3 {
		t.Errorf("unexpected eviction order: %+v", records)
	}
}

func TestWindow_PowerUsedBy(t *testing.T) {
	w := New(4)
	w.Push(PowerRecord{
		Values: map[string]float64{ProductionKey: 5, "ev": 3, "pool": 1},
	})
	ev := fakeConsumer{id: "ev", keys: []string{"ev"}}
	if got := w.PowerUsedBy(ev); got != 3 {
		t.Errorf("PowerUsedBy = %v, want 3", got)
	}
}

func TestWindow_AvailableFor_IgnoresOwnDraw(t *testing.T) {
	w := New(4)
	w.Push(PowerRecord{
		Values: map[string]float64{ProductionKey: 10, "ev": 4, "pool": 2},
	})
	ev := fakeConsumer{id: "ev", keys: []string{"ev"}}

	// production 10, minus pool's 2 (ev excluded from "other") = 8 available for ev.
	if got := w.AvailableFor(ev, nil, nil); got != 8 {
		t.Errorf("AvailableFor = %v, want 8", got)
	}
}

func TestWindow_AvailableFor_MinimizeCapsAtNominal(t *testing.T) {
	w := New(4)
	w.Push(PowerRecord{
		Values: map[string]float64{ProductionKey: 10, "ev": 4, "hvac": 5},
	})
	ev := fakeConsumer{id: "ev", keys: []string{"ev"}}
	hvac := fakeConsumer{id: "hvac", keys: []string{"hvac"}, nominal: 3, auto: true}

	// hvac drew 5 but only 3 is nominal; the 2 excess is credited back, so
	// only 3 counts against ev's availability: 10 - 3 = 7.
	if got := w.AvailableFor(ev, []PowerConsumer{hvac}, nil); got != 7 {
		t.Errorf("AvailableFor with minimize = %v, want 7", got)
	}
}

func TestWindow_AvailableFor_NeverNegative(t *testing.T) {
	w := New(4)
	w.Push(PowerRecord{
		Values: map[string]float64{ProductionKey: 1, "ev": 4, "hvac": 10},
	})
	ev := fakeConsumer{id: "ev", keys: []string{"ev"}}

	if got := w.AvailableFor(ev, nil, nil); got != 0 {
		t.Errorf("AvailableFor = %v, want clamped 0", got)
	}
}

func TestWindow_AvailableFor_EmptyWindow(t *testing.T) {
	w := New(4)
	ev := fakeConsumer{id: "ev", keys: []string{"ev"}}
	if got := w.AvailableFor(ev, nil, nil); got != 0 {
		t.Errorf("AvailableFor on empty window = %v, want 0", got)
	}
}

func TestWindow_CoveredByProduction(t *testing.T) {
	w := New(4)
	ev := fakeConsumer{id: "ev", keys: []string{"ev"}}

	// record 1: ev draws 4, 4 available -> fully covered.
	w.Push(PowerRecord{Values: map[string]float64{ProductionKey: 4, "ev": 4}})
	// record 2: ev draws 4, only 2 available -> half covered.
	w.Push(PowerRecord{Values: map[string]float64{ProductionKey: 2, "ev": 4}})

	got := w.CoveredByProduction(ev, nil, nil)
	want := (4.0 + 2.0) / (4.0 + 4.0)
	if got < want-0.0001 || got > want+0.0001 {
		t.Errorf("CoveredByProduction = %v, want %v", got, want)
	}
}

func TestWindow_CoveredByProduction_EmptyWindow(t *testing.T) {
	w := New(4)
	ev := fakeConsumer{id: "ev", keys: []string{"ev"}}
	if got := w.CoveredByProduction(ev, nil, nil); got != 0 {
		t.Errorf("expected 0 on empty window, got %v", got)
	}
}

func TestWindow_CoveredByProduction_IgnoresZeroDrawRecords(t *testing.T) {
	w := New(4)
	ev := fakeConsumer{id: "ev", keys: []string{"ev"}}

	w.Push(PowerRecord{Values: map[string]float64{ProductionKey: 5}}) // ev idle this tick
	w.Push(PowerRecord{Values: map[string]float64{ProductionKey: 5, "ev": 5}})

	if got := w.CoveredByProduction(ev, nil, nil); got != 1 {
		t.Errorf("CoveredByProduction = %v, want 1 (idle record excluded)", got)
	}
}
