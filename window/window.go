// Package window implements the sliding-window power estimator (§4.3). It
// generalises the teacher's scheduler/data.go DataSamples/PVSamples — which
// each accumulated one flat kind of sample and integrated it over a period —
// into a fixed-size ring of per-channel PowerRecords with the two coverage
// queries spec.md requires.
package window

import (
	"sync"
	"time"
)

// ProductionKey is the reserved channel key holding total PV production in
// a PowerRecord's Values map; every other key is a task's own channel,
// named after that task's Keys().
const ProductionKey = "production"

// PowerRecord is one sampling instant: PV production and every task's
// consumption, all in the same map keyed by channel. It is immutable once
// pushed — callers build a full record, then Push it.
type PowerRecord struct {
	Timestamp time.Time
	Values    map[string]float64
}

// production returns the record's total PV output.
func (r PowerRecord) production() float64 {
	return r.Values[ProductionKey]
}

// channelSum returns the sum of the record's values across the given keys.
// Unknown keys contribute zero rather than erroring — a task whose meter
// hasn't reported yet simply reads as idle.
func (r PowerRecord) channelSum(keys []string) float64 {
	var total float64
	for _, k := range keys {
		total += r.Values[k]
	}
	return total
}

// PowerConsumer is the subset of task.Task that window needs. It is
// declared locally, rather than importing package task, so that task can in
// turn depend on window for PowerRecord without an import cycle; any
// task.Task value satisfies this interface structurally.
type PowerConsumer interface {
	ID() string
	NominalPower() float64
	Keys() []string
	AutoAdjust() bool
}

// Window is a fixed-capacity ring of PowerRecords. It is safe for
// concurrent use: the scheduler owns writes on its tick goroutine, while
// Snapshot gives the dashboard a consistent copy taken under the same mutex
// Push uses, so the lock is held only for the copy, not while it is read.
type Window struct {
	mu       sync.Mutex
	records  []PowerRecord
	capacity int
	next     int
	size     int
}

// New returns a Window holding at most capacity records (config
// window_size, default 60). capacity must be positive.
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		records:  make([]PowerRecord, capacity),
		capacity: capacity,
	}
}

// Push appends r, evicting the oldest record once capacity is reached.
func (w *Window) Push(r PowerRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records[w.next] = r
	w.next = (w.next + 1) % w.capacity
	if w.size < w.capacity {
		w.size++
	}
}

// Snapshot returns the records currently held, oldest first, as a copy safe
// to read without the Window's lock.
func (w *Window) Snapshot() []PowerRecord {
	return w.snapshot()
}

func (w *Window) snapshot() []PowerRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]PowerRecord, w.size)
	start := (w.next - w.size + w.capacity) % w.capacity
	for i := 0; i < w.size; i++ {
		out[i] = w.records[(start+i)%w.capacity]
	}
	return out
}

// latest returns the most recent record and whether the window holds any.
func (w *Window) latest() (PowerRecord, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.size == 0 {
		return PowerRecord{}, false
	}
	idx := (w.next - 1 + w.capacity) % w.capacity
	return w.records[idx], true
}

// PowerUsedBy sums t's channel keys across the most recent record, or 0 if
// the window is empty.
func (w *Window) PowerUsedBy(t PowerConsumer) float64 {
	r, ok := w.latest()
	if !ok {
		return 0
	}
	return r.channelSum(t.Keys())
}

// AvailableFor implements spec.md's instantaneous-availability formula from
// the latest record only: production minus every other task's consumption,
// except that ignore's consumption is not subtracted at all and minimum's
// consumption is capped at each task's own NominalPower (spec.md Open Question #1: the
// "minimize" resolution — an auto-adjust task already drawing above its own
// nominal power should not have that excess counted against itself when
// deciding whether it may keep running). Never negative.
func (w *Window) AvailableFor(t PowerConsumer, minimum, ignore []PowerConsumer) float64 {
	r, ok := w.latest()
	if !ok {
		return 0
	}
	return clampNonNegative(availableIn(r, t, minimum, ignore))
}

func availableIn(r PowerRecord, t PowerConsumer, minimum, ignore []PowerConsumer) float64 {
	excluded := make(map[string]struct{}, len(t.Keys()))
	for _, k := range t.Keys() {
		excluded[k] = struct{}{}
	}

	other := r.production()
	for key, power := range r.Values {
		if key == ProductionKey {
			continue
		}
		if _, skip := excluded[key]; skip {
			continue
		}
		other -= power
	}

	for _, m := range minimum {
		used := r.channelSum(m.Keys())
		if used > m.NominalPower() {
			// the excess above nominal was already subtracted above via
			// r.Values; add it back so only the nominal share counts
			// against t.
			other += used - m.NominalPower()
		}
	}

	// ignore's consumption was subtracted above with every other channel;
	// add it back in full, once per channel key, so it does not count
	// against t.
	seen := make(map[string]struct{})
	for _, g := range ignore {
		for _, k := range g.Keys() {
			if _, skip := excluded[k]; skip {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			other += r.Values[k]
		}
	}

	return other
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// CoveredByProduction sums, across every record currently in the window,
// the fraction of t's own draw that production covered once every other
// task's consumption is accounted for — minimize/ignore resolve the same
// way as AvailableFor, but applied per record and averaged. The result is
// in [0, 1]; an empty window or a t that never drew power returns 0.
func (w *Window) CoveredByProduction(t PowerConsumer, minimize, ignore []PowerConsumer) float64 {
	records := w.snapshot()
	if len(records) == 0 {
		return 0
	}

	var coveredSum, drawSum float64
	for _, r := range records {
		draw := r.channelSum(t.Keys())
		if draw <= 0 {
			continue
		}
		available := availableIn(r, t, minimize, ignore)
		covered := draw
		if available < draw {
			covered = clampNonNegative(available)
		}
		coveredSum += covered
		drawSum += draw
	}

	if drawSum == 0 {
		return 0
	}
	return coveredSum / drawSum
}
