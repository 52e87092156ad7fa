// Package task defines the uniform contract every appliance adapter
// implements (§4.4), and the shared total order the scheduler uses to rank
// tasks for start/stop decisions (§4.7).
package task

import (
	"context"

	"github.com/jlindstrom/solar-allocator/window"
)

// Task is borrowed by the scheduler through this interface; it is never
// owned. Every method must return quickly — actual device effects may be
// asynchronous, and Start/Stop must be idempotent.
type Task interface {
	// ID is the stable identifier this task was registered under.
	ID() string

	// Priority is re-evaluated by the task itself every tick.
	Priority() Priority

	// NominalPower is the smallest continuous draw, in kW, this task needs
	// to make useful progress.
	NominalPower() float64

	// Keys lists the channel keys (sub-meter identifiers) this task owns.
	Keys() []string

	// AutoAdjust reports whether this task scales its own draw to absorb
	// surplus production, up to a device-specific maximum.
	AutoAdjust() bool

	// IsRunnable reports whether Start() now could actually cause the
	// device to draw power: false when unreachable, already at goal, or
	// locked out.
	IsRunnable(ctx context.Context) bool

	// IsRunning reflects the actual device state, never a cached intent.
	IsRunning(ctx context.Context) bool

	// IsStoppable is false while a minimum-run-time or safety lockout
	// holds; a task that declines to stop must report false here rather
	// than silently ignoring Stop.
	IsStoppable(ctx context.Context) bool

	// MeetRunningCriteria is the task-local policy deciding whether the
	// supplied power-coverage ratio is acceptable to start or keep running
	// at the given power draw.
	MeetRunningCriteria(ratio, power float64) bool

	// Start and Stop are idempotent and return quickly.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// Usage sums this task's channel keys within the given record.
	Usage(r window.PowerRecord) float64

	// Desc is a one-line status string for dashboards.
	Desc() string
}

// Less implements the scheduler's total order: priority descending,
// auto_adjust ascending (non-adjustable tasks are preferred for starting;
// adjustable ones absorb whatever surplus remains), then identity.
func Less(a, b Task) bool {
	if a.Priority() != b.Priority() {
		return a.Priority() > b.Priority()
	}
	if a.AutoAdjust() != b.AutoAdjust() {
		return !a.AutoAdjust()
	}
	return a.ID() < b.ID()
}
