package task

import (
	"context"
	"sort"

	"github.com/jlindstrom/solar-allocator/window"
)

// ChargerActuator is the command surface CarCharger drives — satisfied by
// actuators.ChargerActuator.
type ChargerActuator interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
	SetCurrentLimit(ctx context.Context, amps float64) error
}

// ChargerLink reports the EV's present state of charge and draw;
// cmd/controller adapts sensors.CarLink's CarLinkStatus to it.
type ChargerLink interface {
	Status(ctx context.Context) (*ChargerStatus, error)
}

// ChargerStatus mirrors sensors.CarLinkStatus; declared locally to avoid
// task depending on sensors.
type ChargerStatus struct {
	Connected     bool
	Charging      bool
	StateOfCharge float64
	DrawKW        float64
}

// PriorityPoint is one (state-of-charge, priority) breakpoint in a
// descending priority table: as SoC falls below Threshold, Priority applies.
type PriorityPoint struct {
	Threshold float64
	Priority  Priority
}

// CarCharger is an auto-adjusting EV charger task: priority rises as the
// vehicle's state of charge falls, and while running it continuously
// retargets its current set-point to the smoothed instantaneous available
// power. Grounded on miners/avalon.go's AvalonQHost: the same idempotent
// WakeUp/Standby/SetWorkMode trio (here Start/Stop/SetCurrentLimit) and the
// same 5-sample trailing LiteStatsHistory smoothing, reused here to damp
// the charger's sub-minute current set-point against a noisy power window.
type CarCharger struct {
	id          string
	actuator    ChargerActuator
	link        ChargerLink
	priorities  []PriorityPoint // must be sorted by descending Threshold
	minCurrent  float64
	maxCurrent  float64
	voltage     float64 // assumed line voltage, for power<->current conversion

	history   []float64 // trailing available-power samples, most recent last
	key       string
}

// NewCarCharger builds a charger task. priorities may be given in any
// order; the task keeps a copy sorted by descending Threshold
// (closest-to-full first).
func NewCarCharger(id string, actuator ChargerActuator, link ChargerLink, priorities []PriorityPoint, minCurrent, maxCurrent, voltage float64) *CarCharger {
	sorted := append([]PriorityPoint(nil), priorities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold > sorted[j].Threshold })
	return &CarCharger{
		id:         id,
		actuator:   actuator,
		link:       link,
		priorities: sorted,
		minCurrent: minCurrent,
		maxCurrent: maxCurrent,
		voltage:    voltage,
		key:        id,
	}
}

func (c *CarCharger) ID() string            { return c.id }
func (c *CarCharger) NominalPower() float64 { return c.minCurrent * c.voltage / 1000 }
func (c *CarCharger) Keys() []string        { return []string{c.key} }
func (c *CarCharger) AutoAdjust() bool      { return true }

func (c *CarCharger) Desc() string {
	return "CarCharger(" + c.id + ")"
}

// Priority walks the descending-threshold table from its lowest Threshold
// upward and returns the priority of the lowest breakpoint the current state
// of charge falls below; if no breakpoint matches (fully charged),
// Background applies.
func (c *CarCharger) Priority() Priority {
	status, err := c.status(context.Background())
	if err != nil || !status.Connected {
		return Background
	}
	for i := len(c.priorities) - 1; i >= 0; i-- {
		if status.StateOfCharge < c.priorities[i].Threshold {
			return c.priorities[i].Priority
		}
	}
	return Background
}

func (c *CarCharger) status(ctx context.Context) (*ChargerStatus, error) {
	return c.link.Status(ctx)
}

func (c *CarCharger) IsRunnable(ctx context.Context) bool {
	status, err := c.status(ctx)
	return err == nil && status.Connected && status.StateOfCharge < 1.0
}

func (c *CarCharger) IsRunning(ctx context.Context) bool {
	running, err := c.actuator.IsRunning(ctx)
	return err == nil && running
}

func (c *CarCharger) IsStoppable(ctx context.Context) bool {
	return true
}

func (c *CarCharger) MeetRunningCriteria(ratio, power float64) bool {
	return ratio >= 0.5
}

func (c *CarCharger) Start(ctx context.Context) error {
	return c.actuator.Start(ctx)
}

func (c *CarCharger) Stop(ctx context.Context) error {
	c.history = nil
	return c.actuator.Stop(ctx)
}

func (c *CarCharger) Usage(r window.PowerRecord) float64 {
	return r.Values[c.key]
}

// Adjust retargets the current set-point to the smoothed available power,
// called each tick while the charger is running and AutoAdjust() is true.
// The 5-sample trailing average mirrors AvalonQHost.LiteStatsHistory's
// fixed-depth smoothing, damping the set-point against single-tick noise in
// the PV window.
func (c *CarCharger) Adjust(ctx context.Context, availablePower float64) error {
	c.history = append(c.history, availablePower)
	if len(c.history) > 5 {
		c.history = c.history[len(c.history)-5:]
	}

	var sum float64
	for _, v := range c.history {
		sum += v
	}
	smoothed := sum / float64(len(c.history))

	amps := smoothed * 1000 / c.voltage
	if amps < c.minCurrent {
		amps = c.minCurrent
	}
	if amps > c.maxCurrent {
		amps = c.maxCurrent
	}
	return c.actuator.SetCurrentLimit(ctx, amps)
}
