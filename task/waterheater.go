package task

import (
	"context"
	"time"

	"github.com/jlindstrom/solar-allocator/planner"
	"github.com/jlindstrom/solar-allocator/window"
)

// WaterHeaterActuator is the command surface WaterHeater drives — satisfied
// by actuators.WaterHeaterActuator.
type WaterHeaterActuator interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
}

// TankSensor reports the tank's current temperature; cmd/controller adapts
// sensors.Thermostat's Reading to it.
type TankSensor interface {
	Read(ctx context.Context) (float64, error)
}

// WaterHeater is a deadline-bound, non-adjustable task: it must reach
// GoalTemp by GoalTime, but near that deadline it overrides the PV coverage
// ratio entirely (spec's deadline-override tie-break). Grounded on
// scheduler/miners.go's manageMiners price-threshold branch — the same
// "compare a derived urgency against a threshold, then act" shape, with
// price replaced by the tank temperature gap and the margin before
// GoalTime — and its "already in X state,
// no action" idiom, turned here into an explicit cool-down timer for
// full-tank detection.
type WaterHeater struct {
	id           string
	actuator     WaterHeaterActuator
	tank         TankSensor
	key          string
	nominalPower float64

	goalTime  time.Time
	goalValue float64
	deadband  float64
	margin    time.Duration // "small margin" before GoalTime that forces URGENT+override

	minRunTime   time.Duration
	noPowerDelay time.Duration

	planFn func(ctx context.Context, now time.Time, current float64) (planner.Plan, error)

	startedAt    time.Time
	running      bool
	coolDownTill time.Time
}

// NewWaterHeater wires a water-heater task. planFn is stored with the task
// but not called: Priority, IsRunnable and MeetRunningCriteria work from the
// tank temperature, the deadband and the margin before GoalTime. In
// production it closes over a planner.Plan call bound to this heater's
// thermal model and the PV predictor.
func NewWaterHeater(id string, actuator WaterHeaterActuator, tank TankSensor, key string, nominalPower float64, goalTime time.Time, goalValue, deadband float64, margin, minRunTime, noPowerDelay time.Duration, planFn func(ctx context.Context, now time.Time, current float64) (planner.Plan, error)) *WaterHeater {
	return &WaterHeater{
		id:           id,
		actuator:     actuator,
		tank:         tank,
		key:          key,
		nominalPower: nominalPower,
		goalTime:     goalTime,
		goalValue:    goalValue,
		deadband:     deadband,
		margin:       margin,
		minRunTime:   minRunTime,
		noPowerDelay: noPowerDelay,
		planFn:       planFn,
	}
}

func (w *WaterHeater) ID() string            { return w.id }
func (w *WaterHeater) NominalPower() float64 { return w.nominalPower }
func (w *WaterHeater) Keys() []string        { return []string{w.key} }
func (w *WaterHeater) AutoAdjust() bool      { return false }
func (w *WaterHeater) Desc() string          { return "WaterHeater(" + w.id + ")" }

// nearDeadline reports whether now is within margin of GoalTime.
func (w *WaterHeater) nearDeadline(now time.Time) bool {
	return !now.Before(w.goalTime.Add(-w.margin)) && now.Before(w.goalTime)
}

func (w *WaterHeater) Priority() Priority {
	now := time.Now()
	if now.After(w.goalTime) || w.nearDeadline(now) {
		return Urgent
	}

	temp, err := w.tank.Read(context.Background())
	if err != nil {
		return Low
	}
	gap := w.goalValue - temp
	switch {
	case gap <= w.deadband:
		return Background
	case gap < w.deadband*5:
		return Low
	case gap < w.deadband*15:
		return Medium
	default:
		return High
	}
}

func (w *WaterHeater) IsRunnable(ctx context.Context) bool {
	now := time.Now()
	if now.Before(w.coolDownTill) {
		return false
	}
	temp, err := w.tank.Read(ctx)
	if err != nil {
		return false
	}
	return w.goalValue-temp > w.deadband
}

func (w *WaterHeater) IsRunning(ctx context.Context) bool {
	running, err := w.actuator.IsRunning(ctx)
	return err == nil && running
}

// IsStoppable enforces MinRunTime: once started, the heater is locked in
// until it has run at least that long, so the scheduler can't chatter it on
// and off across a single borderline tick.
func (w *WaterHeater) IsStoppable(ctx context.Context) bool {
	if !w.running || w.startedAt.IsZero() {
		return true
	}
	return time.Since(w.startedAt) >= w.minRunTime
}

// MeetRunningCriteria honors the deadline override: once URGENT and within
// margin of GoalTime, the heater runs regardless of ratio.
func (w *WaterHeater) MeetRunningCriteria(ratio, power float64) bool {
	if w.nearDeadline(time.Now()) {
		return true
	}
	return ratio >= 0.6
}

func (w *WaterHeater) Start(ctx context.Context) error {
	w.startedAt = time.Now()
	w.running = true
	return w.actuator.Start(ctx)
}

// Stop records that the heater is no longer running and commands the
// actuator off. The full-tank heuristic lives in ObservePower: ~zero draw
// after running at least MinRunTime presumes the tank full and sets a
// cool-down window so the scheduler doesn't immediately restart it on
// stale-power noise.
func (w *WaterHeater) Stop(ctx context.Context) error {
	w.running = false
	return w.actuator.Stop(ctx)
}

// ObservePower is called each tick with this task's metered draw, so the
// full-tank cool-down can be armed without Stop() having to read the window
// itself.
func (w *WaterHeater) ObservePower(power float64) {
	if !w.running || w.startedAt.IsZero() {
		return
	}
	if time.Since(w.startedAt) < w.minRunTime {
		return
	}
	if power <= 0.01 {
		w.coolDownTill = time.Now().Add(4 * w.noPowerDelay)
	}
}

func (w *WaterHeater) Usage(r window.PowerRecord) float64 {
	return r.Values[w.key]
}
