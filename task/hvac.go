package task

import (
	"context"
	"time"

	"github.com/jlindstrom/solar-allocator/planner"
	"github.com/jlindstrom/solar-allocator/pvpredictor"
	"github.com/jlindstrom/solar-allocator/thermal"
	"github.com/jlindstrom/solar-allocator/window"
)

// HVACActuator is the command surface HVAC drives — satisfied by
// actuators.HVACActuator.
type HVACActuator interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
	SetTarget(ctx context.Context, targetF float64) error
}

// IndoorSensor reports the zone's current temperature; cmd/controller
// adapts sensors.Thermostat's Reading to it.
type IndoorSensor interface {
	Read(ctx context.Context) (float64, error)
}

// OutdoorSource reports the forecast outdoor temperature at a given time.
type OutdoorSource func(t time.Time) float64

// HVAC is a deadline-bound, non-adjustable task driving zone temperature to
// GoalTemp by GoalTime via the deadline planner. Grounded on
// scheduler/mpc.go's buildMPCForecast: same "query the PV predictor across
// a future window, fold in a thermal model" shape, with the teacher's
// profit-maximising DP replaced by planner.Plan's single deterministic pass.
type HVAC struct {
	id           string
	actuator     HVACActuator
	indoor       IndoorSensor
	outdoor      OutdoorSource
	key          string
	nominalPower float64

	goalTime  time.Time
	goalTemp  float64
	deadband  float64

	hvacModel thermal.HVACModel
	homeModel thermal.HomeModel
	predictor pvpredictor.Predictor

	plan     planner.Plan
	planSet  bool
}

func NewHVAC(id string, actuator HVACActuator, indoor IndoorSensor, outdoor OutdoorSource, key string, nominalPower float64, goalTime time.Time, goalTemp, deadband float64, hvacModel thermal.HVACModel, homeModel thermal.HomeModel, predictor pvpredictor.Predictor) *HVAC {
	return &HVAC{
		id:           id,
		actuator:     actuator,
		indoor:       indoor,
		outdoor:      outdoor,
		key:          key,
		nominalPower: nominalPower,
		goalTime:     goalTime,
		goalTemp:     goalTemp,
		deadband:     deadband,
		hvacModel:    hvacModel,
		homeModel:    homeModel,
		predictor:    predictor,
	}
}

func (h *HVAC) ID() string            { return h.id }
func (h *HVAC) NominalPower() float64 { return h.nominalPower }
func (h *HVAC) Keys() []string        { return []string{h.key} }
func (h *HVAC) AutoAdjust() bool      { return false }
func (h *HVAC) Desc() string          { return "HVAC(" + h.id + ")" }

// homeDrift adapts thermal.HomeModel into planner.DriftModel: at any given
// outdoor temperature, the drift rate is the home's passive degree-per-
// minute change, folded with the HVAC's own active minutes-per-degree.
type homeDrift struct {
	home    thermal.HomeModel
	hvac    thermal.HVACModel
	indoorF float64
}

func (d homeDrift) UnitsPerMinute(outdoorF float64) float64 {
	active := 0.0
	if mpd := d.hvac.MinutesPerDegree(outdoorF); mpd > 0 {
		active = 1 / mpd
	}
	passive := d.home.DegreePerMinute(d.indoorF, outdoorF)
	return active + passive
}

// refreshPlan recomputes this tick's plan; called from Priority/
// IsRunnable/MeetRunningCriteria so all three see a consistent curve.
func (h *HVAC) refreshPlan(ctx context.Context, now time.Time) planner.Plan {
	indoor, err := h.indoor.Read(ctx)
	if err != nil {
		indoor = h.goalTemp
	}
	plan, err := planner.Plan(ctx, planner.PlanInput{
		Now:          now,
		GoalTime:     h.goalTime,
		GoalValue:    h.goalTemp,
		CurrentValue: indoor,
		NominalPower: h.nominalPower,
		Predictor:    h.predictor,
		Drift:        homeDrift{home: h.homeModel, hvac: h.hvacModel, indoorF: indoor},
		OutdoorF:     h.outdoor,
		Deadband:     h.deadband,
	})
	if err != nil {
		return planner.Plan{TargetTime: h.goalTime, TargetValue: h.goalTemp, Curve: func(time.Time) float64 { return indoor }}
	}
	h.plan = plan
	h.planSet = true
	return plan
}

func (h *HVAC) Priority() Priority {
	now := time.Now()
	if now.After(h.goalTime) {
		return Urgent
	}
	plan := h.refreshPlan(context.Background(), now)

	indoor, err := h.indoor.Read(context.Background())
	if err != nil {
		return Low
	}
	gap := plan.Curve(now) - indoor
	if gap < 0 {
		gap = -gap
	}
	untilTarget := plan.TargetTime.Sub(now)

	switch {
	case gap <= h.deadband:
		return Background
	case untilTarget < time.Hour:
		return Urgent
	case gap > 3*h.deadband:
		return High
	case gap > h.deadband:
		return Medium
	default:
		return Low
	}
}

func (h *HVAC) IsRunnable(ctx context.Context) bool {
	plan := h.refreshPlan(ctx, time.Now())
	return !plan.TargetTime.Equal(time.Time{})
}

func (h *HVAC) IsRunning(ctx context.Context) bool {
	running, err := h.actuator.IsRunning(ctx)
	return err == nil && running
}

func (h *HVAC) IsStoppable(ctx context.Context) bool { return true }

// MeetRunningCriteria justifies running regardless of ratio once now is
// within an hour of the plan's TargetTime, and otherwise requires a ratio of
// at least 0.5. It does not read the indoor temperature or sample the
// plan's curve.
func (h *HVAC) MeetRunningCriteria(ratio, power float64) bool {
	now := time.Now()
	if !h.planSet {
		h.refreshPlan(context.Background(), now)
	}
	if now.After(h.plan.TargetTime.Add(-time.Hour)) {
		return true
	}
	return ratio >= 0.5
}

func (h *HVAC) Start(ctx context.Context) error {
	target := h.goalTemp
	if h.planSet {
		target = h.plan.TargetValue
	}
	if err := h.actuator.SetTarget(ctx, target); err != nil {
		return err
	}
	return h.actuator.Start(ctx)
}

func (h *HVAC) Stop(ctx context.Context) error {
	return h.actuator.Stop(ctx)
}

func (h *HVAC) Usage(r window.PowerRecord) float64 {
	return r.Values[h.key]
}
