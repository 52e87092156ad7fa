// Package planner builds deadline-driven target curves for tasks that need
// to reach a goal value by a target time — the water heater reaching a
// target temperature before a scheduled shower, the HVAC reaching a target
// setpoint before an occupant arrives. It replaces the teacher's
// profit-maximising mpc.MPCController.Optimize DP with the single
// deterministic pass spec.md §4.5 describes: find the next PV window big
// enough to run the task, then integrate the relevant thermal model
// backward from the goal to find when the task must start.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/jlindstrom/solar-allocator/pvpredictor"
)

// Plan is the result handed back to a task: a target instant/value pair
// plus a monotone curve the task samples between now and TargetTime to
// decide whether it's on track.
type Plan struct {
	TargetTime  time.Time
	TargetValue float64
	Curve       func(t time.Time) float64
}

// DriftModel answers how fast a value moves toward its goal, in units per
// minute, at a given outdoor temperature — satisfied by thermal.HVACModel
// (via MinutesPerDegree) and thermal.HomeModel through the adapters each
// task provides, so planner stays agnostic to which thermal model backs it.
type DriftModel interface {
	// UnitsPerMinute is the rate of approach toward the goal at the given
	// outdoor temperature, in the task's own units (degrees, percent, ...).
	UnitsPerMinute(outdoorF float64) float64
}

// PlanInput parameterises a single planning pass.
type PlanInput struct {
	Now          time.Time
	GoalTime     time.Time // deadline the value must be reached by
	GoalValue    float64
	CurrentValue float64
	NominalPower float64 // power the task draws while actively running
	Predictor    pvpredictor.Predictor
	Drift        DriftModel
	OutdoorF     func(t time.Time) float64
	Deadband     float64 // per spec.md §4.5, default 0.2
}

// Plan computes the target start time and a curve the caller samples to
// judge progress. It returns an error for a malformed input (goal in the
// past, nil dependencies) or when the predictor's NextPowerWindow fails;
// "no PV window before the deadline" is not an
// error — it is expressed as a Plan whose Curve front-loads the run
// (starts now) so the caller can still make the deadline, consistent with
// spec.md's WaterHeater deadline-override tie-break.
func Plan(ctx context.Context, in PlanInput) (Plan, error) {
	if in.Predictor == nil || in.Drift == nil || in.OutdoorF == nil {
		return Plan{}, fmt.Errorf("planner: missing predictor, drift model, or outdoor source")
	}
	if !in.GoalTime.After(in.Now) {
		return Plan{}, fmt.Errorf("planner: goal time %s is not after now %s", in.GoalTime, in.Now)
	}

	remaining := in.GoalValue - in.CurrentValue
	if remaining <= in.Deadband {
		// Already at goal within the deadband: a flat curve at the goal.
		return Plan{
			TargetTime:  in.Now,
			TargetValue: in.GoalValue,
			Curve:       func(time.Time) float64 { return in.GoalValue },
		}, nil
	}

	runDuration := backwardRunDuration(in, remaining)

	start, _, err := in.Predictor.NextPowerWindow(ctx, in.NominalPower)
	if err != nil {
		return Plan{}, fmt.Errorf("planner: next power window: %w", err)
	}

	targetStart := in.GoalTime.Add(-runDuration)
	if start.IsZero() || start.After(targetStart) {
		// No PV window big enough before the deadline must be met, or the
		// window arrives too late: start now rather than miss the goal.
		targetStart = in.Now
	} else {
		targetStart = start
	}
	if targetStart.Before(in.Now) {
		targetStart = in.Now
	}

	curve := monotoneCurve(in.CurrentValue, in.GoalValue, targetStart, in.GoalTime)

	return Plan{
		TargetTime:  in.GoalTime,
		TargetValue: in.GoalValue,
		Curve:       curve,
	}, nil
}

// backwardRunDuration integrates the drift model backward from the goal,
// sampling outdoor temperature along the way, to estimate how long the task
// must run continuously to cover the remaining distance to goal.
func backwardRunDuration(in PlanInput, remaining float64) time.Duration {
	const step = time.Minute
	covered := 0.0
	elapsed := time.Duration(0)
	t := in.GoalTime

	for covered < remaining && elapsed < 24*time.Hour {
		t = t.Add(-step)
		rate := in.Drift.UnitsPerMinute(in.OutdoorF(t))
		if rate <= 0 {
			rate = 0.01 // avoid an infinite loop on a degenerate model
		}
		covered += rate
		elapsed += step
	}
	return elapsed
}

// monotoneCurve returns a function linear in time between (start, fromV)
// and (goalTime, toV), clamped at both ends — a deadbanded caller treats
// small deviations from this curve as on-track.
func monotoneCurve(fromV, toV float64, start, goalTime time.Time) func(time.Time) float64 {
	total := goalTime.Sub(start)
	return func(t time.Time) float64 {
		if !t.After(start) {
			return fromV
		}
		if !t.Before(goalTime) {
			return toV
		}
		frac := float64(t.Sub(start)) / float64(total)
		return fromV + (toV-fromV)*frac
	}
}
