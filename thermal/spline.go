// Package thermal models the two thermal relationships the planner folds
// into its deadline curves: an HVAC's degree-per-minute drift versus
// outdoor temperature, and the home's own passive drift versus indoor and
// outdoor temperature. The HVAC model is backed by SplineTable, a monotone
// cubic Hermite interpolant over sorted knots, and the home model by a
// bilinear (indoor, outdoor) grid — grounded on the same
// discretise-then-interpolate idiom the teacher's mpc.go applies to battery
// SOC (socToIndex/indexToSOC), here applied to a temperature axis instead.
package thermal

import (
	"sort"
	"sync/atomic"
)

// SplineTable is a monotone cubic Hermite spline over sorted knots. It is
// serialisable as plain X/Y slices so persistence can store and restore a
// fitted table, and safe for concurrent use: Fit atomically swaps the
// table a reader sees, so readers never block and never observe a
// half-updated table.
type SplineTable struct {
	knots atomic.Pointer[splineKnots]
}

type splineKnots struct {
	x, y, m []float64 // m holds the Hermite tangents, precomputed once
}

// NewSplineTable returns a table fitted to the given knots. x must be
// strictly increasing; a knot set with fewer than 2 points degenerates to a
// constant function.
func NewSplineTable(x, y []float64) *SplineTable {
	t := &SplineTable{}
	t.Fit(x, y)
	return t
}

// Fit replaces the table's knots atomically. x must be strictly
// increasing; callers sort their own input if necessary.
func (t *SplineTable) Fit(x, y []float64) {
	k := &splineKnots{
		x: append([]float64(nil), x...),
		y: append([]float64(nil), y...),
	}
	k.m = fritschCarlsonTangents(k.x, k.y)
	t.knots.Store(k)
}

// At evaluates the spline at v, clamping to the nearest knot's value when v
// falls outside the fitted domain.
func (t *SplineTable) At(v float64) float64 {
	k := t.knots.Load()
	if k == nil || len(k.x) == 0 {
		return 0
	}
	if len(k.x) == 1 {
		return k.y[0]
	}
	if v <= k.x[0] {
		return k.y[0]
	}
	if v >= k.x[len(k.x)-1] {
		return k.y[len(k.x)-1]
	}

	i := sort.SearchFloat64s(k.x, v)
	if i < len(k.x) && k.x[i] == v {
		return k.y[i]
	}
	// i is the first knot greater than v; the interval is [i-1, i].
	x0, x1 := k.x[i-1], k.x[i]
	y0, y1 := k.y[i-1], k.y[i]
	m0, m1 := k.m[i-1], k.m[i]

	h := x1 - x0
	s := (v - x0) / h
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*y0 + h10*h*m0 + h01*y1 + h11*h*m1
}

// fritschCarlsonTangents computes Hermite tangents that keep the spline
// monotone between consecutive knots when the underlying data is monotone,
// avoiding the overshoot a plain cubic spline can introduce.
func fritschCarlsonTangents(x, y []float64) []float64 {
	n := len(x)
	m := make([]float64, n)
	if n < 2 {
		return m
	}

	delta := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dx := x[i+1] - x[i]
		if dx == 0 {
			delta[i] = 0
			continue
		}
		delta[i] = (y[i+1] - y[i]) / dx
	}

	m[0] = delta[0]
	m[n-1] = delta[n-2]
	for i := 1; i < n-1; i++ {
		if delta[i-1]*delta[i] <= 0 {
			m[i] = 0
			continue
		}
		m[i] = (delta[i-1] + delta[i]) / 2
	}

	// Limit each interval's tangents to three times its secant so the
	// Hermite segment cannot overshoot monotone data.
	for i := 0; i < n-1; i++ {
		if delta[i] == 0 {
			m[i], m[i+1] = 0, 0
			continue
		}
		if m[i]/delta[i] > 3 {
			m[i] = 3 * delta[i]
		}
		if m[i+1]/delta[i] > 3 {
			m[i+1] = 3 * delta[i]
		}
	}
	return m
}
