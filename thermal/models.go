package thermal

// HVACModel answers how much power an HVAC system draws to hold
// temperature, and how fast it moves indoor temperature, at a given
// outdoor temperature. Both degrade gracefully outside the knots they were
// fitted on: SplineTable clamps rather than extrapolates.
type HVACModel interface {
	// Power is the electrical draw, in kW, to run continuously at the
	// given outdoor temperature.
	Power(outdoorF float64) float64

	// MinutesPerDegree is how long, running continuously at outdoorF, the
	// HVAC takes to move indoor temperature by one degree Fahrenheit.
	MinutesPerDegree(outdoorF float64) float64
}

// HomeModel is the home's passive thermal drift with the HVAC off: how
// many degrees Fahrenheit per minute indoor temperature moves toward
// outdoor temperature, as a function of both.
type HomeModel interface {
	DegreePerMinute(indoorF, outdoorF float64) float64
}

// SplineHVACModel implements HVACModel with two independent 1-D splines:
// one over (outdoorF -> kW), one over (outdoorF -> minutes/degree).
type SplineHVACModel struct {
	power            *SplineTable
	minutesPerDegree *SplineTable
}

// NewSplineHVACModel builds a model from paired knot tables. Both tables
// must share the same outdoor-temperature domain for consistent clamping.
func NewSplineHVACModel(power, minutesPerDegree *SplineTable) *SplineHVACModel {
	return &SplineHVACModel{power: power, minutesPerDegree: minutesPerDegree}
}

func (m *SplineHVACModel) Power(outdoorF float64) float64 {
	return m.power.At(outdoorF)
}

func (m *SplineHVACModel) MinutesPerDegree(outdoorF float64) float64 {
	return m.minutesPerDegree.At(outdoorF)
}

// GridHomeModel implements HomeModel with bilinear interpolation over a
// small (indoorF, outdoorF) grid, generalising SplineTable's 1-D clamped
// lookup to two axes.
type GridHomeModel struct {
	indoor  []float64 // sorted, strictly increasing
	outdoor []float64 // sorted, strictly increasing
	rate    [][]float64 // rate[i][j] = degree/minute at (indoor[i], outdoor[j])
}

// NewGridHomeModel builds a model from a rectangular grid. rate must have
// len(indoor) rows of len(outdoor) columns.
func NewGridHomeModel(indoor, outdoor []float64, rate [][]float64) *GridHomeModel {
	return &GridHomeModel{indoor: indoor, outdoor: outdoor, rate: rate}
}

func (m *GridHomeModel) DegreePerMinute(indoorF, outdoorF float64) float64 {
	i0, i1, fi := bracket(m.indoor, indoorF)
	j0, j1, fj := bracket(m.outdoor, outdoorF)

	v00 := m.rate[i0][j0]
	v01 := m.rate[i0][j1]
	v10 := m.rate[i1][j0]
	v11 := m.rate[i1][j1]

	top := v00 + (v01-v00)*fj
	bot := v10 + (v11-v10)*fj
	return top + (bot-top)*fi
}

// bracket finds the grid interval containing v, clamping at the domain
// edges, and returns the interpolation fraction within that interval.
func bracket(axis []float64, v float64) (lo, hi int, frac float64) {
	n := len(axis)
	if n == 0 {
		return 0, 0, 0
	}
	if n == 1 || v <= axis[0] {
		return 0, 0, 0
	}
	if v >= axis[n-1] {
		return n - 1, n - 1, 0
	}
	for i := 1; i < n; i++ {
		if v == axis[i] {
			return i, i, 0
		}
		if v <= axis[i] {
			span := axis[i] - axis[i-1]
			if span == 0 {
				return i - 1, i, 0
			}
			return i - 1, i, (v - axis[i-1]) / span
		}
	}
	return n - 1, n - 1, 0
}
