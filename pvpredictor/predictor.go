// Package pvpredictor estimates photovoltaic production at arbitrary
// future instants. It is grounded on the teacher's
// scheduler/mpc.go:estimateSolarPowerFromWeather cloud-factor model and
// sun/example/main.go's use of github.com/sixdouglas/suncalc for solar
// position and sunrise/sunset, refined from the teacher's one-hour forecast
// buckets to per-minute sampling; each minute uses the nearest forecast
// timestep, without interpolating between timesteps.
package pvpredictor

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/jlindstrom/solar-allocator/weather"
)

// WeatherPoint is the subset of a forecast timestep the predictor needs:
// cloud cover and the symbol code used for the snow heuristic.
type WeatherPoint struct {
	Timestamp         time.Time
	CloudAreaFraction float64 // percent, 0-100
	SymbolCode        string
}

// Predictor is the contract the planner and scheduler query for expected
// PV production.
type Predictor interface {
	// PowerAt estimates production, in kW, at instant t. A nil weather
	// point triggers an internal forecast lookup.
	PowerAt(t time.Time, weather *WeatherPoint) (float64, error)

	// MaxAvailablePower is the best production expected over the rest of
	// today, used as the nominal-power ceiling callers compare draws
	// against.
	MaxAvailablePower(ctx context.Context) (float64, error)

	// NextPowerWindow finds the next [start, end) interval, at or after
	// now, where PowerAt is expected to stay at or above minPower for its
	// whole duration. A zero start/end pair with a nil error means no such
	// window exists before dusk.
	NextPowerWindow(ctx context.Context, minPower float64) (start, end time.Time, err error)

	// OptimalTime is the instant, within today's daylight, of peak
	// expected production.
	OptimalTime(ctx context.Context) (time.Time, error)

	// Daytime returns the dawn and dusk instants for the given calendar
	// day at the predictor's configured location.
	Daytime(day time.Time) (dawn, dusk time.Time)
}

// Site fixes a predictor's physical parameters: panel location and rated
// peak output.
type Site struct {
	Latitude  float64
	Longitude float64
	PeakPower float64 // kW at full sun, no cloud
}

// Source fetches weather forecasts; production code backs it with
// weather.Client, tests inject a fake.
type Source interface {
	Forecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

// SolarPredictor is the production Predictor implementation.
type SolarPredictor struct {
	site    Site
	source  Source
	logger  *log.Logger
	epsilon float64 // pv.forecast_epsilon; the day cache does not consult it

	mu          sync.Mutex
	cachedDay   time.Time
	cachedTemp  float64
	cached      *weather.Forecast
	lastPVPower func() float64 // optional hook for the snow heuristic
}

// NewSolarPredictor returns a predictor for the given site, fetching
// forecasts through source. epsilon is pv.forecast_epsilon; it is stored on
// the predictor but not consulted: a cached forecast is kept until
// now.Truncate(24h) moves to a new day, whatever its temperature.
func NewSolarPredictor(site Site, source Source, logger *log.Logger, epsilon float64) *SolarPredictor {
	if logger == nil {
		logger = log.Default()
	}
	return &SolarPredictor{site: site, source: source, logger: logger, epsilon: epsilon}
}

// SetCurrentPowerHook lets callers supply the latest measured PV power, used
// by the snow-covered-panel heuristic: a forecast expecting real output
// while actual output stays near zero is treated as zero rather than
// trusted.
func (p *SolarPredictor) SetCurrentPowerHook(hook func() float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPVPower = hook
}

func (p *SolarPredictor) forecast(ctx context.Context) (*weather.Forecast, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	day := now.Truncate(24 * time.Hour)

	if p.cached != nil && p.cachedDay.Equal(day) {
		return p.cached, nil
	}

	fc, err := p.source.Forecast(ctx, p.site.Latitude, p.site.Longitude)
	if err != nil {
		return nil, fmt.Errorf("pvpredictor: fetch forecast: %w", err)
	}

	p.cached = fc
	p.cachedDay = day
	return fc, nil
}

// PowerAt estimates production at t. When weather is nil it looks up (and
// caches) the forecast internally; a failed lookup falls back to
// SeasonalAverage and is logged, never returned as an error, since a
// degraded estimate is more useful to the scheduler than none at all.
func (p *SolarPredictor) PowerAt(t time.Time, wp *WeatherPoint) (float64, error) {
	if wp == nil {
		fc, err := p.forecast(context.Background())
		if err != nil {
			p.logger.Printf("pvpredictor: weather unavailable, using seasonal average: %v", err)
			return SeasonalAverage(t, p.site.PeakPower), nil
		}
		point := closestPoint(fc, t)
		wp = point
	}
	if wp == nil {
		return SeasonalAverage(t, p.site.PeakPower), nil
	}
	return p.powerAtWithWeather(t, *wp), nil
}

func (p *SolarPredictor) powerAtWithWeather(t time.Time, wp WeatherPoint) float64 {
	dawn, dusk := p.Daytime(t)
	if t.Before(dawn) || t.After(dusk) {
		return 0
	}

	pos := suncalc.GetPosition(t, p.site.Latitude, p.site.Longitude)
	angleFactor := math.Sin(pos.Altitude)
	if angleFactor < 0 {
		return 0
	}

	if hasSnow(wp.SymbolCode) {
		p.logger.Printf("pvpredictor: snow symbol at %s, solar power forced to zero", t.Format(time.RFC3339))
		return 0
	}

	expected := p.site.PeakPower * angleFactor * 0.5
	if p.lastPVPower != nil {
		current := p.lastPVPower()
		if current < 0.1 && expected > 1.0 && time.Until(t) < time.Hour {
			p.logger.Printf("pvpredictor: measured power near zero but %.2f kW expected, assuming panels obstructed", expected)
			return 0
		}
	}

	cloudFraction := wp.CloudAreaFraction / 100.0
	cloudFactor := 1.0 - cloudFraction*0.90

	return p.site.PeakPower * angleFactor * cloudFactor
}

// hasSnow reports whether symbol names a snowy condition. The teacher's
// scheduler/mpc.go calls a WeatherSymbol.HasSnow() method that its own
// meteo package never actually defines; this reimplements the same check
// directly against the symbol string instead of assuming that method
// exists.
func hasSnow(symbol string) bool {
	return strings.Contains(strings.ToLower(symbol), "snow")
}

// closestPoint finds the forecast timestep nearest t and converts it to a
// WeatherPoint, or nil if the forecast has no usable data.
func closestPoint(fc *weather.Forecast, t time.Time) *WeatherPoint {
	step, ok := fc.Closest(t)
	if !ok {
		return nil
	}
	return &WeatherPoint{
		Timestamp:         step.Time,
		CloudAreaFraction: step.CloudAreaFraction,
		SymbolCode:        step.SymbolCode,
	}
}

// MaxAvailablePower samples PowerAt at one-minute resolution across the
// rest of today's daylight and returns the peak.
func (p *SolarPredictor) MaxAvailablePower(ctx context.Context) (float64, error) {
	now := time.Now()
	_, dusk := p.Daytime(now)
	if now.After(dusk) {
		return 0, nil
	}

	fc, err := p.forecast(ctx)
	if err != nil {
		p.logger.Printf("pvpredictor: MaxAvailablePower degraded: %v", err)
	}

	var best float64
	for t := now; t.Before(dusk); t = t.Add(time.Minute) {
		var wp *WeatherPoint
		if fc != nil {
			wp = closestPoint(fc, t)
		}
		power, _ := p.sampleAt(t, wp)
		if power > best {
			best = power
		}
	}
	return best, nil
}

func (p *SolarPredictor) sampleAt(t time.Time, wp *WeatherPoint) (float64, error) {
	if wp == nil {
		return SeasonalAverage(t, p.site.PeakPower), nil
	}
	return p.powerAtWithWeather(t, *wp), nil
}

// NextPowerWindow scans forward from now at one-minute resolution for the
// first contiguous stretch where PowerAt stays at or above minPower.
func (p *SolarPredictor) NextPowerWindow(ctx context.Context, minPower float64) (time.Time, time.Time, error) {
	now := time.Now()
	_, dusk := p.Daytime(now)

	fc, err := p.forecast(ctx)
	if err != nil {
		p.logger.Printf("pvpredictor: NextPowerWindow degraded: %v", err)
	}

	var start time.Time
	for t := now; t.Before(dusk); t = t.Add(time.Minute) {
		var wp *WeatherPoint
		if fc != nil {
			wp = closestPoint(fc, t)
		}
		power, _ := p.sampleAt(t, wp)
		if power >= minPower {
			if start.IsZero() {
				start = t
			}
			continue
		}
		if !start.IsZero() {
			return start, t, nil
		}
	}
	if !start.IsZero() {
		return start, dusk, nil
	}
	return time.Time{}, time.Time{}, nil
}

// OptimalTime returns the minute, within today's daylight, with the
// greatest expected production.
func (p *SolarPredictor) OptimalTime(ctx context.Context) (time.Time, error) {
	now := time.Now()
	dawn, dusk := p.Daytime(now)
	start := now
	if start.Before(dawn) {
		start = dawn
	}

	fc, err := p.forecast(ctx)
	if err != nil {
		p.logger.Printf("pvpredictor: OptimalTime degraded: %v", err)
	}

	var bestT time.Time
	var bestPower float64 = -1
	for t := start; t.Before(dusk); t = t.Add(time.Minute) {
		var wp *WeatherPoint
		if fc != nil {
			wp = closestPoint(fc, t)
		}
		power, _ := p.sampleAt(t, wp)
		if power > bestPower {
			bestPower = power
			bestT = t
		}
	}
	return bestT, nil
}

// Daytime returns sunrise/sunset for day, per suncalc.GetTimes.
func (p *SolarPredictor) Daytime(day time.Time) (time.Time, time.Time) {
	times := suncalc.GetTimes(day, p.site.Latitude, p.site.Longitude)
	return times["sunrise"].Value, times["sunset"].Value
}
