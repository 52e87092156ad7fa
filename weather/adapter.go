package weather

import (
	"context"
	"fmt"
	"time"
)

// Point is one flattened forecast timestep: just the fields pvpredictor and
// the planner actually consume, instead of the full MET Norway payload.
type Point struct {
	Time              time.Time
	CloudAreaFraction float64 // percent, 0-100; 0 if the API omitted it
	SymbolCode        string
	AirTemperature    float64
}

// Forecast is a flattened, time-ordered view of a METJSONForecast.
type Forecast struct {
	Points []Point
}

// Closest returns the point nearest t, or false if the forecast is empty.
func (f *Forecast) Closest(t time.Time) (Point, bool) {
	if f == nil || len(f.Points) == 0 {
		return Point{}, false
	}
	best := f.Points[0]
	bestDiff := absDuration(best.Time.Sub(t))
	for _, p := range f.Points[1:] {
		if d := absDuration(p.Time.Sub(t)); d < bestDiff {
			best, bestDiff = p, d
		}
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Forecast fetches a complete forecast for (lat, lon) and flattens it. The
// MET API has no cancellation hook of its own, so ctx only bounds how long
// callers are willing to wait before giving up on the result.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	type result struct {
		fc  *METJSONForecast
		err error
	}
	done := make(chan result, 1)
	go func() {
		fc, err := c.GetComplete(QueryParams{Location: Location{Latitude: lat, Longitude: lon}})
		done <- result{fc, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("weather: fetch: %w", r.err)
		}
		return flatten(r.fc), nil
	}
}

func flatten(fc *METJSONForecast) *Forecast {
	out := &Forecast{}
	if fc == nil || fc.Properties == nil {
		return out
	}
	for _, step := range fc.Properties.Timeseries {
		p := Point{Time: step.Time}
		if cc := step.GetCloudCoverage(); cc != nil {
			p.CloudAreaFraction = *cc
		}
		if sym := step.GetSymbolCode(); sym != nil {
			p.SymbolCode = string(*sym)
		}
		if temp := step.GetTemperature(); temp != nil {
			p.AirTemperature = *temp
		}
		out.Points = append(out.Points, p)
	}
	return out
}
