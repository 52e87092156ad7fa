package sensors

import (
	"context"
	"time"

	"github.com/jlindstrom/solar-allocator/weather"
)

// WeatherSource adapts weather.Client into a Source reporting cloud cover at
// the configured site, used only for status/dashboard display; pvpredictor
// calls weather.Client directly for its own forecasting needs.
type WeatherSource struct {
	client             *weather.Client
	latitude, longitude float64
}

func NewWeatherSource(client *weather.Client, latitude, longitude float64) *WeatherSource {
	return &WeatherSource{client: client, latitude: latitude, longitude: longitude}
}

func (w *WeatherSource) Read(ctx context.Context) (Reading, error) {
	fc, err := w.client.Forecast(ctx, w.latitude, w.longitude)
	if err != nil {
		return Reading{}, err
	}
	point, ok := fc.Closest(time.Now())
	if !ok {
		return Reading{}, errNoForecastPoint
	}
	return Reading{Timestamp: point.Time, Value: point.CloudAreaFraction}, nil
}

func (w *WeatherSource) Units() string { return "% cloud cover" }
