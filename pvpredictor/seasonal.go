package pvpredictor

import "time"

// seasonalFactor is the fraction of peak power a well-sited panel produces,
// averaged across a clear-to-cloudy mix, at solar noon in each month of the
// northern hemisphere. It is a coarse fallback only: used when the weather
// source is unreachable, never when a real forecast is available.
var seasonalFactor = [12]float64{
	0.25, 0.32, 0.42, 0.52, 0.58, 0.62,
	0.62, 0.56, 0.46, 0.36, 0.26, 0.22,
}

// SeasonalAverage estimates production from peakPower and the calendar month
// alone, shaped by a simple daylight bell curve so it still reads as roughly
// zero at night. It is deliberately crude: a degraded fallback, not a model.
func SeasonalAverage(t time.Time, peakPower float64) float64 {
	hour := t.Hour()
	if hour < 6 || hour > 20 {
		return 0
	}

	// Bell-shaped daylight factor peaking at 13:00, zero at the 6/20 edges.
	x := (float64(hour) - 13) / 7
	daylightFactor := 1 - x*x
	if daylightFactor < 0 {
		daylightFactor = 0
	}

	month := int(t.Month()) - 1
	return peakPower * seasonalFactor[month] * daylightFactor
}
