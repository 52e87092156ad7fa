// Package sensors provides typed read interfaces for the physical and
// network sources the scheduler polls each tick: power meters, a
// thermostat, an EV charger's link, a weather forecast, and a pool
// thermometer. Each concrete source is grounded on the teacher's own
// transport shape for the analogous reading: miners/avalon.go's
// JSON-over-TCP Sender/Receiver[T] generics for CarLink,
// sigenergy/modbus_client.go's register client for PowerClamp/Thermostat/
// PoolThermometer, and the weather package's HTTP client for WeatherSource.
package sensors

import (
	"context"
	"errors"
	"time"
)

var errNoForecastPoint = errors.New("sensors: no forecast point near requested time")

// Reading is a single timestamped scalar observation.
type Reading struct {
	Timestamp time.Time
	Value     float64
}

// Source is the common contract every sensor satisfies: a live read plus
// the unit its Value is expressed in, for dashboard labelling.
type Source interface {
	Read(ctx context.Context) (Reading, error)
	Units() string
}
