package task

import (
	"context"
	"sync"
	"time"

	"github.com/jlindstrom/solar-allocator/window"
)

// PoolPumpActuator is the command surface PoolPump drives — satisfied by
// actuators.PoolPumpActuator.
type PoolPumpActuator interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
}

// RequiredRunPoint is one row of a threshold lookup table, sorted by
// ascending Temp, mapping a pool-water (or minimum forecast outdoor)
// temperature in Fahrenheit to the run-time required that day.
type RequiredRunPoint struct {
	Temp    float64
	Runtime time.Duration
}

// PoolPump tracks its own cumulative on-time today from the run state the
// scheduler passes to Accumulate each tick (it does not read the power log)
// and escalates priority as remaining required run-time approaches remaining
// daytime. Grounded on scheduler/data.go's DataSamples.IntegrateSamples: the
// same "accumulate ticks, reset at a period boundary" idiom, applied here to
// run-time (a count of running ticks times tick interval) instead of kWh.
type PoolPump struct {
	id           string
	actuator     PoolPumpActuator
	key          string
	nominalPower float64
	table        []RequiredRunPoint // ascending Temp
	waterTempF   func() float64
	daytimeEnd   func(now time.Time) time.Time
	minRunTime   time.Duration

	mu         sync.Mutex
	runToday   time.Duration
	lastTick   time.Time
	dayStarted time.Time
	startedAt  time.Time
	running    bool
}

func NewPoolPump(id string, actuator PoolPumpActuator, key string, nominalPower float64, table []RequiredRunPoint, waterTempF func() float64, daytimeEnd func(now time.Time) time.Time, minRunTime time.Duration) *PoolPump {
	return &PoolPump{
		id:           id,
		actuator:     actuator,
		key:          key,
		nominalPower: nominalPower,
		table:        table,
		waterTempF:   waterTempF,
		daytimeEnd:   daytimeEnd,
		minRunTime:   minRunTime,
	}
}

func (p *PoolPump) ID() string            { return p.id }
func (p *PoolPump) NominalPower() float64 { return p.nominalPower }
func (p *PoolPump) Keys() []string        { return []string{p.key} }
func (p *PoolPump) AutoAdjust() bool      { return false }
func (p *PoolPump) Desc() string          { return "PoolPump(" + p.id + ")" }

// requiredRunTime looks up the run-time quota for the current water
// temperature, clamping to the table's endpoints outside its domain.
func (p *PoolPump) requiredRunTime() time.Duration {
	if len(p.table) == 0 {
		return 0
	}
	temp := p.waterTempF()
	if temp <= p.table[0].Temp {
		return p.table[0].Runtime
	}
	for i := 1; i < len(p.table); i++ {
		if temp <= p.table[i].Temp {
			return p.table[i].Runtime
		}
	}
	return p.table[len(p.table)-1].Runtime
}

// Accumulate is called each tick with the elapsed tick interval and whether
// the pump ran through it, folding it into today's cumulative run-time and
// rolling the day over at midnight — the run-time analogue of
// DataSamples.IntegrateSamples followed by ClearBefore at a period boundary.
func (p *PoolPump) Accumulate(now time.Time, tickInterval time.Duration, ran bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dayStarted.IsZero() || now.YearDay() != p.dayStarted.YearDay() || now.Year() != p.dayStarted.Year() {
		p.runToday = 0
		p.dayStarted = now
	}
	if ran {
		p.runToday += tickInterval
	}
	p.lastTick = now
}

func (p *PoolPump) remaining() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	req := p.requiredRunTime()
	left := req - p.runToday
	if left < 0 {
		left = 0
	}
	return left
}

func (p *PoolPump) Priority() Priority {
	remaining := p.remaining()
	if remaining <= 0 {
		return Background
	}
	now := time.Now()
	daytimeLeft := p.daytimeEnd(now).Sub(now)
	if daytimeLeft <= 0 {
		return Urgent
	}

	ratio := float64(remaining) / float64(daytimeLeft)
	switch {
	case ratio >= 1:
		return Urgent
	case ratio >= 0.75:
		return High
	case ratio >= 0.4:
		return Medium
	default:
		return Low
	}
}

func (p *PoolPump) IsRunnable(ctx context.Context) bool {
	return p.remaining() > 0
}

func (p *PoolPump) IsRunning(ctx context.Context) bool {
	running, err := p.actuator.IsRunning(ctx)
	return err == nil && running
}

// IsStoppable enforces MinRunTime: the pump stays locked in once started
// until it has run at least that long.
func (p *PoolPump) IsStoppable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || p.startedAt.IsZero() {
		return true
	}
	return time.Since(p.startedAt) >= p.minRunTime
}

func (p *PoolPump) MeetRunningCriteria(ratio, power float64) bool {
	if p.Priority() == Urgent {
		return true
	}
	return ratio >= 0.5
}

func (p *PoolPump) Start(ctx context.Context) error {
	p.mu.Lock()
	p.startedAt = time.Now()
	p.running = true
	p.mu.Unlock()
	return p.actuator.Start(ctx)
}

func (p *PoolPump) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return p.actuator.Stop(ctx)
}

func (p *PoolPump) Usage(r window.PowerRecord) float64 {
	return r.Values[p.key]
}
