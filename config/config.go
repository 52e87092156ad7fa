// Package config loads, validates, and saves the controller's JSON
// configuration file. Grounded on the teacher's scheduler/config.go:
// DefaultConfig/LoadConfig/LoadConfigFromReader/SaveConfig/Validate/String
// kept in the same shape, and the same custom MarshalJSON/UnmarshalJSON
// technique for time.Duration fields — applied per nested struct here
// rather than as one monolithic alias, since this domain's config is
// naturally nested (PV, weather, price, one block per task) where the
// teacher's was flat.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Config is the root configuration document.
type Config struct {
	TickInterval         time.Duration         `json:"tick_interval"`
	WindowSize           int                   `json:"window_size"`
	AdapterTimeout       time.Duration         `json:"adapter_timeout"`
	SensorStaleThreshold time.Duration         `json:"sensor_stale_threshold"`
	DryRun               bool                  `json:"dry_run"`
	WebPort              int                   `json:"web_port"`
	LogLevel             string                `json:"log_level"`
	LogFormat            string                `json:"log_format"`

	PV          PVConfig            `json:"pv"`
	Weather     WeatherConfig       `json:"weather"`
	Price       PriceConfig         `json:"price"`
	Persistence PersistenceConfig   `json:"persistence"`
	Tasks       map[string]TaskConfig `json:"tasks"`
}

// PVConfig fixes the array's physical parameters, the predictor's
// forecast-invalidation threshold (SPEC_FULL.md §4.1, "pv.forecast_epsilon"),
// and the Modbus address of the production-metering clamp the scheduler
// samples each tick.
type PVConfig struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	PeakPowerKW     float64 `json:"peak_power_kw"`
	ForecastEpsilon float64 `json:"forecast_epsilon"`

	MeterAddress  string  `json:"meter_address"`
	MeterSlaveID  int     `json:"meter_slave_id"`
	MeterRegister int     `json:"meter_register"`
	MeterScale    float64 `json:"meter_scale"`
}

// WeatherConfig configures the forecast client.
type WeatherConfig struct {
	UpdateInterval time.Duration `json:"update_interval"`
	UserAgent      string        `json:"user_agent"`
}

func (w WeatherConfig) MarshalJSON() ([]byte, error) {
	type alias WeatherConfig
	return json.Marshal(struct {
		alias
		UpdateInterval string `json:"update_interval"`
	}{alias(w), w.UpdateInterval.String()})
}

func (w *WeatherConfig) UnmarshalJSON(data []byte) error {
	type alias WeatherConfig
	aux := struct {
		*alias
		UpdateInterval string `json:"update_interval"`
	}{alias: (*alias)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.UpdateInterval != "" {
		d, err := time.ParseDuration(aux.UpdateInterval)
		if err != nil {
			return fmt.Errorf("invalid weather.update_interval: %w", err)
		}
		w.UpdateInterval = d
	}
	return nil
}

// PriceConfig configures the informational-only day-ahead price feed
// (priceboard), kept per SPEC_FULL.md §9 despite never driving scheduling.
type PriceConfig struct {
	SecurityToken string        `json:"security_token"`
	URLFormat     string        `json:"url_format"`
	Location      string        `json:"location"`
	APITimeout    time.Duration `json:"api_timeout"`
	PollInterval  time.Duration `json:"poll_interval"`
}

func (p PriceConfig) MarshalJSON() ([]byte, error) {
	type alias PriceConfig
	return json.Marshal(struct {
		alias
		APITimeout   string `json:"api_timeout"`
		PollInterval string `json:"poll_interval"`
	}{alias(p), p.APITimeout.String(), p.PollInterval.String()})
}

func (p *PriceConfig) UnmarshalJSON(data []byte) error {
	type alias PriceConfig
	aux := struct {
		*alias
		APITimeout   string `json:"api_timeout"`
		PollInterval string `json:"poll_interval"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if aux.APITimeout != "" {
		if p.APITimeout, err = time.ParseDuration(aux.APITimeout); err != nil {
			return fmt.Errorf("invalid price.api_timeout: %w", err)
		}
	}
	if aux.PollInterval != "" {
		if p.PollInterval, err = time.ParseDuration(aux.PollInterval); err != nil {
			return fmt.Errorf("invalid price.poll_interval: %w", err)
		}
	}
	return nil
}

// PersistenceConfig configures the Postgres task-state store.
type PersistenceConfig struct {
	ConnString string `json:"conn_string"`
}

// PriorityThreshold is one rung of a task's priority ladder
// (task.<name>.priority_table).
type PriorityThreshold struct {
	Threshold float64 `json:"threshold"`
	Priority  string  `json:"priority"` // "background" | "low" | "medium" | "high" | "urgent"
}

// RunPoint is one row of a pool pump's required-daily-runtime-by-temperature
// table.
type RunPoint struct {
	TempF          float64       `json:"temp_f"`
	RequiredRuntime time.Duration `json:"required_runtime"`
}

func (r RunPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TempF           float64 `json:"temp_f"`
		RequiredRuntime string  `json:"required_runtime"`
	}{r.TempF, r.RequiredRuntime.String()})
}

func (r *RunPoint) UnmarshalJSON(data []byte) error {
	aux := struct {
		TempF           float64 `json:"temp_f"`
		RequiredRuntime string  `json:"required_runtime"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.TempF = aux.TempF
	if aux.RequiredRuntime != "" {
		d, err := time.ParseDuration(aux.RequiredRuntime)
		if err != nil {
			return fmt.Errorf("invalid required_runtime: %w", err)
		}
		r.RequiredRuntime = d
	}
	return nil
}

// TaskConfig is one appliance's block under "tasks". Not every field
// applies to every Kind — EVCharger ignores GoalTime/GoalValue/Deadband,
// PoolPump ignores PriorityTable/GoalTime/GoalValue in favor of
// RunTable, and so on; main.go's wiring reads only the fields its
// adapter constructor needs.
type TaskConfig struct {
	Kind          string              `json:"kind"` // "ev_charger" | "water_heater" | "hvac" | "pool_pump"
	Key           string              `json:"key"`
	NominalPower  float64             `json:"nominal_power_kw"`
	PriorityTable []PriorityThreshold `json:"priority_table,omitempty"`

	MinRunTime   time.Duration `json:"min_run_time"`
	NoPowerDelay time.Duration `json:"no_power_delay,omitempty"`
	Margin       time.Duration `json:"margin,omitempty"`

	GoalTime  string  `json:"goal_time,omitempty"` // "HH:MM", local to today
	GoalValue float64 `json:"goal_value,omitempty"`
	Deadband  float64 `json:"deadband,omitempty"`

	MinCurrentAmps float64 `json:"min_current_amps,omitempty"`
	MaxCurrentAmps float64 `json:"max_current_amps,omitempty"`
	VoltageVolts   float64 `json:"voltage_volts,omitempty"`

	RunTable []RunPoint `json:"run_table,omitempty"`

	ModbusSlaveID    int     `json:"modbus_slave_id"`
	RunCoil          int     `json:"run_coil,omitempty"`
	SetpointRegister int     `json:"setpoint_register,omitempty"`
	CurrentRegister  int     `json:"current_register,omitempty"`
	CurrentScale     float64 `json:"current_scale,omitempty"`
}

func (t TaskConfig) MarshalJSON() ([]byte, error) {
	type alias TaskConfig
	return json.Marshal(struct {
		alias
		MinRunTime   string `json:"min_run_time"`
		NoPowerDelay string `json:"no_power_delay,omitempty"`
		Margin       string `json:"margin,omitempty"`
	}{alias(t), t.MinRunTime.String(), t.NoPowerDelay.String(), t.Margin.String()})
}

func (t *TaskConfig) UnmarshalJSON(data []byte) error {
	type alias TaskConfig
	aux := struct {
		*alias
		MinRunTime   string `json:"min_run_time"`
		NoPowerDelay string `json:"no_power_delay"`
		Margin       string `json:"margin"`
	}{alias: (*alias)(t)}
	if t.Deadband == 0 {
		t.Deadband = defaultDeadband
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if aux.MinRunTime != "" {
		if t.MinRunTime, err = time.ParseDuration(aux.MinRunTime); err != nil {
			return fmt.Errorf("invalid min_run_time: %w", err)
		}
	}
	if aux.NoPowerDelay != "" {
		if t.NoPowerDelay, err = time.ParseDuration(aux.NoPowerDelay); err != nil {
			return fmt.Errorf("invalid no_power_delay: %w", err)
		}
	}
	if aux.Margin != "" {
		if t.Margin, err = time.ParseDuration(aux.Margin); err != nil {
			return fmt.Errorf("invalid margin: %w", err)
		}
	}
	return nil
}

// defaultDeadband is the deadband a task block decoded without one gets.
const defaultDeadband = 0.2

// DefaultConfig returns a configuration with the defaults spec.md §6 names
// (tick_interval 60s, window_size 60, adapter.timeout 3s); the per-task
// deadband default of 0.2 is applied when a task block is decoded.
func DefaultConfig() *Config {
	return &Config{
		TickInterval:         60 * time.Second,
		WindowSize:           60,
		AdapterTimeout:       3 * time.Second,
		SensorStaleThreshold: 5 * time.Minute,
		DryRun:               false,
		WebPort:              8080,
		LogLevel:             "info",
		LogFormat:            "text",
		PV: PVConfig{
			ForecastEpsilon: 0.15,
		},
		Weather: WeatherConfig{
			UpdateInterval: time.Hour,
			UserAgent:      "solar-allocator/1.0 (ops@example.com)",
		},
		Price: PriceConfig{
			APITimeout:   30 * time.Second,
			PollInterval: 15 * time.Minute,
		},
		Tasks: map[string]TaskConfig{},
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("config: open: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader, starting from
// DefaultConfig so an omitted field keeps its default rather than zeroing.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := json.NewDecoder(reader).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration to filename as indented JSON.
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("config: create: %w", err)
	}
	defer file.Close()
	return c.SaveConfigToWriter(file)
}

func (c *Config) SaveConfigToWriter(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

var validPriorities = map[string]bool{
	"background": true, "low": true, "medium": true, "high": true, "urgent": true,
}

var validTaskKinds = map[string]bool{
	"ev_charger": true, "water_heater": true, "hvac": true, "pool_pump": true,
}

// Validate aggregates every field check, the same style as the teacher's
// own Validate — one fmt.Errorf per violated constraint, first one wins.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be greater than 0, got: %s", c.TickInterval)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be greater than 0, got: %d", c.WindowSize)
	}
	if c.AdapterTimeout <= 0 {
		return fmt.Errorf("adapter_timeout must be greater than 0, got: %s", c.AdapterTimeout)
	}
	if c.SensorStaleThreshold <= 0 {
		return fmt.Errorf("sensor_stale_threshold must be greater than 0, got: %s", c.SensorStaleThreshold)
	}
	if c.WebPort < 0 || c.WebPort > 65535 {
		return fmt.Errorf("web_port must be between 0 and 65535, got: %d", c.WebPort)
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s, must be one of: debug, info, warn, error", c.LogLevel)
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid log_format: %s, must be one of: text, json", c.LogFormat)
	}

	if c.PV.Latitude < -90 || c.PV.Latitude > 90 {
		return fmt.Errorf("pv.latitude must be between -90 and 90, got: %f", c.PV.Latitude)
	}
	if c.PV.Longitude < -180 || c.PV.Longitude > 180 {
		return fmt.Errorf("pv.longitude must be between -180 and 180, got: %f", c.PV.Longitude)
	}
	if c.PV.PeakPowerKW <= 0 {
		return fmt.Errorf("pv.peak_power_kw must be greater than 0, got: %f", c.PV.PeakPowerKW)
	}
	if c.PV.ForecastEpsilon < 0 {
		return fmt.Errorf("pv.forecast_epsilon must be non-negative, got: %f", c.PV.ForecastEpsilon)
	}

	if c.Weather.UpdateInterval <= 0 {
		return fmt.Errorf("weather.update_interval must be greater than 0, got: %s", c.Weather.UpdateInterval)
	}
	if c.Weather.UserAgent == "" {
		return fmt.Errorf("weather.user_agent cannot be empty")
	}

	if c.Price.APITimeout <= 0 {
		return fmt.Errorf("price.api_timeout must be greater than 0, got: %s", c.Price.APITimeout)
	}

	for name, t := range c.Tasks {
		if !validTaskKinds[t.Kind] {
			return fmt.Errorf("task %q: invalid kind %q", name, t.Kind)
		}
		if t.Key == "" {
			return fmt.Errorf("task %q: key cannot be empty", name)
		}
		if t.NominalPower <= 0 {
			return fmt.Errorf("task %q: nominal_power_kw must be greater than 0, got: %f", name, t.NominalPower)
		}
		if t.MinRunTime < 0 {
			return fmt.Errorf("task %q: min_run_time must be non-negative, got: %s", name, t.MinRunTime)
		}
		for _, p := range t.PriorityTable {
			if !validPriorities[p.Priority] {
				return fmt.Errorf("task %q: invalid priority %q in priority_table", name, p.Priority)
			}
		}
		if t.Kind == "hvac" || t.Kind == "water_heater" {
			if t.GoalTime == "" {
				return fmt.Errorf("task %q: goal_time is required for kind %q", name, t.Kind)
			}
			if t.Deadband <= 0 {
				return fmt.Errorf("task %q: deadband must be greater than 0, got: %f", name, t.Deadband)
			}
		}
	}

	return nil
}

// String renders the config as indented JSON, for -info dumps.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
