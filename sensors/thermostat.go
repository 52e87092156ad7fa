package sensors

import (
	"context"
	"time"

	"github.com/jlindstrom/solar-allocator/actuators"
)

// Thermostat reads a zone's current temperature off a Modbus register,
// tenths of a degree Fahrenheit as sigenergy/modbus_client.go's
// ReadPlantRunningInfo reads tenths-of-a-percent SOC.
type Thermostat struct {
	client  *actuators.ModbusClient
	slaveID byte
	address uint16
}

func NewThermostat(client *actuators.ModbusClient, slaveID byte, address uint16) *Thermostat {
	return &Thermostat{client: client, slaveID: slaveID, address: address}
}

func (t *Thermostat) Read(ctx context.Context) (Reading, error) {
	value, err := t.client.ReadScaledRegister(t.slaveID, t.address, 10)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Timestamp: time.Now(), Value: value}, nil
}

func (t *Thermostat) Units() string { return "F" }

// PoolThermometer reads pool water temperature off its own register — same
// transport as Thermostat, kept a distinct type so callers and config can't
// wire the wrong sensor into the wrong task by a type mismatch alone.
type PoolThermometer struct {
	client  *actuators.ModbusClient
	slaveID byte
	address uint16
}

func NewPoolThermometer(client *actuators.ModbusClient, slaveID byte, address uint16) *PoolThermometer {
	return &PoolThermometer{client: client, slaveID: slaveID, address: address}
}

func (p *PoolThermometer) Read(ctx context.Context) (Reading, error) {
	value, err := p.client.ReadScaledRegister(p.slaveID, p.address, 10)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Timestamp: time.Now(), Value: value}, nil
}

func (p *PoolThermometer) Units() string { return "F" }
