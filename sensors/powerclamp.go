package sensors

import (
	"context"
	"time"

	"github.com/jlindstrom/solar-allocator/actuators"
)

// PowerClamp reads instantaneous power off a current-transformer clamp wired
// through a Modbus analogue input module — the same register shape
// sigenergy/modbus_client.go used for PlantRunningInfo's power fields,
// generalised here to any single scaled input register.
type PowerClamp struct {
	client  *actuators.ModbusClient
	slaveID byte
	address uint16
	scale   float64
}

// NewPowerClamp wires a clamp reading a kW register at address, scaled by
// scale (register units per kW).
func NewPowerClamp(client *actuators.ModbusClient, slaveID byte, address uint16, scale float64) *PowerClamp {
	if scale == 0 {
		scale = 1
	}
	return &PowerClamp{client: client, slaveID: slaveID, address: address, scale: scale}
}

func (p *PowerClamp) Read(ctx context.Context) (Reading, error) {
	value, err := p.client.ReadScaledRegister(p.slaveID, p.address, p.scale)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Timestamp: time.Now(), Value: value}, nil
}

func (p *PowerClamp) Units() string { return "kW" }
