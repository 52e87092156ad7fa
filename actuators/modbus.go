// Package actuators provides idempotent start/stop/set-point commands for
// the controller's four appliances. The register client is grounded on
// sigenergy/modbus_client.go's SigenModbusClient: same connect/close/
// SetSlaveID shape and the same big-endian byte-conversion helpers, but the
// Sigenergy-specific inverter/battery register map (PlantRunningInfo,
// HybridInverterInfo, ACChargerInfo) is replaced with a small generic
// register vocabulary any of the four appliances can be wired against.
package actuators

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// ModbusClient is a thin, idempotent wrapper over goburrow/modbus: connect
// once, address multiple slave devices on the bus by ID, convert registers
// to/from the scaled integers the protocol uses.
type ModbusClient struct {
	client     modbus.Client
	handler    *modbus.RTUClientHandler
	tcpHandler *modbus.TCPClientHandler
}

// NewRTUClient dials a serial Modbus RTU bus.
func NewRTUClient(device string, baudRate int, slaveID byte) (*ModbusClient, error) {
	handler := modbus.NewRTUClientHandler(device)
	handler.BaudRate = baudRate
	handler.DataBits = 8
	handler.Parity = "N"
	handler.StopBits = 1
	handler.SlaveId = slaveID
	handler.Timeout = time.Second

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("actuators: connect RTU: %w", err)
	}
	return &ModbusClient{client: modbus.NewClient(handler), handler: handler}, nil
}

// NewTCPClient dials a Modbus TCP gateway.
func NewTCPClient(address string, slaveID byte) (*ModbusClient, error) {
	handler := modbus.NewTCPClientHandler(address)
	handler.SlaveId = slaveID
	handler.Timeout = time.Second

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("actuators: connect TCP: %w", err)
	}
	return &ModbusClient{client: modbus.NewClient(handler), tcpHandler: handler}, nil
}

// Close releases the underlying connection.
func (c *ModbusClient) Close() error {
	if c.handler != nil {
		return c.handler.Close()
	}
	if c.tcpHandler != nil {
		return c.tcpHandler.Close()
	}
	return nil
}

// SetSlaveID addresses a different device on the same bus for the next call.
func (c *ModbusClient) SetSlaveID(slaveID byte) {
	if c.handler != nil {
		c.handler.SlaveId = slaveID
	}
	if c.tcpHandler != nil {
		c.tcpHandler.SlaveId = slaveID
	}
}

// ReadScaledRegister reads a single 16-bit input register and divides it by
// scale, the common pattern for fixed-point sensor values (e.g. tenths of a
// degree, tenths of a percent).
func (c *ModbusClient) ReadScaledRegister(slaveID byte, address uint16, scale float64) (float64, error) {
	c.SetSlaveID(slaveID)
	data, err := c.client.ReadInputRegisters(address, 1)
	if err != nil {
		return 0, fmt.Errorf("actuators: read register %d: %w", address, err)
	}
	return decodeScaledRegister(data, scale), nil
}

// decodeScaledRegister and encodeScaledRegister hold the pure byte-math so
// it can be tested without a live Modbus connection.
func decodeScaledRegister(data []byte, scale float64) float64 {
	return float64(int16(binary.BigEndian.Uint16(data))) / scale
}

func encodeScaledRegister(value, scale float64) uint16 {
	return uint16(int16(value * scale))
}

// WriteScaledRegister writes value, scaled and truncated to a 16-bit signed
// holding register — the inverse of ReadScaledRegister, used for set-points
// like an EV charger's output current or an HVAC's hold temperature.
func (c *ModbusClient) WriteScaledRegister(slaveID byte, address uint16, value, scale float64) error {
	c.SetSlaveID(slaveID)
	_, err := c.client.WriteSingleRegister(address, encodeScaledRegister(value, scale))
	if err != nil {
		return fmt.Errorf("actuators: write register %d: %w", address, err)
	}
	return nil
}

// WriteCoil sets a single on/off relay coil — used for idempotent start/
// stop commands on devices that are simply switched, like a pool pump or a
// water heater's boost element.
func (c *ModbusClient) WriteCoil(slaveID byte, address uint16, on bool) error {
	c.SetSlaveID(slaveID)
	value := uint16(0x0000)
	if on {
		value = 0xFF00
	}
	_, err := c.client.WriteSingleCoil(address, value)
	if err != nil {
		return fmt.Errorf("actuators: write coil %d: %w", address, err)
	}
	return nil
}

// ReadCoil reads a single on/off relay coil's current state.
func (c *ModbusClient) ReadCoil(slaveID byte, address uint16) (bool, error) {
	c.SetSlaveID(slaveID)
	data, err := c.client.ReadCoils(address, 1)
	if err != nil {
		return false, fmt.Errorf("actuators: read coil %d: %w", address, err)
	}
	return len(data) > 0 && data[0]&0x01 != 0, nil
}
