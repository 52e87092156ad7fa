package actuators

import "context"

// Actuator is the command surface a task adapter drives: start, stop, and
// (for continuously adjustable loads) a set-point write — generalised from
// sigenergy/modbus_client.go's StartACCharger/StopACCharger/
// SetACChargerOutputCurrent trio and miners/avalon.go's WakeUp/Standby/
// SetWorkMode idempotent command trio.
type Actuator interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
}

// ChargerActuator drives an EV charger's on/off relay and current limit
// over Modbus, the register-level twin of sigenergy's StartACCharger/
// StopACCharger/SetACChargerOutputCurrent.
type ChargerActuator struct {
	client        *ModbusClient
	slaveID       byte
	runCoil       uint16
	currentReg    uint16
	currentScale  float64
}

func NewChargerActuator(client *ModbusClient, slaveID byte, runCoil, currentReg uint16, currentScale float64) *ChargerActuator {
	if currentScale == 0 {
		currentScale = 1
	}
	return &ChargerActuator{client: client, slaveID: slaveID, runCoil: runCoil, currentReg: currentReg, currentScale: currentScale}
}

// Start is idempotent: writing the coil on while it's already on leaves the
// charger unaffected, same guarantee sigenergy.StartACCharger documents.
func (a *ChargerActuator) Start(ctx context.Context) error {
	return a.client.WriteCoil(a.slaveID, a.runCoil, true)
}

func (a *ChargerActuator) Stop(ctx context.Context) error {
	return a.client.WriteCoil(a.slaveID, a.runCoil, false)
}

func (a *ChargerActuator) IsRunning(ctx context.Context) (bool, error) {
	return a.client.ReadCoil(a.slaveID, a.runCoil)
}

// SetCurrentLimit throttles output current — the auto-adjust hook the
// charger task uses to shed or add load within a PV window.
func (a *ChargerActuator) SetCurrentLimit(ctx context.Context, amps float64) error {
	return a.client.WriteScaledRegister(a.slaveID, a.currentReg, amps, a.currentScale)
}

// WaterHeaterActuator drives a resistive element's contactor relay — simple
// on/off, no set-point, same shape as sigenergy's StartInverter/StopInverter
// pair without the inverter's additional mode register.
type WaterHeaterActuator struct {
	client  *ModbusClient
	slaveID byte
	coil    uint16
}

func NewWaterHeaterActuator(client *ModbusClient, slaveID byte, coil uint16) *WaterHeaterActuator {
	return &WaterHeaterActuator{client: client, slaveID: slaveID, coil: coil}
}

func (a *WaterHeaterActuator) Start(ctx context.Context) error { return a.client.WriteCoil(a.slaveID, a.coil, true) }
func (a *WaterHeaterActuator) Stop(ctx context.Context) error  { return a.client.WriteCoil(a.slaveID, a.coil, false) }
func (a *WaterHeaterActuator) IsRunning(ctx context.Context) (bool, error) {
	return a.client.ReadCoil(a.slaveID, a.coil)
}

// PoolPumpActuator drives a single-speed pump's contactor relay.
type PoolPumpActuator struct {
	client  *ModbusClient
	slaveID byte
	coil    uint16
}

func NewPoolPumpActuator(client *ModbusClient, slaveID byte, coil uint16) *PoolPumpActuator {
	return &PoolPumpActuator{client: client, slaveID: slaveID, coil: coil}
}

func (a *PoolPumpActuator) Start(ctx context.Context) error { return a.client.WriteCoil(a.slaveID, a.coil, true) }
func (a *PoolPumpActuator) Stop(ctx context.Context) error  { return a.client.WriteCoil(a.slaveID, a.coil, false) }
func (a *PoolPumpActuator) IsRunning(ctx context.Context) (bool, error) {
	return a.client.ReadCoil(a.slaveID, a.coil)
}

// HVACActuator writes a thermostat's hold set-point and reads whether the
// compressor/air handler is actively running — the register-level twin of
// sigenergy's PlantParameters setters (a scaled holding-register write) plus
// a status read.
type HVACActuator struct {
	client    *ModbusClient
	slaveID   byte
	setpoint  uint16
	runStatus uint16
}

func NewHVACActuator(client *ModbusClient, slaveID byte, setpointReg, runStatusCoil uint16) *HVACActuator {
	return &HVACActuator{client: client, slaveID: slaveID, setpoint: setpointReg, runStatus: runStatusCoil}
}

// Start writes nothing: the call for heat/cool is the set-point SetTarget
// writes to the hold register, and the thermostat itself decides when to
// actually energize equipment.
func (a *HVACActuator) Start(ctx context.Context) error {
	return nil
}

func (a *HVACActuator) Stop(ctx context.Context) error {
	return a.client.WriteCoil(a.slaveID, a.runStatus, false)
}

func (a *HVACActuator) IsRunning(ctx context.Context) (bool, error) {
	return a.client.ReadCoil(a.slaveID, a.runStatus)
}

// SetTarget writes the desired zone temperature in degrees Fahrenheit.
func (a *HVACActuator) SetTarget(ctx context.Context, targetF float64) error {
	return a.client.WriteScaledRegister(a.slaveID, a.setpoint, targetF, 10)
}
