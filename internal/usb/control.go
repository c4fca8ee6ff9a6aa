package usb

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Module addresses (wValue) for the FPGA_CONFIG control transfer (spec.md
// §4.7). Only the subset the acquisition core needs to read at Open/Start is
// named here; per-chip bias configuration is out of scope (spec.md §1).
type Module uint16

const (
	ModuleSystem Module = 0
	ModuleMux    Module = 1
	ModuleDVS    Module = 3
	ModuleAPS    Module = 4
	ModuleIMU    Module = 5
)

// Parameter addresses (wIndex) within each module.
type Parameter uint16

const (
	ParamLogicVersion Parameter = 0
	ParamChipID       Parameter = 1
	ParamDeviceIsMaster Parameter = 2

	ParamDVSSizeColumns Parameter = 0
	ParamDVSSizeRows    Parameter = 1
	ParamDVSInvertXY    Parameter = 2

	ParamAPSSizeColumns  Parameter = 0
	ParamAPSSizeRows     Parameter = 1
	ParamAPSOrientation  Parameter = 2
	ParamAPSGlobalShutter Parameter = 3
	ParamAPSResetRead    Parameter = 4
	ParamAPSWindow0StartColumn Parameter = 5
	ParamAPSWindow0StartRow    Parameter = 6

	ParamIMUAccelScale Parameter = 0
	ParamIMUGyroScale  Parameter = 1
)

// controlTimeout bounds a single vendor control transfer, set on the
// gousb.Device at Open so every SPIConfigSend/Receive call inherits it.
const controlTimeout = 1000 * time.Millisecond

// Transport is the control-transfer primitive SPIConfigSend/Receive run
// over. *gousb.Device satisfies it; tests substitute MockUSBDevice so the
// SPI config protocol can be exercised without real hardware.
type Transport interface {
	Control(rType, request uint8, val, idx uint16, data []byte) (int, error)
}

// SPIConfigSend writes a 4-byte big-endian value to module/param over the
// control endpoint (spec.md §4.7, OUT direction).
func (d *Device) SPIConfigSend(module Module, param Parameter, value uint32) error {
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], value)
	_, err := d.ctrl.Control(
		gousbRequestTypeVendorOut,
		fpgaConfigRequest,
		uint16(module),
		uint16(param),
		payload[:],
	)
	if err != nil {
		return fmt.Errorf("spi_config_send module=%d param=%d: %w", module, param, err)
	}
	return nil
}

// SPIConfigReceive reads a 4-byte big-endian value from module/param over
// the control endpoint (spec.md §4.7, IN direction).
func (d *Device) SPIConfigReceive(module Module, param Parameter) (uint32, error) {
	var payload [4]byte
	n, err := d.ctrl.Control(
		gousbRequestTypeVendorIn,
		fpgaConfigRequest,
		uint16(module),
		uint16(param),
		payload[:],
	)
	if err != nil {
		return 0, fmt.Errorf("spi_config_receive module=%d param=%d: %w", module, param, err)
	}
	if n != len(payload) {
		return 0, fmt.Errorf("spi_config_receive module=%d param=%d: short read %d bytes", module, param, n)
	}
	return binary.BigEndian.Uint32(payload[:]), nil
}

// gousb request-type bytes for a vendor-specific device-directed control
// transfer, built from the USB bmRequestType bit layout (direction | type |
// recipient) rather than importing gousb's own constant names, which vary
// slightly across versions.
const (
	gousbRequestTypeVendorOut = 0x40 // host-to-device, vendor, device
	gousbRequestTypeVendorIn  = 0xC0 // device-to-host, vendor, device
)
