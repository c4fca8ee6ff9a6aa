// Package usb wraps the gousb handle to a DAVIS device: opening by VID/PID
// with optional bus/address/serial filters, fetching immutable device info
// over the control endpoint, and exposing the bulk-IN endpoint the transfer
// ring reads from (spec.md C7 Control Surface plus the Open operation).
package usb

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/behrlich/go-davis/internal/logging"
)

// bulkInEndpointAddr, interfaceNum, altSettingNum and defaultConfigNum are the
// conventional DAVIS USB layout: one bulk-IN endpoint for streaming, config
// 1, interface 0, alt-setting 0.
const (
	bulkInEndpointAddr = 0x81
	interfaceNum       = 0
	altSettingNum      = 0
	defaultConfigNum   = 1
)

// fpgaConfigRequest is the vendor control-transfer request code used for
// both spi_config_send and spi_config_receive (spec.md §4.7).
const fpgaConfigRequest = 0xC5

// OpenParams selects which device to open (spec.md §6 Open operation).
type OpenParams struct {
	VID, PID         gousb.ID
	DeviceType       uint8
	BusNumber        int // 0 = no filter
	DeviceAddress    int // 0 = no filter
	SerialNumber     string
	MinLogicRevision uint32
}

// Device is an opened DAVIS USB handle: the control surface (C7) and the
// bulk-IN endpoint C2's transfer ring reads from.
type Device struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	bulkIn *gousb.InEndpoint
	ctrl   Transport
	log    *logging.Logger

	logicRevision uint32
}

// Open connects to the device matching params, claims its interface, and
// validates the logic revision and serial number (if given). On any failure
// every resource acquired so far is released (spec.md §7 fatal-at-start).
func Open(params OpenParams, log *logging.Logger) (*Device, error) {
	if log == nil {
		log = logging.Default()
	}
	log = log.Named("usb")

	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(params.VID, params.PID)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("open device vid=%s pid=%s: %w", params.VID, params.PID, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("no device found for vid=%s pid=%s", params.VID, params.PID)
	}
	dev.ControlTimeout = controlTimeout
	if params.BusNumber != 0 && dev.Desc.Bus != params.BusNumber {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("bus number mismatch: want %d got %d", params.BusNumber, dev.Desc.Bus)
	}
	if params.DeviceAddress != 0 && dev.Desc.Address != params.DeviceAddress {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("device address mismatch: want %d got %d", params.DeviceAddress, dev.Desc.Address)
	}
	if params.SerialNumber != "" {
		serial, serr := dev.SerialNumber()
		if serr != nil || serial != params.SerialNumber {
			dev.Close()
			ctx.Close()
			return nil, fmt.Errorf("serial number mismatch: want %q got %q (err=%v)", params.SerialNumber, serial, serr)
		}
	}

	config, err := dev.Config(defaultConfigNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("set config %d: %w", defaultConfigNum, err)
	}

	intf, err := config.Interface(interfaceNum, altSettingNum)
	if err != nil {
		config.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("claim interface %d/%d: %w", interfaceNum, altSettingNum, err)
	}

	bulkIn, err := intf.InEndpoint(bulkInEndpointAddr)
	if err != nil {
		intf.Close()
		config.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("open bulk-in endpoint 0x%02x: %w", bulkInEndpointAddr, err)
	}

	d := &Device{
		ctx:    ctx,
		dev:    dev,
		config: config,
		intf:   intf,
		bulkIn: bulkIn,
		ctrl:   dev,
		log:    log,
	}

	rev, err := d.SPIConfigReceive(ModuleSystem, ParamLogicVersion)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("read logic revision: %w", err)
	}
	if rev < params.MinLogicRevision {
		d.Close()
		return nil, fmt.Errorf("logic revision %d below minimum %d", rev, params.MinLogicRevision)
	}
	d.logicRevision = rev

	return d, nil
}

// NewWithTransport builds a Device around an arbitrary Transport, bypassing
// gousb entirely. Used by tests (and by MockUSBDevice's callers) to exercise
// the control-surface protocol without real hardware; logicRevision is left
// zero since no Open-time read has occurred.
func NewWithTransport(ctrl Transport, log *logging.Logger) *Device {
	if log == nil {
		log = logging.Default()
	}
	return &Device{ctrl: ctrl, log: log.Named("usb")}
}

// BulkInEndpoint returns the streaming endpoint for the transfer ring (C2).
func (d *Device) BulkInEndpoint() *gousb.InEndpoint {
	return d.bulkIn
}

// LogicRevision returns the FPGA logic revision read at Open.
func (d *Device) LogicRevision() uint32 {
	return d.logicRevision
}

// Close releases every resource acquired at Open, in reverse order.
func (d *Device) Close() error {
	if d.intf != nil {
		d.intf.Close()
	}
	if d.config != nil {
		d.config.Close()
	}
	var err error
	if d.dev != nil {
		err = d.dev.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
	return err
}
