// Package davis provides the main API for acquiring event streams from a
// DAVIS-family neuromorphic vision sensor over USB.
package davis

import (
	"context"

	"github.com/google/gousb"

	"github.com/behrlich/go-davis/internal/aging"
	"github.com/behrlich/go-davis/internal/decoder"
	"github.com/behrlich/go-davis/internal/events"
	"github.com/behrlich/go-davis/internal/logging"
	"github.com/behrlich/go-davis/internal/transfer"
	"github.com/behrlich/go-davis/internal/usb"
	"github.com/behrlich/go-davis/internal/worker"
)

// OpenParams selects which device to open and validates it at Open time.
type OpenParams struct {
	// VID/PID identify the USB device (0x152A/0x841D for the reference
	// DAVIS346, but any iniVation/aiCTX vendor/product pair is accepted).
	VID, PID gousb.ID

	// BusNumber/DeviceAddress/SerialNumber optionally disambiguate between
	// multiple attached devices sharing the same VID/PID (0/0/"" = no filter).
	BusNumber     int
	DeviceAddress int
	SerialNumber  string

	// MinLogicRevision rejects devices running FPGA logic older than this.
	MinLogicRevision uint32
}

// DefaultOpenParams returns the reference DAVIS346 VID/PID with no further
// filtering.
func DefaultOpenParams() OpenParams {
	return OpenParams{
		VID: 0x152A,
		PID: 0x841D,
	}
}

// StartParams configures one acquisition cycle (spec.md §6 Start operation).
type StartParams struct {
	ExchangeBufferSize int
	Capacities         decoder.Capacities
	Aging              aging.Config
	Transfer           transfer.Config
}

// DefaultStartParams returns the spec.md §6 defaults for every field.
func DefaultStartParams() StartParams {
	return StartParams{
		ExchangeBufferSize: 64,
		Capacities: decoder.Capacities{
			Polarity: 4096,
			Special:  128,
			Frame:    4,
			IMU6:     8,
		},
		Aging:    aging.DefaultConfig(),
		Transfer: transfer.DefaultConfig(),
	}
}

// Device is an opened DAVIS sensor: the control surface plus, once Start has
// been called, the running acquisition worker.
type Device struct {
	usbDev *usb.Device
	info   usb.Info
	log    *logging.Logger

	metrics  *Metrics
	observer Observer

	worker  *worker.Worker
	ring    *transfer.Ring
	running bool
}

// Open connects to the device matching params, reads its identity and
// geometry over the control endpoint, and returns a handle ready for Start
// (spec.md §6 Open). On any failure every USB resource acquired so far is
// released.
func Open(params OpenParams, log *logging.Logger) (*Device, error) {
	if log == nil {
		log = logging.Default()
	}

	usbDev, err := usb.Open(usb.OpenParams{
		VID:              params.VID,
		PID:              params.PID,
		BusNumber:        params.BusNumber,
		DeviceAddress:    params.DeviceAddress,
		SerialNumber:     params.SerialNumber,
		MinLogicRevision: params.MinLogicRevision,
	}, log)
	if err != nil {
		return nil, WrapError("Open", err)
	}

	info, err := usbDev.FetchInfo()
	if err != nil {
		usbDev.Close()
		return nil, WrapError("Open", err)
	}

	metrics := NewMetrics()
	return &Device{
		usbDev:   usbDev,
		info:     info,
		log:      log,
		metrics:  metrics,
		observer: NewMetricsObserver(metrics),
	}, nil
}

// Info returns the device identity and geometry fetched at Open.
func (d *Device) Info() usb.Info {
	return d.info
}

// SetObserver overrides the default metrics-backed Observer (e.g. to plug in
// an external collector). Must be called before Start.
func (d *Device) SetObserver(o Observer) {
	if o != nil {
		d.observer = o
	}
}

// Start arms the transfer ring and spawns the acquisition worker (spec.md §6
// Start). Returns an error if already running.
func (d *Device) Start(params StartParams) error {
	if d.running {
		return NewError("Start", ErrCodeDeviceBusy, "device already started")
	}

	ring := transfer.New(d.usbDev.BulkInEndpoint(), params.Transfer, d.log)

	var w *worker.Worker
	w = worker.New(worker.Config{
		Ring:          ring,
		DecoderConfig: d.info.DecoderConfig(),
		Capacities:    params.Capacities,
		AgingConfig:   params.Aging,
		ExchangeSize:  params.ExchangeBufferSize,
		OnQueueIncrease: func() {
			d.observer.ObserveQueueDepth(uint32(w.Buffer().Len()))
		},
		OnQueueDecrease: func() {
			d.observer.ObserveQueueDepth(uint32(w.Buffer().Len()))
		},
		Log: d.log,
	})

	if err := w.Start(); err != nil {
		return WrapError("Start", err)
	}

	d.ring = ring
	d.worker = w
	d.running = true
	d.metrics.MarkStarted()
	return nil
}

// Stop halts the acquisition worker, tears down the transfer ring, and
// drains any queued containers (spec.md §6 Stop). Idempotent.
func (d *Device) Stop() {
	if !d.running {
		return
	}
	d.worker.Stop(func(c *events.Container) {
		d.observer.ObserveDrop(c)
	})
	d.metrics.MarkStopped()
	d.running = false
}

// Get returns the next available container, or (nil, false) if none is
// queued (non-blocking). Only valid between Start and Stop.
func (d *Device) Get() (*events.Container, bool) {
	if d.worker == nil {
		return nil, false
	}
	c, ok := d.worker.Buffer().Get()
	if ok {
		d.metrics.RecordConsumed(c)
	}
	return c, ok
}

// GetBlocking returns the next container, blocking until one arrives or ctx
// is done.
func (d *Device) GetBlocking(ctx context.Context) (*events.Container, bool) {
	if d.worker == nil {
		return nil, false
	}
	c, ok := d.worker.Buffer().GetBlocking(ctx.Done())
	if ok {
		d.metrics.RecordConsumed(c)
	}
	return c, ok
}

// ConfigGet reads a single FPGA configuration parameter over the control
// endpoint (spec.md §6 ConfigGet). Valid both before and during Start.
func (d *Device) ConfigGet(module usb.Module, param usb.Parameter) (uint32, error) {
	v, err := d.usbDev.SPIConfigReceive(module, param)
	if err != nil {
		return 0, WrapError("ConfigGet", err)
	}
	return v, nil
}

// ConfigSet writes a single FPGA configuration parameter over the control
// endpoint (spec.md §6 ConfigSet).
func (d *Device) ConfigSet(module usb.Module, param usb.Parameter, value uint32) error {
	if err := d.usbDev.SPIConfigSend(module, param, value); err != nil {
		return WrapError("ConfigSet", err)
	}
	return nil
}

// Metrics returns the device's built-in metrics collector.
func (d *Device) Metrics() *Metrics {
	return d.metrics
}

// MetricsSnapshot returns a point-in-time snapshot of the device's metrics.
func (d *Device) MetricsSnapshot() MetricsSnapshot {
	if d.metrics == nil {
		return MetricsSnapshot{}
	}
	return d.metrics.Snapshot()
}

// Close stops acquisition (if running) and releases the USB device. The
// Device must not be used afterward.
func (d *Device) Close() error {
	d.Stop()
	if d.usbDev == nil {
		return nil
	}
	if err := d.usbDev.Close(); err != nil {
		return WrapError("Close", err)
	}
	return nil
}
