// Package transfer implements the bulk-IN transfer ring (spec.md C2): a
// fixed set of pre-submitted reads that keep the device's data pipe drained,
// handing each completed payload to the decoder and re-arming itself.
//
// gousb has no raw pre-submitted-transfer API of libusb's; its InEndpoint's
// ReadStream is the idiomatic equivalent — a fixed pool of in-flight reads
// serviced by background goroutines, values delivered through ReadContext.
// We treat one ReadStream as the "ring": NumTransfers is its concurrency,
// TransferSize its per-read buffer size.
package transfer

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"syscall"

	"github.com/google/gousb"
	"golang.org/x/sys/unix"

	"github.com/behrlich/go-davis/internal/constants"
	"github.com/behrlich/go-davis/internal/logging"
)

// Config sizes the transfer ring (spec.md §4.2 defaults).
type Config struct {
	NumTransfers int
	TransferSize int
}

// DefaultConfig returns the spec.md §6 defaults (usb_buffer_number=8,
// usb_buffer_size=4096).
func DefaultConfig() Config {
	return Config{
		NumTransfers: constants.DefaultNumTransfers,
		TransferSize: constants.DefaultTransferSize,
	}
}

// Sink receives each completed transfer's payload. Called synchronously
// from Pump, on the acquisition goroutine (spec.md §5: C4 runs wherever C2's
// completions are delivered).
type Sink func(payload []byte)

// Ring owns one gousb read stream and pumps it until Stop.
type Ring struct {
	ep     *gousb.InEndpoint
	cfg    Config
	log    *logging.Logger
	stream *gousb.ReadStream
	buf    []byte // reused across Pump calls; Pump runs on one goroutine

	active int32 // spec.md invariant 6: active transfer count
}

// New creates a ring over ep. The stream (and its pre-submitted transfers)
// is armed by Start, not here.
func New(ep *gousb.InEndpoint, cfg Config, log *logging.Logger) *Ring {
	if log == nil {
		log = logging.Default()
	}
	if cfg.NumTransfers <= 0 {
		cfg.NumTransfers = constants.DefaultNumTransfers
	}
	if cfg.TransferSize <= 0 {
		cfg.TransferSize = constants.DefaultTransferSize
	}
	return &Ring{ep: ep, cfg: cfg, log: log.Named("transfer")}
}

// Start submits the initial batch of transfers (spec.md §4.2: "On Start
// each transfer is submitted").
func (r *Ring) Start() error {
	stream, err := r.ep.NewStream(r.cfg.TransferSize, r.cfg.NumTransfers)
	if err != nil {
		return err
	}
	r.stream = stream
	r.buf = make([]byte, r.cfg.TransferSize)
	atomic.StoreInt32(&r.active, int32(r.cfg.NumTransfers))
	return nil
}

// Pump drains one completed transfer and hands its payload to sink, then
// implicitly re-arms (gousb's stream keeps exactly NumTransfers reads
// in flight; a completed read's buffer is recycled into the next submission
// once Pump's caller is done with the returned slice). ctx bounds a single
// read's wait, matching spec.md §4.2/§5's "short timeout" pump tick.
//
// The read buffer is allocated once in Start and reused across every Pump
// call rather than per-call, since Pump and its sink both run synchronously
// on the single acquisition goroutine and sink never retains the slice past
// its own call (spec.md §5's no-allocation decode hot path).
//
// A context deadline or cancellation ends the wait as an idle tick and
// returns nil. io.EOF or a terminal errno (see isTerminalErrno) indicates the
// stream is torn down or the device vanished: the active count drops to zero
// and the error is returned (spec.md §4.2: "not cancelled and not no-device"
// gates resubmission — gousb's stream resubmits for us on every other error,
// which is logged and also returns nil).
func (r *Ring) Pump(ctx context.Context, sink Sink) error {
	n, err := r.stream.ReadContext(ctx, r.buf)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil
		}
		if errors.Is(err, io.EOF) || isTerminalErrno(err) {
			atomic.StoreInt32(&r.active, 0)
			return err
		}
		r.log.Warnf("transfer read error: %v", err)
		return nil
	}
	sink(r.buf[:n])
	return nil
}

// isTerminalErrno reports whether err carries a syscall.Errno that means the
// device is gone or the transfer was cancelled out from under us (spec.md
// §4.2's "not cancelled and not no-device" gate on resubmission). gousb
// surfaces libusb transfer-status failures this way on Linux.
func isTerminalErrno(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case syscall.Errno(unix.ENODEV), syscall.Errno(unix.ENOENT), syscall.Errno(unix.ECANCELED):
		return true
	default:
		return false
	}
}

// ActiveCount returns the number of transfers still believed in flight
// (spec.md invariant 6).
func (r *Ring) ActiveCount() int32 {
	return atomic.LoadInt32(&r.active)
}

// Stop closes the read stream and sets the active count to zero. It does
// not pump the USB event loop or poll for in-flight transfers itself; any
// wait for them to unwind is whatever ReadStream.Close does.
func (r *Ring) Stop() {
	if r.stream == nil {
		return
	}
	r.stream.Close()
	atomic.StoreInt32(&r.active, 0)
}
