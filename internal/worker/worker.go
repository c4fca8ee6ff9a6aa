// Package worker implements the acquisition worker (spec.md C6): the single
// goroutine that owns the transfer ring, decoder state, and aging policy for
// the life of a Start/Stop cycle, plus the lifecycle that spawns and joins it.
package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/behrlich/go-davis/internal/aging"
	"github.com/behrlich/go-davis/internal/constants"
	"github.com/behrlich/go-davis/internal/decoder"
	"github.com/behrlich/go-davis/internal/events"
	"github.com/behrlich/go-davis/internal/exchange"
	"github.com/behrlich/go-davis/internal/logging"
	"github.com/behrlich/go-davis/internal/transfer"
)

// errAlreadyRunning is returned by Start when the worker is already active.
var errAlreadyRunning = errors.New("worker: already running")

// Ring is the subset of *transfer.Ring the worker drives; named so tests can
// substitute a fake ring without opening a real USB device.
type Ring interface {
	Start() error
	Pump(ctx context.Context, sink transfer.Sink) error
	Stop()
}

// Config bundles everything the worker needs to run one acquisition cycle
// (spec.md §4.6 Start operation parameters).
type Config struct {
	Ring            Ring
	DecoderConfig   decoder.Config
	Capacities      decoder.Capacities
	AgingConfig     aging.Config
	ExchangeSize    int
	OnQueueIncrease func()
	OnQueueDecrease func()
	Log             *logging.Logger
}

// Worker owns the acquisition goroutine from Start to Stop.
type Worker struct {
	cfg Config
	buf *exchange.Buffer
	log *logging.Logger

	stop    chan struct{}
	done    chan struct{}
	running int32
}

// New constructs a Worker; the exchange buffer is allocated here so it is
// available to Get/GetBlocking immediately after Start returns, matching
// spec.md's "Start allocates the exchange buffer" note.
func New(cfg Config) *Worker {
	log := cfg.Log
	if log == nil {
		log = logging.Default()
	}
	exchangeSize := cfg.ExchangeSize
	if exchangeSize <= 0 {
		exchangeSize = constants.DefaultExchangeBufferSize
	}
	buf := exchange.New(exchangeSize)
	buf.SetOnDecrease(cfg.OnQueueDecrease)
	return &Worker{
		cfg: cfg,
		buf: buf,
		log: log.Named("worker"),
	}
}

// Buffer returns the exchange buffer the consumer reads from.
func (w *Worker) Buffer() *exchange.Buffer {
	return w.buf
}

// Start arms the transfer ring and spawns the acquisition goroutine
// (spec.md §4.6). Returns an error if the ring fails to arm, or if already
// running.
func (w *Worker) Start() error {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		return errAlreadyRunning
	}
	if err := w.cfg.Ring.Start(); err != nil {
		atomic.StoreInt32(&w.running, 0)
		return err
	}

	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	policy := aging.New(w.buf, w.cfg.AgingConfig, w.cfg.Capacities, aging.Callbacks{
		OnIncrease: w.cfg.OnQueueIncrease,
	}, w.stop, w.log)
	state := decoder.New(w.cfg.DecoderConfig, w.cfg.Capacities, policy, w.log)

	go w.run(state)

	return nil
}

// run is the acquisition goroutine: it never blocks except inside the
// bounded ring pump, never allocates on the decode hot path, and is the sole
// writer of decoder state (spec.md invariant 1).
func (w *Worker) run(state *decoder.State) {
	defer close(w.done)

	pumpTimeout := pumpTimeoutFor(w.cfg.AgingConfig)

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), pumpTimeout)
		err := w.cfg.Ring.Pump(ctx, func(payload []byte) {
			decoder.Decode(state, payload)
		})
		cancel()
		if err != nil {
			w.log.Errorf("transfer ring pump failed: %v", err)
			return
		}
	}
}

// Stop signals the acquisition goroutine, joins it, tears down the transfer
// ring, and drains any containers left in the exchange buffer so the
// consumer's in-flight accounting stays correct (spec.md §4.6 Stop).
func (w *Worker) Stop(onDrop func(*events.Container)) {
	if !atomic.CompareAndSwapInt32(&w.running, 1, 0) {
		return
	}
	close(w.stop)
	<-w.done
	w.cfg.Ring.Stop()
	w.buf.Drain(onDrop)
}

// pumpTimeoutFor picks the shortest configured packet interval, capped at
// constants.MaxAcquisitionPumpTimeout, as a single pump tick's bound
// (spec.md §5).
func pumpTimeoutFor(cfg aging.Config) time.Duration {
	shortest := cfg.PolarityInterval
	for _, d := range []time.Duration{cfg.SpecialInterval, cfg.FrameInterval, cfg.IMU6Interval} {
		if d > 0 && d < shortest {
			shortest = d
		}
	}
	if shortest <= 0 || shortest > constants.MaxAcquisitionPumpTimeout {
		return constants.MaxAcquisitionPumpTimeout
	}
	return shortest
}
