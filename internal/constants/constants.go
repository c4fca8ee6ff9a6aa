// Package constants holds default configuration values shared across the
// acquisition core, mirroring the defaults spec.md calls out per component.
package constants

import "time"

// Transfer ring defaults (C2).
const (
	// DefaultNumTransfers is the number of pre-submitted bulk-IN transfers.
	DefaultNumTransfers = 8

	// DefaultTransferSize is the size in bytes of each bulk-IN transfer.
	DefaultTransferSize = 4096

	// TransferTeardownPollInterval is a teardown poll period for the transfer
	// ring. Ring.Stop closes its stream without polling, so nothing reads
	// this value.
	TransferTeardownPollInterval = 100 * time.Millisecond
)

// Exchange buffer defaults (C1).
const (
	// DefaultExchangeBufferSize is the default container queue capacity.
	DefaultExchangeBufferSize = 64

	// DefaultExchangeBlocking is the default of the blocking-get setting.
	// Nothing reads it: Get never blocks, and GetBlocking is a separate call.
	DefaultExchangeBlocking = false
)

// Packet aging defaults (C5): capacity and time budget per modality.
const (
	DefaultPolarityCapacity = 4096
	DefaultPolarityInterval = 5000 * time.Microsecond

	DefaultSpecialCapacity = 128
	DefaultSpecialInterval = 1000 * time.Microsecond

	DefaultFrameCapacity = 4
	DefaultFrameInterval = 50000 * time.Microsecond

	DefaultIMU6Capacity = 8
	DefaultIMU6Interval = 5000 * time.Microsecond
)

// ADCDepth is the bit depth of the APS analog-to-digital converter; CDS
// output is shifted left by (16 - ADCDepth) to fill a 16-bit pixel.
const ADCDepth = 10

// TimestampResetMarker is the sentinel timestamp carried by a TIMESTAMP_RESET
// special event.
const TimestampResetMarker = 0xFFFFFFFF

// MaxAcquisitionPumpTimeout caps a single USB event-loop pump iteration; the
// worker uses the shortest configured packet interval, bounded by this 1
// second value (spec.md §5).
const MaxAcquisitionPumpTimeout = 1 * time.Second
