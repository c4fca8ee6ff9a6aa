package davis

import "github.com/behrlich/go-davis/internal/constants"

// Re-exported defaults for downstream consumers that want the library's
// tuned values without reaching into internal/constants directly.
const (
	DefaultNumTransfers = constants.DefaultNumTransfers
	DefaultTransferSize = constants.DefaultTransferSize
	DefaultExchangeSize = constants.DefaultExchangeBufferSize

	DefaultPolarityCapacity = constants.DefaultPolarityCapacity
	DefaultPolarityInterval = constants.DefaultPolarityInterval

	DefaultSpecialCapacity = constants.DefaultSpecialCapacity
	DefaultSpecialInterval = constants.DefaultSpecialInterval

	DefaultFrameCapacity = constants.DefaultFrameCapacity
	DefaultFrameInterval = constants.DefaultFrameInterval

	DefaultIMU6Capacity = constants.DefaultIMU6Capacity
	DefaultIMU6Interval = constants.DefaultIMU6Interval
)
