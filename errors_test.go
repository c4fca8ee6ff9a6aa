package davis

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewError("Open", ErrCodeFatalAtStart, "no device found")

	assert.Equal(t, "Open", err.Op)
	assert.Equal(t, ErrCodeFatalAtStart, err.Code)
	assert.Equal(t, "davis: Open: no device found", err.Error())
}

func TestWrapErrorPreservesCode(t *testing.T) {
	inner := NewError("SPIConfigReceive", ErrCodeTransferDeath, "no device")
	wrapped := WrapError("Start", inner)

	assert.Equal(t, "Start", wrapped.Op)
	assert.Equal(t, ErrCodeTransferDeath, wrapped.Code)
}

func TestWrapErrorMapsErrno(t *testing.T) {
	err := WrapError("Pump", syscall.ENODEV)
	require.NotNil(t, err)

	assert.Equal(t, ErrCodeTransferDeath, err.Code)
	assert.Equal(t, syscall.ENODEV, err.Errno)
	assert.True(t, errors.Is(err, syscall.ENODEV))
}

func TestWrapErrorNilIsNil(t *testing.T) {
	assert.Nil(t, WrapError("Op", nil))
}

func TestIsCode(t *testing.T) {
	err := NewError("Start", ErrCodeDeviceBusy, "already started")

	assert.True(t, IsCode(err, ErrCodeDeviceBusy))
	assert.False(t, IsCode(err, ErrCodeIOError))
	assert.False(t, IsCode(nil, ErrCodeDeviceBusy))
}

func TestErrorIsComparesByCode(t *testing.T) {
	a := &Error{Code: ErrCodeBackpressure}
	b := &Error{Code: ErrCodeBackpressure, Op: "different op"}

	assert.True(t, errors.Is(a, b))
}

func TestErrnoMapping(t *testing.T) {
	cases := []struct {
		errno    syscall.Errno
		expected ErrorCode
	}{
		{syscall.ENODEV, ErrCodeTransferDeath},
		{syscall.ENOENT, ErrCodeTransferDeath},
		{syscall.ECANCELED, ErrCodeTransferDeath},
		{syscall.EBUSY, ErrCodeDeviceBusy},
		{syscall.EIO, ErrCodeIOError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, mapErrnoToCode(tc.errno))
	}
}
