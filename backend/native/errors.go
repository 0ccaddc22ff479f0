package native

import "errors"

var (
	// ErrNoAdapter is returned when the HAL backend exposes no adapter.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrBackendUnavailable is returned when the requested HAL backend is
	// not registered.
	ErrBackendUnavailable = errors.New("native: HAL backend not registered")

	// ErrUnsupportedFormat is returned for formats a kernel cannot write.
	ErrUnsupportedFormat = errors.New("native: unsupported texture format")

	// ErrProviderNotHAL is returned when a device provider does not expose
	// HAL types.
	ErrProviderNotHAL = errors.New("native: provider does not expose HAL device and queue")

	// ErrGPUTimeout is returned when a submission does not complete in time.
	ErrGPUTimeout = errors.New("native: GPU timeout")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("native: device closed")
)
