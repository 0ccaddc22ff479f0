package pyramid

import "errors"

// Sentinel errors. Use errors.Is to test for them; most are returned wrapped
// with the resource or level that triggered them.
var (
	// ErrInvalidTileSize is the panic value (wrapped) for a zero tile size.
	ErrInvalidTileSize = errors.New("pyramid: invalid tile size")

	// ErrDegenerateRect is returned when a dispatch over an empty rectangle
	// is about to be recorded. Nothing is recorded for the level.
	ErrDegenerateRect = errors.New("pyramid: degenerate dispatch rectangle")

	// ErrPlanOverflow is returned when a dispatch plan exceeds its fixed capacity.
	ErrPlanOverflow = errors.New("pyramid: dispatch plan overflow")

	// ErrInvalidViewport is returned for a viewport with a non-positive dimension.
	ErrInvalidViewport = errors.New("pyramid: invalid viewport")

	// ErrBuffersNotCreated is returned when rendering before CreateBuffers.
	ErrBuffersNotCreated = errors.New("pyramid: buffers not created")

	// ErrNilDevice is returned when a constructor receives a nil device.
	ErrNilDevice = errors.New("pyramid: nil device")

	// ErrNilEncoder is returned when a render call receives a nil encoder.
	ErrNilEncoder = errors.New("pyramid: nil command encoder")
)
