package pyramid

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/pyramid/gpucore"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for the pyramid package and every device
// currently attached to a BufferPyramid. By default nothing is logged.
// Pass nil to restore the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: level growth, texture reallocation, plan sizes
//   - [slog.LevelInfo]: buffer creation and destruction, device selection
//   - [slog.LevelWarn]: non-fatal issues such as releasing unknown textures
//
// Example:
//
//	pyramid.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	attachedMu.Lock()
	defer attachedMu.Unlock()
	for dev := range attached {
		propagateLogger(dev, l)
	}
}

// Logger returns the current logger. Backends may call it to share the
// same configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(dev gpucore.Device, l *slog.Logger) {
	if ls, ok := dev.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// attached counts the pyramids using each device so SetLogger reaches them.
var (
	attachedMu sync.Mutex
	attached   = map[gpucore.Device]int{}
)

func attachDevice(dev gpucore.Device) {
	attachedMu.Lock()
	defer attachedMu.Unlock()
	attached[dev]++
	propagateLogger(dev, Logger())
}

func detachDevice(dev gpucore.Device) {
	attachedMu.Lock()
	defer attachedMu.Unlock()
	if attached[dev] <= 1 {
		delete(attached, dev)
		return
	}
	attached[dev]--
}
