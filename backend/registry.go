package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/pyramid/gpucore"
)

// Backend names.
const (
	// Native is the GPU device built on gogpu/wgpu.
	Native = "native"
	// Software is the CPU device.
	Software = "software"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered or none of the registered ones could be opened.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Factory opens a device.
type Factory func() (gpucore.Device, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for Default (first that opens wins).
	priority = []string{Native, Software}
)

// Register registers a device factory under name, replacing any previous one.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a factory. This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the device registered under name.
func Open(name string) (gpucore.Device, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	return dev, nil
}

// Default opens the first registered backend in priority order that
// succeeds, then any other registered backend.
func Default() (gpucore.Device, string, error) {
	var errs []error
	tried := make(map[string]bool)

	order := append([]string(nil), priority...)
	order = append(order, Available()...)
	for _, name := range order {
		if tried[name] {
			continue
		}
		tried[name] = true

		registryMu.RLock()
		_, ok := factories[name]
		registryMu.RUnlock()
		if !ok {
			continue
		}
		dev, err := Open(name)
		if err == nil {
			return dev, name, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, "", ErrBackendNotAvailable
	}
	return nil, "", fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// Close releases dev if its backend has a Close method. Devices returned
// by Open should be closed with it when the concrete type is not known.
func Close(dev gpucore.Device) {
	if c, ok := dev.(interface{ Close() }); ok {
		c.Close()
	}
}
