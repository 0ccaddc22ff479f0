// Package backend is the registry of gpucore.Device implementations.
//
// Device packages register a factory from init(), so importing them is
// enough to make them selectable by name:
//
//	import (
//	    _ "github.com/gogpu/pyramid/backend/native"
//	    _ "github.com/gogpu/pyramid/backend/software"
//	)
//
//	dev, err := backend.Default()
//
// Default tries the GPU device first and falls back to the CPU device.
package backend
