// Package gpucore defines the capability contract between the pyramid
// generator and the renderer that hosts it.
//
// The generator never talks to a graphics API directly. It resolves named
// compute kernels, allocates textures, and records dispatches, copies and
// blits through the [Device] and [CommandEncoder] interfaces. Two
// implementations ship with the module:
//
//	               +-------------------+
//	               |  pyramid (root)   |
//	               |  BufferPyramid    |
//	               +---------+---------+
//	                         |
//	          +--------------+--------------+
//	          |                             |
//	+---------v---------+        +----------v---------+
//	|  backend/native   |        |  backend/software  |
//	|  (wgpu HAL, WGSL) |        |  (Go kernels)      |
//	+-------------------+        +--------------------+
//
// Commands are recorded in order and executed later; the only ordering
// guarantee is command order within one encoder.
//
// # Resource Lifecycle
//
// Textures are created via [Device.CreateTexture] and released with
// [Device.DestroyTexture]. IDs are never reused within a device. Kernels
// are resolved once by shader and entry point name and stay valid for
// the device lifetime.
package gpucore
