// Package software implements gpucore.Device on the CPU.
//
// Every pyramid kernel has a Go implementation that follows the same
// dispatch contract as the WGSL kernels of the native backend: workgroup
// sizes, rectangle offsets, skipped out-of-range threads and edge folding
// are identical, so a command stream that is correct here is correct on
// the GPU. Workgroup rows of one dispatch run in parallel.
//
// Texels are stored as float32, row 0 at the bottom. Blits filter in float
// like the native blit kernel, so HDR values above 1 survive.
package software
