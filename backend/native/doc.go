// Package native runs the pyramid kernels on a GPU through the gogpu/wgpu
// HAL.
//
// Kernels are WGSL compute shaders embedded in the package and compiled to
// SPIR-V with naga. Every dispatch binds the same layout:
//
//	@binding(0) uniform KernelParams (48 bytes)
//	@binding(1) source texture view (one mip)
//	@binding(2) result storage texture view (one mip)
//
// Dispatches whose source and result are the same mip read from a snapshot
// copy taken just before the pass, since a subresource cannot be sampled
// and written in the same pass.
//
// A Device either owns its HAL device (New) or borrows one from a host
// application (NewFromProvider).
package native
