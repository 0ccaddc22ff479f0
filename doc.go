// Package pyramid builds the colour and depth mip chains a renderer samples
// for screen-space effects such as reflections, refraction blur and
// hierarchical occlusion.
//
// # Overview
//
// A BufferPyramid owns two chains sized to the next power of two of the
// viewport. Each frame it records, on any gpucore.CommandEncoder:
//
//   - RenderDepthPyramid: a single-channel copy of the depth buffer, then
//     one min or max reduction per level. Odd trailing rows and columns are
//     folded into the last destination texel, so no depth sample is lost.
//   - RenderColorPyramid: a bilinear resample of the colour buffer, then a
//     2x2 box filter per level. The valid region of each level is padded by
//     one texel so bilinear taps at its edge stay in initialized memory.
//
// # Quick Start
//
//	dev := software.New()
//	bp, err := pyramid.NewBufferPyramid(dev)
//	if err != nil {
//	    return err
//	}
//	defer bp.Close()
//	_ = bp.CreateBuffers()
//
//	enc, _ := dev.CreateCommandEncoder("frame")
//	_ = bp.RenderDepthPyramid(enc, pyramid.Viewport{Width: w, Height: h}, depthTex)
//	_ = bp.RenderColorPyramid(enc, pyramid.Viewport{Width: w, Height: h}, colorTex)
//	_ = dev.Submit(enc)
//
//	info := bp.DepthInfo() // texture, level count and scale for shaders
//
// # Dispatch Planning
//
// Kernels work on fixed tiles. PlanDepthLevel and PlanColorLevel split a
// level into a tile-aligned block and its remainder strips using
// DecomposeQuad, DecomposeRow and DecomposeCol, and pick the kernel variant
// for each part. Plans live in fixed arrays and never allocate.
//
// # Backends
//
// The gpucore package is the contract with the device. Two implementations
// ship with the module:
//   - backend/native: WGSL kernels compiled with naga, run on a gogpu/wgpu
//     HAL device (Vulkan by default) or on a device shared by a host
//     application through gpucontext.
//   - backend/software: the same kernels in Go, used for tests and tooling.
//
// The recording package captures encoder calls for inspection and replay.
//
// # Coordinate System
//
// Texel (0, 0) is the bottom-left of a level; Y grows upward, so the "top"
// row of a rectangle is the one with the largest Y.
package pyramid

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
