package gpucore

// Shader names. Each shader groups related entry points.
const (
	ShaderDepthPyramid    = "DepthPyramid"
	ShaderDepthPyramidMin = "DepthPyramidMin"
	ShaderColorPyramid    = "ColorPyramid"
	ShaderTexturePadding  = "TexturePadding"
	ShaderGPUCopy         = "GPUCopy"
)

// Depth pyramid entry points. The wide kernel reduces 16x16 source texels
// per group; the narrow ones reduce one 2x2 block per group.
const (
	KernelDepthDownSample8  = "KDepthDownSample8"
	KernelDepthDownSample20 = "KDepthDownSample2_0"
	KernelDepthDownSample21 = "KDepthDownSample2_1"
	KernelDepthDownSample22 = "KDepthDownSample2_2"
	KernelDepthDownSample23 = "KDepthDownSample2_3"
)

// Colour pyramid entry points.
const (
	KernelColorDownsample            = "KColorDownsample"
	KernelColorDownsampleClampRight  = "KColorDownsampleClampRight"
	KernelColorDownsampleClampTop    = "KColorDownsampleClampTop"
	KernelColorDownsampleClampCorner = "KColorDownsampleClampCorner"
)

// Texture padding entry points.
const (
	KernelPadTop      = "KMainTop"
	KernelPadRight    = "KMainRight"
	KernelPadTopRight = "KMainTopRight"
)

// KernelSampleCopy41X copies the x channel of a four-channel texture into a
// single-channel texture.
const KernelSampleCopy41X = "KSampleCopy4_1_x"

// DepthBlockKernels lists the 2x2 depth kernels indexed by edge pattern:
// full, right edge, top edge, corner.
var DepthBlockKernels = [4]string{
	KernelDepthDownSample20,
	KernelDepthDownSample21,
	KernelDepthDownSample22,
	KernelDepthDownSample23,
}

// ColorKernels lists the colour kernels indexed by edge pattern.
var ColorKernels = [4]string{
	KernelColorDownsample,
	KernelColorDownsampleClampRight,
	KernelColorDownsampleClampTop,
	KernelColorDownsampleClampCorner,
}

// ShaderEntryPoints maps every shader to the entry points it must provide.
var ShaderEntryPoints = map[string][]string{
	ShaderDepthPyramid: {
		KernelDepthDownSample8,
		KernelDepthDownSample20, KernelDepthDownSample21,
		KernelDepthDownSample22, KernelDepthDownSample23,
	},
	ShaderDepthPyramidMin: {
		KernelDepthDownSample8,
		KernelDepthDownSample20, KernelDepthDownSample21,
		KernelDepthDownSample22, KernelDepthDownSample23,
	},
	ShaderColorPyramid: {
		KernelColorDownsample, KernelColorDownsampleClampRight,
		KernelColorDownsampleClampTop, KernelColorDownsampleClampCorner,
	},
	ShaderTexturePadding: {KernelPadTop, KernelPadRight, KernelPadTopRight},
	ShaderGPUCopy:        {KernelSampleCopy41X},
}
