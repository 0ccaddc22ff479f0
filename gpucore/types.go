package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.

// TextureID is an opaque handle to a texture with one or more mip levels.
type TextureID uint64

// KernelID is an opaque handle to a resolved compute kernel.
type KernelID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1

	// TextureFormatRGBA16Float is 16-bit float RGBA (ARGBHalf).
	TextureFormatRGBA16Float

	// TextureFormatRGBA32Float is 32-bit float RGBA.
	TextureFormatRGBA32Float

	// TextureFormatR32Float is single-channel 32-bit float.
	TextureFormatR32Float
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "RGBA8Unorm"
	case TextureFormatRGBA16Float:
		return "RGBA16Float"
	case TextureFormatRGBA32Float:
		return "RGBA32Float"
	case TextureFormatR32Float:
		return "R32Float"
	default:
		return fmt.Sprintf("TextureFormat(%d)", uint32(f))
	}
}

// Channels returns the number of channels stored per texel.
func (f TextureFormat) Channels() int {
	if f == TextureFormatR32Float {
		return 1
	}
	return 4
}

// BytesPerTexel returns the size of one texel in bytes, or 0 for an unknown format.
func (f TextureFormat) BytesPerTexel() int {
	switch f {
	case TextureFormatRGBA8Unorm, TextureFormatR32Float:
		return 4
	case TextureFormatRGBA16Float:
		return 8
	case TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	// TextureUsageCopySrc indicates the texture can be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << 0

	// TextureUsageCopyDst indicates the texture can be used as a copy destination.
	TextureUsageCopyDst TextureUsage = 1 << 1

	// TextureUsageSampled indicates the texture can be read by kernels.
	TextureUsageSampled TextureUsage = 1 << 2

	// TextureUsageStorage indicates kernels can write the texture.
	TextureUsageStorage TextureUsage = 1 << 3
)

// TextureUsageAll is the usage of every texture owned by a pyramid.
const TextureUsageAll = TextureUsageCopySrc | TextureUsageCopyDst | TextureUsageSampled | TextureUsageStorage

// TextureDesc describes a texture to create.
type TextureDesc struct {
	Label         string
	Width         int
	Height        int
	MipLevelCount int // 0 is treated as 1
	Format        TextureFormat
	Usage         TextureUsage
}

// TextureInfo describes an existing texture.
type TextureInfo struct {
	Label         string
	Width         int
	Height        int
	MipLevelCount int
	Format        TextureFormat
}

// MipSize returns the dimensions of a mip level, at least 1x1.
func (t TextureInfo) MipSize(mip int) (width, height int) {
	return max(t.Width>>mip, 1), max(t.Height>>mip, 1)
}

// TextureBinding selects one mip level of a texture.
type TextureBinding struct {
	Texture TextureID
	Mip     int
}

// KernelParams is the uniform block shared by every pyramid kernel.
//
// Memory layout (48 bytes, 16-byte aligned):
//
//	offset  0: rect_offset vec2<i32>
//	offset  8: rect_size   vec2<u32>
//	offset 16: src_size    vec4<f32>  (w, h, 1/w, 1/h)
//	offset 32: dst_size    vec4<f32>  (w, h, 1/w, 1/h)
type KernelParams struct {
	RectOffset [2]int32
	RectSize   [2]uint32
	SrcSize    [4]float32
	DstSize    [4]float32
}

// KernelParamsSize is the byte size of KernelParams on the GPU.
const KernelParamsSize = 48

// SizeVector returns (w, h, 1/w, 1/h). Non-positive dimensions yield zero reciprocals.
func SizeVector(w, h float32) [4]float32 {
	v := [4]float32{w, h, 0, 0}
	if w > 0 {
		v[2] = 1 / w
	}
	if h > 0 {
		v[3] = 1 / h
	}
	return v
}

// DispatchDesc describes one compute dispatch.
//
// Source is read by the kernel and Result written. A kernel that reads and
// writes the same mip level binds it as both.
type DispatchDesc struct {
	Label  string
	Kernel KernelID
	Source TextureBinding
	Result TextureBinding
	Params KernelParams
	Groups [3]uint32
}

// TextureCopy copies a Width x Height region between mip levels without
// filtering.
type TextureCopy struct {
	Src        TextureBinding
	SrcX, SrcY int
	Dst        TextureBinding
	DstX, DstY int
	Width      int
	Height     int
}

// BlitDesc resamples the source region (SrcX, SrcY, SrcWidth, SrcHeight)
// into the rectangle (0, 0, Width, Height) of the destination mip level with
// bilinear filtering. Taps are clamped to the source region, so texels
// outside it never contribute. A zero SrcWidth or SrcHeight selects the
// whole source mip level. Values are filtered in float and never clamped.
type BlitDesc struct {
	Src                 TextureBinding
	SrcX, SrcY          int
	SrcWidth, SrcHeight int
	Dst                 TextureBinding
	Width               int
	Height              int
}

// SourceRegion returns the sampled region of a source mip level of size
// (mipWidth, mipHeight), resolving the zero-size default.
func (b *BlitDesc) SourceRegion(mipWidth, mipHeight int) (x, y, w, h int) {
	if b.SrcWidth == 0 || b.SrcHeight == 0 {
		return 0, 0, mipWidth, mipHeight
	}
	return b.SrcX, b.SrcY, b.SrcWidth, b.SrcHeight
}

// SourceInBounds reports whether the source region lies inside a mip level
// of size (mipWidth, mipHeight).
func (b *BlitDesc) SourceInBounds(mipWidth, mipHeight int) bool {
	x, y, w, h := b.SourceRegion(mipWidth, mipHeight)
	return x >= 0 && y >= 0 && w > 0 && h > 0 && x+w <= mipWidth && y+h <= mipHeight
}
