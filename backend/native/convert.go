package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pyramid/gpucore"
)

// copyPitchAlignment is the required BytesPerRow alignment of buffer-texture copies.
const copyPitchAlignment = 256

func textureFormat(f gpucore.TextureFormat) (gputypes.TextureFormat, error) {
	switch f {
	case gpucore.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case gpucore.TextureFormatRGBA16Float:
		return gputypes.TextureFormatRGBA16Float, nil
	case gpucore.TextureFormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float, nil
	case gpucore.TextureFormatR32Float:
		return gputypes.TextureFormatR32Float, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
}

func textureUsage(u gpucore.TextureUsage) gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u&gpucore.TextureUsageCopySrc != 0 {
		out |= gputypes.TextureUsageCopySrc
	}
	if u&gpucore.TextureUsageCopyDst != 0 {
		out |= gputypes.TextureUsageCopyDst
	}
	if u&gpucore.TextureUsageSampled != 0 {
		out |= gputypes.TextureUsageTextureBinding
	}
	if u&gpucore.TextureUsageStorage != 0 {
		out |= gputypes.TextureUsageStorageBinding
	}
	return out
}

// packParams encodes KernelParams with the WGSL uniform layout.
func packParams(p *gpucore.KernelParams) []byte {
	b := make([]byte, gpucore.KernelParamsSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:], uint32(p.RectOffset[0]))
	le.PutUint32(b[4:], uint32(p.RectOffset[1]))
	le.PutUint32(b[8:], p.RectSize[0])
	le.PutUint32(b[12:], p.RectSize[1])
	for i, v := range p.SrcSize {
		le.PutUint32(b[16+4*i:], math.Float32bits(v))
	}
	for i, v := range p.DstSize {
		le.PutUint32(b[32+4*i:], math.Float32bits(v))
	}
	return b
}

// alignedRowPitch returns the padded row size for a buffer-texture copy.
func alignedRowPitch(width, bytesPerTexel int) uint32 {
	row := uint32(width * bytesPerTexel)
	return (row + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

func ceilDiv(n, d uint32) uint32 {
	return (n + d - 1) / d
}
