package native

import (
	"embed"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/pyramid/gpucore"
)

//go:embed shaders/*.wgsl
var shaderFS embed.FS

// shaderBlit is internal to this package; the blit has no gpucore kernel.
const (
	shaderBlit = "Blit"
	kernelBlit = "KBlit"
)

// shaderSpec describes how a shader's bindings are laid out.
type shaderSpec struct {
	file       string
	reduceMin  bool
	sampleType gputypes.TextureSampleType
	storage    gputypes.TextureFormat
	access     gputypes.StorageTextureAccess
	sampler    bool
	entries    []string
}

var shaderSpecs = map[string]shaderSpec{
	gpucore.ShaderDepthPyramid: {
		file:       "depth_pyramid.wgsl",
		sampleType: gputypes.TextureSampleTypeUnfilterableFloat,
		storage:    gputypes.TextureFormatR32Float,
		access:     gputypes.StorageTextureAccessReadWrite,
	},
	gpucore.ShaderDepthPyramidMin: {
		file:       "depth_pyramid.wgsl",
		reduceMin:  true,
		sampleType: gputypes.TextureSampleTypeUnfilterableFloat,
		storage:    gputypes.TextureFormatR32Float,
		access:     gputypes.StorageTextureAccessReadWrite,
	},
	gpucore.ShaderColorPyramid: {
		file:       "color_pyramid.wgsl",
		sampleType: gputypes.TextureSampleTypeUnfilterableFloat,
		storage:    gputypes.TextureFormatRGBA16Float,
		access:     gputypes.StorageTextureAccessWriteOnly,
	},
	gpucore.ShaderTexturePadding: {
		file:       "texture_padding.wgsl",
		sampleType: gputypes.TextureSampleTypeUnfilterableFloat,
		storage:    gputypes.TextureFormatRGBA16Float,
		access:     gputypes.StorageTextureAccessWriteOnly,
	},
	gpucore.ShaderGPUCopy: {
		file:       "gpu_copy.wgsl",
		sampleType: gputypes.TextureSampleTypeUnfilterableFloat,
		storage:    gputypes.TextureFormatR32Float,
		access:     gputypes.StorageTextureAccessWriteOnly,
	},
	shaderBlit: {
		file:       "blit.wgsl",
		sampleType: gputypes.TextureSampleTypeFloat,
		storage:    gputypes.TextureFormatRGBA16Float,
		access:     gputypes.StorageTextureAccessWriteOnly,
		sampler:    true,
		entries:    []string{kernelBlit},
	},
}

// entryPoints lists the entry points a shader provides.
func (s shaderSpec) entryPoints(shader string) []string {
	if s.entries != nil {
		return s.entries
	}
	return gpucore.ShaderEntryPoints[shader]
}

// shaderSource returns the WGSL source of a shader.
func shaderSource(shader string) (string, error) {
	spec, ok := shaderSpecs[shader]
	if !ok {
		return "", fmt.Errorf("native: shader %q: %w", shader, gpucore.ErrKernelNotFound)
	}
	b, err := shaderFS.ReadFile("shaders/" + spec.file)
	if err != nil {
		return "", fmt.Errorf("native: read %s: %w", spec.file, err)
	}
	src := string(b)
	if spec.reduceMin {
		src = strings.Replace(src, "return max(a, b);", "return min(a, b);", 1)
	}
	return src, nil
}

// compileShader compiles WGSL to SPIR-V words.
func compileShader(src string) ([]uint32, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("native: compile shader: %w", err)
	}
	return spirvWords(spirv), nil
}

// spirvWords converts little-endian SPIR-V bytes to words.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}
