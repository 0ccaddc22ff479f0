package native

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/pyramid/gpucore"
)

func TestShaderSourcesDeclareEntryPoints(t *testing.T) {
	for name, spec := range shaderSpecs {
		t.Run(name, func(t *testing.T) {
			src, err := shaderSource(name)
			if err != nil {
				t.Fatal(err)
			}
			entries := spec.entryPoints(name)
			if len(entries) == 0 {
				t.Fatal("no entry points")
			}
			for _, e := range entries {
				if !strings.Contains(src, "fn "+e+"(") {
					t.Errorf("source does not declare %s", e)
				}
			}
			if got := strings.Count(src, "@compute"); got != len(entries) {
				t.Errorf("%d @compute attributes, want %d", got, len(entries))
			}
			if !strings.Contains(src, "textureStore") {
				t.Error("source never stores")
			}
			if spec.sampler != strings.Contains(src, ": sampler;") {
				t.Errorf("sampler binding mismatch (sampler=%v)", spec.sampler)
			}
		})
	}
}

func TestShaderSpecsCoverKernels(t *testing.T) {
	for shader := range gpucore.ShaderEntryPoints {
		if _, ok := shaderSpecs[shader]; !ok {
			t.Errorf("no native shader for %s", shader)
		}
	}
}

func TestDepthMinVariant(t *testing.T) {
	maxSrc, err := shaderSource(gpucore.ShaderDepthPyramid)
	if err != nil {
		t.Fatal(err)
	}
	minSrc, err := shaderSource(gpucore.ShaderDepthPyramidMin)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(maxSrc, "return max(a, b);") {
		t.Error("depth shader does not reduce with max")
	}
	if !strings.Contains(minSrc, "return min(a, b);") || strings.Contains(minSrc, "return max(a, b);") {
		t.Error("min variant still reduces with max")
	}
}

func TestShaderSourceUnknown(t *testing.T) {
	if _, err := shaderSource("Nope"); !errors.Is(err, gpucore.ErrKernelNotFound) {
		t.Errorf("err = %v, want ErrKernelNotFound", err)
	}
}
