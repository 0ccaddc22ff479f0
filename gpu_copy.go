package pyramid

import (
	"fmt"

	"github.com/gogpu/pyramid/gpucore"
)

// GPUCopy performs format-narrowing copies that a plain texture copy cannot.
type GPUCopy struct {
	copyX gpucore.KernelID
}

// NewGPUCopy resolves the copy kernels.
func NewGPUCopy(dev gpucore.Device) (*GPUCopy, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	id, err := resolveKernel(dev, gpucore.ShaderGPUCopy, gpucore.KernelSampleCopy41X)
	if err != nil {
		return nil, err
	}
	return &GPUCopy{copyX: id}, nil
}

// SampleCopyChannelXYZW2X copies the x channel of src into the single
// channel of dst over the rectangle (0, 0, viewport).
func (c *GPUCopy) SampleCopyChannelXYZW2X(enc gpucore.CommandEncoder, src, dst gpucore.TextureBinding, viewport Size) error {
	if viewport.Empty() {
		return fmt.Errorf("%w: channel copy %v", ErrDegenerateRect, viewport)
	}
	w, h := uint32(viewport.Width), uint32(viewport.Height)
	return enc.Dispatch(&gpucore.DispatchDesc{
		Label:  "SampleCopyChannel_xyzw2x",
		Kernel: c.copyX,
		Source: src,
		Result: dst,
		Params: gpucore.KernelParams{
			RectSize: [2]uint32{w, h},
			SrcSize:  gpucore.SizeVector(float32(w), float32(h)),
		},
		Groups: [3]uint32{ceilDiv(w, ColorTileSize), ceilDiv(h, ColorTileSize), 1},
	})
}

// resolveKernel wraps resolution failures with the shader and entry names.
func resolveKernel(dev gpucore.Device, shader, entry string) (gpucore.KernelID, error) {
	id, err := dev.ResolveKernel(shader, entry)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("pyramid: resolve kernel %s.%s: %w", shader, entry, err)
	}
	if id == gpucore.InvalidID {
		return gpucore.InvalidID, fmt.Errorf("pyramid: resolve kernel %s.%s: %w", shader, entry, gpucore.ErrKernelNotFound)
	}
	return id, nil
}
