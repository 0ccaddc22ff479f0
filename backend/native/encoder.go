package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pyramid/gpucore"
	"github.com/gogpu/pyramid/recording"
	"github.com/gogpu/wgpu/hal"
)

// subresource is one mip of one texture.
type subresource struct {
	tex gpucore.TextureID
	mip int
}

// Encoder records commands into a HAL command encoder. Uniform buffers,
// bind groups and snapshot textures live until the submission completes.
type Encoder struct {
	mu       sync.Mutex
	dev      *Device
	label    string
	enc      hal.CommandEncoder
	finished bool
	passes   int

	usage      map[subresource]gputypes.TextureUsage
	bindGroups []hal.BindGroup
	buffers    []hal.Buffer
	scratch    []*texture
}

var _ gpucore.CommandEncoder = (*Encoder)(nil)

// CreateCommandEncoder implements gpucore.Device.
func (d *Device) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		enc.Destroy()
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	return &Encoder{
		dev:   d,
		label: label,
		enc:   enc,
		usage: make(map[subresource]gputypes.TextureUsage),
	}, nil
}

// transition records a barrier when a mip changes usage.
func (e *Encoder) transition(b gpucore.TextureBinding, t *texture, usage gputypes.TextureUsage) {
	key := subresource{b.Texture, b.Mip}
	old, ok := e.usage[key]
	if !ok {
		e.dev.mu.RLock()
		old = t.usage[b.Mip]
		e.dev.mu.RUnlock()
	}
	if ok && old == usage {
		return
	}
	e.enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.raw,
		Range:   mipRange(b.Mip),
		Usage:   hal.TextureUsageTransition{OldUsage: old, NewUsage: usage},
	}})
	e.usage[key] = usage
}

func mipRange(mip int) hal.TextureRange {
	return hal.TextureRange{
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    uint32(mip),
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	}
}

func imageCopy(t hal.Texture, mip, x, y int) hal.ImageCopyTexture {
	return hal.ImageCopyTexture{
		Texture:  t,
		MipLevel: uint32(mip),
		Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y)},
		Aspect:   gputypes.TextureAspectAll,
	}
}

// Dispatch implements gpucore.CommandEncoder.
func (e *Encoder) Dispatch(desc *gpucore.DispatchDesc) error {
	if err := recording.ValidateDispatch(desc); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return gpucore.ErrEncoderFinished
	}

	k, err := e.dev.kernel(desc.Kernel)
	if err != nil {
		return err
	}
	src, err := e.dev.lookup(desc.Source)
	if err != nil {
		return err
	}
	dst, err := e.dev.lookup(desc.Result)
	if err != nil {
		return err
	}
	if dst.format != k.prog.spec.storage {
		return fmt.Errorf("%w: %s writes %v, result is %v",
			ErrUnsupportedFormat, k.name, k.prog.spec.storage, dst.format)
	}
	return e.dispatchLocked(k, desc.Label, desc.Source, src, desc.Result, dst, &desc.Params, desc.Groups)
}

func (e *Encoder) dispatchLocked(
	k *kernel,
	label string,
	sb gpucore.TextureBinding, src *texture,
	rb gpucore.TextureBinding, dst *texture,
	params *gpucore.KernelParams,
	groups [3]uint32,
) error {
	srcView := src.views[sb.Mip]
	if sb == rb {
		snap, err := e.snapshotLocked(sb, src)
		if err != nil {
			return err
		}
		srcView = snap
	} else {
		e.transition(sb, src, gputypes.TextureUsageTextureBinding)
	}
	e.transition(rb, dst, gputypes.TextureUsageStorageBinding)

	buf, err := e.uniformLocked(params)
	if err != nil {
		return err
	}
	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: gpucore.KernelParamsSize}},
		{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: srcView.NativeHandle()}},
		{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: dst.views[rb.Mip].NativeHandle()}},
	}
	if k.prog.spec.sampler {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  3,
			Resource: gputypes.SamplerBinding{Sampler: e.dev.sampler.NativeHandle()},
		})
	}
	bg, err := e.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label + "_bg",
		Layout:  k.prog.bgLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("native: bind group for %s: %w", k.name, err)
	}
	e.bindGroups = append(e.bindGroups, bg)

	pass := e.enc.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	pass.SetPipeline(k.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(groups[0], groups[1], groups[2])
	pass.End()
	e.passes++
	return nil
}

// uniformLocked uploads params into a fresh uniform buffer.
func (e *Encoder) uniformLocked(p *gpucore.KernelParams) (hal.Buffer, error) {
	buf, err := e.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: e.label + "_params",
		Size:  gpucore.KernelParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create params buffer: %w", err)
	}
	e.buffers = append(e.buffers, buf)
	if err := e.dev.queue.WriteBuffer(buf, 0, packParams(p)); err != nil {
		return nil, fmt.Errorf("native: write params: %w", err)
	}
	return buf, nil
}

// snapshotLocked copies a mip into a scratch texture and returns its view,
// so that a kernel can read the mip it writes.
func (e *Encoder) snapshotLocked(b gpucore.TextureBinding, t *texture) (hal.TextureView, error) {
	w, h := t.info.MipSize(b.Mip)
	raw, err := e.dev.device.CreateTexture(&hal.TextureDescriptor{
		Label:         e.label + "_snapshot",
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.format,
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create snapshot: %w", err)
	}
	snap := &texture{info: gpucore.TextureInfo{Width: w, Height: h, MipLevelCount: 1}, format: t.format, raw: raw}
	e.scratch = append(e.scratch, snap)

	view, err := e.dev.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:           e.label + "_snapshot_view",
		Format:          t.format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("native: snapshot view: %w", err)
	}
	snap.views = []hal.TextureView{view}

	e.transition(b, t, gputypes.TextureUsageCopySrc)
	e.enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: raw,
		Range:   mipRange(0),
		Usage:   hal.TextureUsageTransition{NewUsage: gputypes.TextureUsageCopyDst},
	}})
	e.enc.CopyTextureToTexture(t.raw, raw, []hal.TextureCopy{{
		SrcBase: imageCopy(t.raw, b.Mip, 0, 0),
		DstBase: imageCopy(raw, 0, 0, 0),
		Size:    hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	}})
	e.enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: raw,
		Range:   mipRange(0),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst,
			NewUsage: gputypes.TextureUsageTextureBinding,
		},
	}})
	return view, nil
}

// CopyTexture implements gpucore.CommandEncoder.
func (e *Encoder) CopyTexture(c *gpucore.TextureCopy) error {
	if err := recording.ValidateCopy(c); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return gpucore.ErrEncoderFinished
	}

	src, err := e.dev.lookup(c.Src)
	if err != nil {
		return err
	}
	dst, err := e.dev.lookup(c.Dst)
	if err != nil {
		return err
	}
	if c.Src == c.Dst {
		return fmt.Errorf("native: copy within %v: %w", c.Src, gpucore.ErrInvalidDispatch)
	}
	sw, sh := src.info.MipSize(c.Src.Mip)
	dw, dh := dst.info.MipSize(c.Dst.Mip)
	if c.SrcX < 0 || c.SrcY < 0 || c.SrcX+c.Width > sw || c.SrcY+c.Height > sh ||
		c.DstX < 0 || c.DstY < 0 || c.DstX+c.Width > dw || c.DstY+c.Height > dh {
		return fmt.Errorf("native: copy %dx%d out of bounds (src %dx%d, dst %dx%d): %w",
			c.Width, c.Height, sw, sh, dw, dh, gpucore.ErrInvalidDispatch)
	}

	e.transition(c.Src, src, gputypes.TextureUsageCopySrc)
	e.transition(c.Dst, dst, gputypes.TextureUsageCopyDst)
	e.enc.CopyTextureToTexture(src.raw, dst.raw, []hal.TextureCopy{{
		SrcBase: imageCopy(src.raw, c.Src.Mip, c.SrcX, c.SrcY),
		DstBase: imageCopy(dst.raw, c.Dst.Mip, c.DstX, c.DstY),
		Size:    hal.Extent3D{Width: uint32(c.Width), Height: uint32(c.Height), DepthOrArrayLayers: 1},
	}})
	return nil
}

// Blit implements gpucore.CommandEncoder with a bilinear compute kernel.
func (e *Encoder) Blit(b *gpucore.BlitDesc) error {
	if err := recording.ValidateBlit(b); err != nil {
		return err
	}
	id, err := e.dev.ResolveKernel(shaderBlit, kernelBlit)
	if err != nil {
		return err
	}
	k, err := e.dev.kernel(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return gpucore.ErrEncoderFinished
	}
	src, err := e.dev.lookup(b.Src)
	if err != nil {
		return err
	}
	dst, err := e.dev.lookup(b.Dst)
	if err != nil {
		return err
	}
	if b.Src.Texture == b.Dst.Texture {
		return fmt.Errorf("native: blit within texture %d: %w", b.Src.Texture, gpucore.ErrInvalidDispatch)
	}
	if dst.format != k.prog.spec.storage {
		return fmt.Errorf("%w: blit into %v", ErrUnsupportedFormat, dst.format)
	}

	sw, sh := src.info.MipSize(b.Src.Mip)
	if !b.SourceInBounds(sw, sh) {
		return fmt.Errorf("native: blit source (%d,%d %dx%d) outside %dx%d: %w",
			b.SrcX, b.SrcY, b.SrcWidth, b.SrcHeight, sw, sh, gpucore.ErrInvalidDispatch)
	}
	dw, dh := dst.info.MipSize(b.Dst.Mip)
	params := blitParams(b, sw, sh, dw, dh)
	w, h := params.RectSize[0], params.RectSize[1]
	groups := [3]uint32{ceilDiv(w, 8), ceilDiv(h, 8), 1}
	return e.dispatchLocked(k, "Blit", b.Src, src, b.Dst, dst, &params, groups)
}

// blitParams lays out a blit for KBlit: RectOffset and SrcSize describe the
// sampled source region, RectSize the destination rectangle. Stores past
// the destination mip are discarded by the GPU.
func blitParams(b *gpucore.BlitDesc, srcWidth, srcHeight, dstWidth, dstHeight int) gpucore.KernelParams {
	rx, ry, rw, rh := b.SourceRegion(srcWidth, srcHeight)
	return gpucore.KernelParams{
		RectOffset: [2]int32{int32(rx), int32(ry)},
		RectSize:   [2]uint32{uint32(b.Width), uint32(b.Height)},
		SrcSize:    gpucore.SizeVector(float32(rw), float32(rh)),
		DstSize:    gpucore.SizeVector(float32(dstWidth), float32(dstHeight)),
	}
}

// ClearTexture implements gpucore.CommandEncoder by copying from a zeroed
// buffer into every mip.
func (e *Encoder) ClearTexture(id gpucore.TextureID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return gpucore.ErrEncoderFinished
	}
	t, err := e.dev.lookup(gpucore.TextureBinding{Texture: id})
	if err != nil {
		return err
	}

	bpt := t.info.Format.BytesPerTexel()
	size := uint64(alignedRowPitch(t.info.Width, bpt)) * uint64(t.info.Height)
	buf, err := e.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.info.Label + "_clear",
		Size:  size,
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create clear buffer: %w", err)
	}
	e.buffers = append(e.buffers, buf)

	e.enc.ClearBuffer(buf, 0, size)
	e.enc.TransitionBuffers([]hal.BufferBarrier{{
		Buffer: buf,
		Usage: hal.BufferUsageTransition{
			OldUsage: gputypes.BufferUsageCopyDst,
			NewUsage: gputypes.BufferUsageCopySrc,
		},
	}})
	for m := range t.info.MipLevelCount {
		w, h := t.info.MipSize(m)
		b := gpucore.TextureBinding{Texture: id, Mip: m}
		e.transition(b, t, gputypes.TextureUsageCopyDst)
		e.enc.CopyBufferToTexture(buf, t.raw, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{
				BytesPerRow:  alignedRowPitch(w, bpt),
				RowsPerImage: uint32(h),
			},
			TextureBase: imageCopy(t.raw, m, 0, 0),
			Size:        hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		}})
	}
	return nil
}

// release destroys the per-submission resources.
func (e *Encoder) release() {
	dev := e.dev.device
	for _, bg := range e.bindGroups {
		dev.DestroyBindGroup(bg)
	}
	for _, b := range e.buffers {
		dev.DestroyBuffer(b)
	}
	for _, t := range e.scratch {
		e.dev.destroyTextureLocked(t)
	}
	e.bindGroups, e.buffers, e.scratch = nil, nil, nil
	e.enc.Destroy()
}

// Submit implements gpucore.Device. It waits for the GPU to finish the
// submission before returning.
func (d *Device) Submit(enc gpucore.CommandEncoder) error {
	e, ok := enc.(*Encoder)
	if !ok || e.dev != d {
		return fmt.Errorf("native: submit %T: encoder not created by this device", enc)
	}

	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return gpucore.ErrEncoderFinished
	}
	e.finished = true

	cmd, err := e.enc.EndEncoding()
	if err != nil {
		e.release()
		return fmt.Errorf("native: end encoding %s: %w", e.label, err)
	}
	idx, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		e.release()
		return fmt.Errorf("native: submit %s: %w", e.label, err)
	}
	if err := d.wait(idx); err != nil {
		// The GPU may still reference the resources; leave them alive.
		d.log().Warn("native: submission did not complete", "label", e.label, "err", err)
		return err
	}
	d.device.FreeCommandBuffer(cmd)
	e.release()

	d.mu.Lock()
	for key, u := range e.usage {
		if t, ok := d.textures[key.tex]; ok {
			t.usage[key.mip] = u
		}
	}
	d.mu.Unlock()

	d.log().Debug("native: submitted", "label", e.label, "passes", e.passes, "index", idx)
	return nil
}
