package pyramid

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/pyramid/gpucore"
)

// PyramidInfo is published after each generation pass so that consumers
// can sample the chain.
type PyramidInfo struct {
	Texture gpucore.TextureID

	// LodCount is the number of levels generated below level 0.
	LodCount int

	// Size is (viewport w, viewport h, 1/w, 1/h).
	Size [4]float32

	// Scale is (viewport w / chain w, viewport h / chain h, lodCount, 0).
	Scale [4]float32
}

// Stats counts texture allocations made by a BufferPyramid.
type Stats struct {
	Allocations int
	Releases    int
}

// chain is one mip chain (colour or depth) plus its per-level scratch textures.
type chain struct {
	name   string
	format gpucore.TextureFormat
	buffer *handle
	mips   []*handle
	info   PyramidInfo
}

// BufferPyramid builds the colour and depth mip chains of a frame.
//
// The chains are power-of-two squares large enough for the viewport; only
// the viewport region of each level holds valid data. Each level is
// computed into a scratch texture and copied into slot i+1 of the chain.
//
// A BufferPyramid records commands from one goroutine at a time; the
// accessors may be called concurrently with recording.
type BufferPyramid struct {
	mu   sync.Mutex
	dev  gpucore.Device
	opts options

	depthWide   gpucore.KernelID
	depthBlocks [patternCount]gpucore.KernelID
	colorKernel [patternCount]gpucore.KernelID
	padding     *TexturePadding
	copier      *GPUCopy

	color, depth chain
	created      bool
	stats        Stats

	plans []DispatchPlan
}

// NewBufferPyramid resolves every kernel the pyramid uses. A missing
// kernel is fatal and reported as an error wrapping gpucore.ErrKernelNotFound.
func NewBufferPyramid(dev gpucore.Device, opts ...Option) (*BufferPyramid, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b := &BufferPyramid{
		dev:  dev,
		opts: o,
		color: chain{
			name:   o.labelPrefix + "ColorPyramid",
			format: gpucore.TextureFormatRGBA16Float,
		},
		depth: chain{
			name:   o.labelPrefix + "DepthPyramid",
			format: gpucore.TextureFormatR32Float,
		},
	}
	if err := b.resolveKernels(); err != nil {
		return nil, err
	}

	attachDevice(dev)
	Logger().Debug("pyramid: kernels resolved",
		"depthReduction", o.reduction.String(), "xrScale", o.xrScale)
	return b, nil
}

func (b *BufferPyramid) resolveKernels() error {
	depthShader := gpucore.ShaderDepthPyramid
	if b.opts.reduction == ReduceMin {
		depthShader = gpucore.ShaderDepthPyramidMin
	}

	var err error
	if b.depthWide, err = resolveKernel(b.dev, depthShader, gpucore.KernelDepthDownSample8); err != nil {
		return err
	}
	for i, entry := range gpucore.DepthBlockKernels {
		if b.depthBlocks[i], err = resolveKernel(b.dev, depthShader, entry); err != nil {
			return err
		}
	}
	for i, entry := range gpucore.ColorKernels {
		if b.colorKernel[i], err = resolveKernel(b.dev, gpucore.ShaderColorPyramid, entry); err != nil {
			return err
		}
	}
	if b.padding, err = NewTexturePadding(b.dev); err != nil {
		return err
	}
	if b.copier, err = NewGPUCopy(b.dev); err != nil {
		return err
	}
	return nil
}

// CreateBuffers prepares the colour and depth chains. Textures are
// allocated on the first generation pass, sized for its viewport.
func (b *BufferPyramid) CreateBuffers() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.created {
		return nil
	}
	size := b.pyramidSize
	b.color.buffer = newHandle(b.color.name, b.color.format, true, size)
	b.depth.buffer = newHandle(b.depth.name, b.depth.format, true, size)
	b.created = true

	Logger().Info("pyramid: buffers created", "color", b.color.name, "depth", b.depth.name)
	return nil
}

// ClearBuffers records clearing both chains to zero. Chains that have not
// been allocated yet are skipped.
func (b *BufferPyramid) ClearBuffers(enc gpucore.CommandEncoder) error {
	if enc == nil {
		return ErrNilEncoder
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.created {
		return ErrBuffersNotCreated
	}
	for _, c := range []*chain{&b.color, &b.depth} {
		if !c.buffer.allocated() {
			continue
		}
		if err := enc.ClearTexture(c.buffer.id); err != nil {
			return fmt.Errorf("clear %s: %w", c.name, err)
		}
	}
	return nil
}

// DestroyBuffers releases both chains and every level texture. The
// pyramid can be reused after another CreateBuffers call.
func (b *BufferPyramid) DestroyBuffers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.created {
		return
	}
	for _, c := range []*chain{&b.color, &b.depth} {
		b.releaseHandle(c.buffer)
		for _, m := range c.mips {
			b.releaseHandle(m)
		}
		c.buffer = nil
		c.mips = nil
		c.info = PyramidInfo{}
	}
	b.created = false

	Logger().Info("pyramid: buffers destroyed", "releases", b.stats.Releases)
}

// Close destroys the buffers and detaches the device from logger updates.
func (b *BufferPyramid) Close() {
	b.DestroyBuffers()
	detachDevice(b.dev)
}

func (b *BufferPyramid) releaseHandle(h *handle) {
	if h == nil || !h.allocated() {
		return
	}
	h.release(b.dev)
	b.stats.Releases++
}

// pyramidSize is the SizeFunc of both chains.
func (b *BufferPyramid) pyramidSize(vp Viewport) Size {
	return CalculatePyramidSize(vp.Size(), b.opts.xrScale)
}

// mipSizeFunc returns the SizeFunc of level texture i, which holds chain slot i+1.
func (b *BufferPyramid) mipSizeFunc(slot int) SizeFunc {
	return func(vp Viewport) Size {
		return CalculatePyramidMipSize(b.pyramidSize(vp), slot)
	}
}

// growMips appends level textures until the chain has lodCount of them.
// Existing levels are never replaced or removed.
func (b *BufferPyramid) growMips(c *chain, lodCount int) {
	for i := len(c.mips); i < lodCount; i++ {
		label := fmt.Sprintf("%sPyramidMip%d", b.opts.labelPrefix, i)
		c.mips = append(c.mips, newHandle(label, c.format, false, b.mipSizeFunc(i+1)))
		Logger().Debug("pyramid: level added", "chain", c.name, "level", i)
	}
}

// realize sizes the chain and its first lodCount levels for vp.
func (b *BufferPyramid) realize(c *chain, vp Viewport, lodCount int) error {
	if err := b.realizeHandle(c.buffer, vp); err != nil {
		return err
	}
	for _, h := range c.mips[:lodCount] {
		if err := b.realizeHandle(h, vp); err != nil {
			return err
		}
	}
	return nil
}

func (b *BufferPyramid) realizeHandle(h *handle, vp Viewport) error {
	wasAllocated := h.allocated()
	changed, err := h.realize(b.dev, vp)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	b.stats.Allocations++
	if wasAllocated {
		b.stats.Releases++
		Logger().Debug("pyramid: texture reallocated", "label", h.label, "size", h.cur.String())
	}
	return nil
}

// begin performs the checks and resource updates shared by both passes.
func (b *BufferPyramid) begin(enc gpucore.CommandEncoder, vp Viewport, c *chain) (int, error) {
	if enc == nil {
		return 0, ErrNilEncoder
	}
	if err := vp.Validate(); err != nil {
		return 0, err
	}
	if !b.created {
		return 0, ErrBuffersNotCreated
	}

	lodCount := PyramidLodCount(vp.Width, vp.Height)
	b.growMips(c, lodCount)
	if err := b.realize(c, vp, lodCount); err != nil {
		return 0, err
	}
	return lodCount, nil
}

// levelSizes returns the source and destination sizes of level i.
func levelSizes(vp Viewport, i int) (src, dst Size) {
	src = Size{Width: vp.Width >> i, Height: vp.Height >> i}
	dst = Size{Width: src.Width >> 1, Height: src.Height >> 1}
	return src, dst
}

// publish updates the chain info after a pass.
func (b *BufferPyramid) publish(c *chain, vp Viewport, lodCount int) {
	scale := b.screenScale(c, vp)
	c.info = PyramidInfo{
		Texture:  c.buffer.id,
		LodCount: lodCount,
		Size:     gpucore.SizeVector(float32(vp.Width), float32(vp.Height)),
		Scale:    [4]float32{scale[0], scale[1], float32(lodCount), 0},
	}
}

func (b *BufferPyramid) screenScale(c *chain, vp Viewport) [2]float32 {
	if c.buffer == nil || c.buffer.cur.Empty() {
		s := b.pyramidSize(vp)
		return [2]float32{float32(vp.Width) / float32(s.Width), float32(vp.Height) / float32(s.Height)}
	}
	return [2]float32{
		float32(vp.Width) / float32(c.buffer.cur.Width),
		float32(vp.Height) / float32(c.buffer.cur.Height),
	}
}

// PyramidToScreenScale returns the fraction of the chain covered by the
// viewport in each dimension.
func (b *BufferPyramid) PyramidToScreenScale(vp Viewport) [2]float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.screenScale(&b.depth, vp)
}

// ColorPyramid returns the colour chain texture, or gpucore.InvalidID
// before the first colour pass.
func (b *BufferPyramid) ColorPyramid() gpucore.TextureID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.color.info.Texture
}

// DepthPyramid returns the depth chain texture, or gpucore.InvalidID
// before the first depth pass.
func (b *BufferPyramid) DepthPyramid() gpucore.TextureID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth.info.Texture
}

// ColorInfo returns the parameters published by the last colour pass.
func (b *BufferPyramid) ColorInfo() PyramidInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.color.info
}

// DepthInfo returns the parameters published by the last depth pass.
func (b *BufferPyramid) DepthInfo() PyramidInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth.info
}

// ColorMipCount returns the number of colour level textures ever created.
func (b *BufferPyramid) ColorMipCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.color.mips)
}

// DepthMipCount returns the number of depth level textures ever created.
func (b *BufferPyramid) DepthMipCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.depth.mips)
}

// Stats returns allocation counters.
func (b *BufferPyramid) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// planScratch returns a reusable slice of n plans.
func (b *BufferPyramid) planScratch(n int) []DispatchPlan {
	if cap(b.plans) < n {
		b.plans = make([]DispatchPlan, n)
	}
	return b.plans[:n]
}

// validatePlans rejects a pass before anything is recorded.
func validatePlans(plans []DispatchPlan) error {
	var errs []error
	for i := range plans {
		if err := plans[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("level %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
