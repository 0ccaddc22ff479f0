package native

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/pyramid/backend"
	"github.com/gogpu/pyramid/cache"
	"github.com/gogpu/pyramid/gpucore"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan HAL backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	backend.Register(backend.Native, func() (gpucore.Device, error) {
		return New()
	})
}

// defaultFenceTimeout bounds how long Submit waits for the GPU.
const defaultFenceTimeout = 5 * time.Second

// Option configures a Device.
type Option func(*config)

type config struct {
	backend gputypes.Backend
	timeout time.Duration
}

// WithBackend selects the HAL backend New opens. The default is Vulkan.
func WithBackend(b gputypes.Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithFenceTimeout sets how long Submit waits for a submission to complete.
func WithFenceTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func newConfig(opts []Option) config {
	c := config{backend: gputypes.BackendVulkan, timeout: defaultFenceTimeout}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// texture is a HAL texture with one view per mip level.
type texture struct {
	info   gpucore.TextureInfo
	format gputypes.TextureFormat
	raw    hal.Texture
	views  []hal.TextureView

	// usage is the last usage of each mip after the most recent submit.
	usage []gputypes.TextureUsage
}

// program is a compiled shader module and the layouts shared by its
// entry points.
type program struct {
	name     string
	spec     shaderSpec
	module   hal.ShaderModule
	bgLayout hal.BindGroupLayout
	plLayout hal.PipelineLayout
}

// kernel is one compute pipeline.
type kernel struct {
	name     string
	prog     *program
	pipeline hal.ComputePipeline
}

// Device implements gpucore.Device on a HAL device.
//
// Thread Safety: Device is safe for concurrent use. Submissions are
// serialized.
type Device struct {
	mu       sync.RWMutex
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	owned    bool
	closed   bool

	textures map[gpucore.TextureID]*texture
	kernels  map[gpucore.KernelID]*kernel
	programs map[string]*program
	resolved *cache.Sharded[string, gpucore.KernelID]
	sampler  hal.Sampler

	submitMu sync.Mutex
	nextID   atomic.Uint64
	timeout  time.Duration
	logger   atomic.Pointer[slog.Logger]
}

var _ gpucore.Device = (*Device)(nil)

// New opens a device on the first suitable adapter of the configured HAL
// backend, preferring discrete and integrated GPUs.
func New(opts ...Option) (*Device, error) {
	cfg := newConfig(opts)

	b, ok := hal.GetBackend(cfg.backend)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, cfg.backend)
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		t := adapters[i].Info.DeviceType
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	d, err := newDevice(open.Device, open.Queue, cfg)
	if err != nil {
		open.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.owned = true
	d.log().Info("native: device opened", "adapter", selected.Info.Name, "backend", cfg.backend.String())
	return d, nil
}

// NewFromProvider shares the HAL device of a host application. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. The device is not destroyed by Close.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrProviderNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrProviderNotHAL, hp.HalQueue())
	}
	return newDevice(device, queue, newConfig(opts))
}

func newDevice(device hal.Device, queue hal.Queue, cfg config) (*Device, error) {
	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "pyramid_blit_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
		LodMaxClamp:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create sampler: %w", err)
	}

	d := &Device{
		device:   device,
		queue:    queue,
		textures: make(map[gpucore.TextureID]*texture),
		kernels:  make(map[gpucore.KernelID]*kernel),
		programs: make(map[string]*program),
		resolved: cache.NewSharded[string, gpucore.KernelID](cache.StringHasher),
		sampler:  sampler,
		timeout:  cfg.timeout,
	}
	d.logger.Store(slog.New(slog.DiscardHandler))
	d.nextID.Store(1)
	return d, nil
}

// SetLogger sets the device logger.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger.Store(l)
}

func (d *Device) log() *slog.Logger { return d.logger.Load() }

func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// Close releases every texture and pipeline. A device opened by New is
// destroyed too.
func (d *Device) Close() {
	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	for id, t := range d.textures {
		d.destroyTextureLocked(t)
		delete(d.textures, id)
	}
	for id, k := range d.kernels {
		d.device.DestroyComputePipeline(k.pipeline)
		delete(d.kernels, id)
	}
	for name, p := range d.programs {
		d.destroyProgram(p)
		delete(d.programs, name)
	}
	d.resolved.Clear()
	d.device.DestroySampler(d.sampler)

	if d.owned {
		d.device.Destroy()
		d.instance.Destroy()
	}
	d.log().Info("native: device closed", "owned", d.owned)
}

// ResolveKernel implements gpucore.Device. Pipelines are built on first
// resolution and shared afterwards.
func (d *Device) ResolveKernel(shader, entryPoint string) (gpucore.KernelID, error) {
	return d.resolved.GetOrCreate(shader+"."+entryPoint, func() (gpucore.KernelID, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed {
			return gpucore.InvalidID, ErrClosed
		}
		return d.buildKernelLocked(shader, entryPoint)
	})
}

func (d *Device) buildKernelLocked(shader, entryPoint string) (gpucore.KernelID, error) {
	spec, ok := shaderSpecs[shader]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("native: shader %q: %w", shader, gpucore.ErrKernelNotFound)
	}
	found := false
	for _, e := range spec.entryPoints(shader) {
		if e == entryPoint {
			found = true
			break
		}
	}
	if !found {
		return gpucore.InvalidID, fmt.Errorf("native: %s.%s: %w", shader, entryPoint, gpucore.ErrKernelNotFound)
	}

	prog, err := d.programLocked(shader, spec)
	if err != nil {
		return gpucore.InvalidID, err
	}
	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  shader + "." + entryPoint,
		Layout: prog.plLayout,
		Compute: hal.ComputeState{
			Module:     prog.module,
			EntryPoint: entryPoint,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline %s.%s: %w", shader, entryPoint, err)
	}

	id := gpucore.KernelID(d.newID())
	d.kernels[id] = &kernel{name: entryPoint, prog: prog, pipeline: pipeline}
	d.log().Debug("native: pipeline created", "shader", shader, "entry", entryPoint)
	return id, nil
}

// programLocked compiles a shader and creates its layouts once.
func (d *Device) programLocked(shader string, spec shaderSpec) (*program, error) {
	if p, ok := d.programs[shader]; ok {
		return p, nil
	}
	src, err := shaderSource(shader)
	if err != nil {
		return nil, err
	}
	code, err := compileShader(src)
	if err != nil {
		return nil, fmt.Errorf("native: %s: %w", shader, err)
	}

	p := &program{name: shader, spec: spec}
	p.module, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  shader,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %s: %w", shader, err)
	}
	p.bgLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   shader + "_bgl",
		Entries: bindGroupLayoutEntries(spec),
	})
	if err != nil {
		d.destroyProgram(p)
		return nil, fmt.Errorf("native: create bind group layout %s: %w", shader, err)
	}
	p.plLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            shader + "_pl",
		BindGroupLayouts: []hal.BindGroupLayout{p.bgLayout},
	})
	if err != nil {
		d.destroyProgram(p)
		return nil, fmt.Errorf("native: create pipeline layout %s: %w", shader, err)
	}

	d.programs[shader] = p
	d.log().Debug("native: shader compiled", "shader", shader, "spirv_words", len(code))
	return p, nil
}

func (d *Device) destroyProgram(p *program) {
	if p.plLayout != nil {
		d.device.DestroyPipelineLayout(p.plLayout)
	}
	if p.bgLayout != nil {
		d.device.DestroyBindGroupLayout(p.bgLayout)
	}
	if p.module != nil {
		d.device.DestroyShaderModule(p.module)
	}
}

func bindGroupLayoutEntries(spec shaderSpec) []gputypes.BindGroupLayoutEntry {
	entries := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: gpucore.KernelParamsSize,
			},
		},
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageCompute,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    spec.sampleType,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
		{
			Binding:    2,
			Visibility: gputypes.ShaderStageCompute,
			StorageTexture: &gputypes.StorageTextureBindingLayout{
				Access:        spec.access,
				Format:        spec.storage,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
	}
	if spec.sampler {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    3,
			Visibility: gputypes.ShaderStageCompute,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		})
	}
	return entries
}

// CreateTexture implements gpucore.Device. Every mip gets its own view.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc == nil || desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("native: create texture: %w", gpucore.ErrInvalidTexture)
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}

	info := gpucore.TextureInfo{
		Label:         desc.Label,
		Width:         desc.Width,
		Height:        desc.Height,
		MipLevelCount: max(desc.MipLevelCount, 1),
		Format:        desc.Format,
	}
	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(info.MipLevelCount),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}

	t := &texture{
		info:   info,
		format: format,
		raw:    raw,
		views:  make([]hal.TextureView, info.MipLevelCount),
		usage:  make([]gputypes.TextureUsage, info.MipLevelCount),
	}
	for m := range t.views {
		v, err := d.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
			Label:           fmt.Sprintf("%s_mip%d", desc.Label, m),
			Format:          format,
			Dimension:       gputypes.TextureViewDimension2D,
			Aspect:          gputypes.TextureAspectAll,
			BaseMipLevel:    uint32(m),
			MipLevelCount:   1,
			ArrayLayerCount: 1,
		})
		if err != nil {
			d.destroyTextureLocked(t)
			return gpucore.InvalidID, fmt.Errorf("native: view %q mip %d: %w", desc.Label, m, err)
		}
		t.views[m] = v
	}

	id := gpucore.TextureID(d.newID())
	d.mu.Lock()
	d.textures[id] = t
	d.mu.Unlock()
	return id, nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	t, ok := d.textures[id]
	delete(d.textures, id)
	d.mu.Unlock()
	if !ok {
		d.log().Warn("native: destroy unknown texture", "id", id)
		return
	}
	d.destroyTextureLocked(t)
}

func (d *Device) destroyTextureLocked(t *texture) {
	for _, v := range t.views {
		if v != nil {
			d.device.DestroyTextureView(v)
		}
	}
	d.device.DestroyTexture(t.raw)
}

// TextureInfo implements gpucore.Device.
func (d *Device) TextureInfo(id gpucore.TextureID) (gpucore.TextureInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.textures[id]
	if !ok {
		return gpucore.TextureInfo{}, false
	}
	return t.info, true
}

// lookup returns a live texture and checks the mip.
func (d *Device) lookup(b gpucore.TextureBinding) (*texture, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.textures[b.Texture]
	if !ok {
		return nil, fmt.Errorf("native: texture %d: %w", b.Texture, gpucore.ErrTextureNotFound)
	}
	if b.Mip < 0 || b.Mip >= len(t.views) {
		return nil, fmt.Errorf("native: texture %d has no mip %d: %w", b.Texture, b.Mip, gpucore.ErrTextureNotFound)
	}
	return t, nil
}

func (d *Device) kernel(id gpucore.KernelID) (*kernel, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	k, ok := d.kernels[id]
	if !ok {
		return nil, fmt.Errorf("native: kernel %d: %w", id, gpucore.ErrKernelNotFound)
	}
	return k, nil
}

// wait polls the queue until submission idx completes or the timeout passes.
func (d *Device) wait(idx uint64) error {
	deadline := time.Now().Add(d.timeout)
	for d.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d after %v", ErrGPUTimeout, idx, d.timeout)
		}
		time.Sleep(50 * time.Microsecond)
	}
	return nil
}
