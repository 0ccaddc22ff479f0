package pyramid

// Option configures a BufferPyramid during creation.
//
// Example:
//
//	bp, err := pyramid.NewBufferPyramid(dev,
//	    pyramid.WithDepthReduction(pyramid.ReduceMin),
//	    pyramid.WithXRScale(2),
//	)
type Option func(*options)

// options holds optional configuration for BufferPyramid creation.
type options struct {
	xrScale     float32
	reduction   DepthReduction
	labelPrefix string
}

func defaultOptions() options {
	return options{
		xrScale:   1,
		reduction: ReduceMax,
	}
}

// DepthReduction selects how the depth pyramid combines a block of texels.
type DepthReduction uint8

const (
	// ReduceMax keeps the largest depth of each block. With a reversed-Z
	// depth buffer this is the closest surface.
	ReduceMax DepthReduction = iota

	// ReduceMin keeps the smallest depth of each block.
	ReduceMin
)

// String returns "max" or "min".
func (r DepthReduction) String() string {
	if r == ReduceMin {
		return "min"
	}
	return "max"
}

// WithXRScale widens the pyramid chains for double-wide stereo rendering.
// The default is 1. Non-positive values are ignored.
func WithXRScale(scale float32) Option {
	return func(o *options) {
		if scale > 0 {
			o.xrScale = scale
		}
	}
}

// WithDepthReduction selects the depth reduction operator. The default is ReduceMax.
func WithDepthReduction(r DepthReduction) Option {
	return func(o *options) {
		o.reduction = r
	}
}

// WithLabelPrefix prefixes every texture and command label, which helps
// telling several pyramids apart in GPU captures.
func WithLabelPrefix(prefix string) Option {
	return func(o *options) {
		o.labelPrefix = prefix
	}
}
