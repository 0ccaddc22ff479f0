package software

// Image is one mip level of a texture.
type Image struct {
	Width, Height int
	Channels      int
	Pix           []float32
}

// NewImage allocates a zeroed image. channels is 1 or 4.
func NewImage(width, height, channels int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}
}

// In reports whether (x, y) is inside the image.
func (m *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

func (m *Image) offset(x, y int) int {
	return (y*m.Width + x) * m.Channels
}

// Texel returns the texel at (x, y). Single-channel images return
// (v, 0, 0, 1). Coordinates are clamped to the image.
func (m *Image) Texel(x, y int) [4]float32 {
	x = min(max(x, 0), m.Width-1)
	y = min(max(y, 0), m.Height-1)
	o := m.offset(x, y)
	if m.Channels == 1 {
		return [4]float32{m.Pix[o], 0, 0, 1}
	}
	return [4]float32{m.Pix[o], m.Pix[o+1], m.Pix[o+2], m.Pix[o+3]}
}

// SetTexel writes the texel at (x, y). Writes outside the image are
// discarded, like out-of-bounds storage writes on a GPU.
func (m *Image) SetTexel(x, y int, v [4]float32) {
	if !m.In(x, y) {
		return
	}
	o := m.offset(x, y)
	if m.Channels == 1 {
		m.Pix[o] = v[0]
		return
	}
	copy(m.Pix[o:o+4], v[:])
}

// Fill sets every texel to v.
func (m *Image) Fill(v [4]float32) {
	for y := range m.Height {
		for x := range m.Width {
			m.SetTexel(x, y, v)
		}
	}
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	c := *m
	c.Pix = append([]float32(nil), m.Pix...)
	return &c
}

// sampleBilinear filters the region (rx, ry, rw, rh) of m at (u, v), given in
// texels relative to the region origin. Taps are clamped to the region.
func (m *Image) sampleBilinear(rx, ry, rw, rh int, u, v float32) [4]float32 {
	fx := min(max(u-0.5, 0), float32(rw-1))
	fy := min(max(v-0.5, 0), float32(rh-1))
	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, rw-1), min(y0+1, rh-1)
	tx, ty := fx-float32(x0), fy-float32(y0)

	t00 := m.Texel(rx+x0, ry+y0)
	t10 := m.Texel(rx+x1, ry+y0)
	t01 := m.Texel(rx+x0, ry+y1)
	t11 := m.Texel(rx+x1, ry+y1)
	var out [4]float32
	for c := range out {
		bottom := t00[c]*(1-tx) + t10[c]*tx
		top := t01[c]*(1-tx) + t11[c]*tx
		out[c] = bottom*(1-ty) + top*ty
	}
	return out
}
