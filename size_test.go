package pyramid

import (
	"errors"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want int }{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {1024, 1024}, {1025, 2048}, {1920, 2048},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPyramidLodCount(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{1920, 1080, 10},
		{1024, 1024, 10},
		{1, 1, 0},
		{1, 500, 0},
		{2, 2, 1},
		{5, 3, 1},
		{0, 10, 0},
	}
	for _, tt := range tests {
		if got := PyramidLodCount(tt.w, tt.h); got != tt.want {
			t.Errorf("PyramidLodCount(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestCalculatePyramidSize(t *testing.T) {
	tests := []struct {
		name   string
		screen Size
		xr     float32
		want   Size
	}{
		{"hd", Size{1920, 1080}, 1, Size{2048, 2048}},
		{"square", Size{512, 512}, 1, Size{512, 512}},
		{"tall", Size{100, 700}, 1, Size{1024, 1024}},
		{"stereo", Size{1920, 1080}, 2, Size{4096, 2048}},
		{"invalid scale", Size{300, 200}, 0, Size{512, 512}},
		{"single texel", Size{1, 1}, 1, Size{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePyramidSize(tt.screen, tt.xr); got != tt.want {
				t.Errorf("CalculatePyramidSize(%v, %v) = %v, want %v", tt.screen, tt.xr, got, tt.want)
			}
		})
	}
}

func TestCalculatePyramidMipSize(t *testing.T) {
	base := Size{4096, 2048}
	tests := []struct {
		mip  int
		want Size
	}{
		{-1, Size{4096, 2048}},
		{0, Size{4096, 2048}},
		{1, Size{2048, 1024}},
		{11, Size{2, 1}},
		{12, Size{1, 1}},
		{200, Size{1, 1}},
	}
	for _, tt := range tests {
		if got := CalculatePyramidMipSize(base, tt.mip); got != tt.want {
			t.Errorf("CalculatePyramidMipSize(%v, %d) = %v, want %v", base, tt.mip, got, tt.want)
		}
	}

	for a := range 6 {
		for b := range 6 {
			got := CalculatePyramidMipSize(CalculatePyramidMipSize(Size{1000, 37}, a), b)
			want := CalculatePyramidMipSize(Size{1000, 37}, a+b)
			if got != want {
				t.Errorf("mip(mip(s,%d),%d) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestMipCount(t *testing.T) {
	tests := []struct {
		s    Size
		want int
	}{
		{Size{2048, 2048}, 12},
		{Size{4096, 2048}, 13},
		{Size{1, 1}, 1},
		{Size{0, 0}, 1},
	}
	for _, tt := range tests {
		if got := MipCount(tt.s); got != tt.want {
			t.Errorf("MipCount(%v) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestViewportValidate(t *testing.T) {
	if err := (Viewport{Width: 4, Height: 1}).Validate(); err != nil {
		t.Errorf("4x1: %v", err)
	}
	for _, vp := range []Viewport{{0, 5}, {5, 0}, {-1, 3}} {
		if err := vp.Validate(); !errors.Is(err, ErrInvalidViewport) {
			t.Errorf("%v: err = %v, want ErrInvalidViewport", vp, err)
		}
	}
	if got := (Viewport{Width: 7, Height: 9}).Size(); got != (Size{7, 9}) {
		t.Errorf("Size() = %v", got)
	}
}

func TestSizeRect(t *testing.T) {
	if got := (Size{5, 3}).Rect(); got != NewRect(5, 3) {
		t.Errorf("Rect() = %v", got)
	}
	if got := (Size{-2, 3}).Rect(); !got.Empty() {
		t.Errorf("negative size Rect() = %v, want empty", got)
	}
	if got := (Size{5, 3}).String(); got != "5x3" {
		t.Errorf("String() = %q", got)
	}
}
