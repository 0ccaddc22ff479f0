package pyramid

import "testing"

func TestOptions(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		xr     float32
		reduce DepthReduction
		prefix string
	}{
		{"defaults", nil, 1, ReduceMax, ""},
		{"xr", []Option{WithXRScale(2)}, 2, ReduceMax, ""},
		{"xr zero ignored", []Option{WithXRScale(0)}, 1, ReduceMax, ""},
		{"xr negative ignored", []Option{WithXRScale(-1)}, 1, ReduceMax, ""},
		{"min", []Option{WithDepthReduction(ReduceMin)}, 1, ReduceMin, ""},
		{"prefix", []Option{WithLabelPrefix("eye0/")}, 1, ReduceMax, "eye0/"},
		{"last wins", []Option{WithXRScale(2), WithXRScale(3)}, 3, ReduceMax, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			for _, opt := range tt.opts {
				opt(&o)
			}
			if o.xrScale != tt.xr {
				t.Errorf("xrScale = %v, want %v", o.xrScale, tt.xr)
			}
			if o.reduction != tt.reduce {
				t.Errorf("reduction = %v, want %v", o.reduction, tt.reduce)
			}
			if o.labelPrefix != tt.prefix {
				t.Errorf("labelPrefix = %q, want %q", o.labelPrefix, tt.prefix)
			}
		})
	}
}

func TestDepthReductionString(t *testing.T) {
	if got := ReduceMax.String(); got != "max" {
		t.Errorf("ReduceMax.String() = %q", got)
	}
	if got := ReduceMin.String(); got != "min" {
		t.Errorf("ReduceMin.String() = %q", got)
	}
}
