package encode

import "testing"

func TestEncodeRGBEBlack(t *testing.T) {
	r, g, b, e := encodeRGBE(0, 0, 0)
	if r != 0 || g != 0 || b != 0 || e != 0 {
		t.Errorf("black pixel should encode to all-zero RGBE, got (%d,%d,%d,%d)", r, g, b, e)
	}
}

func TestEncodeRGBEBrightestChannelFillsMantissa(t *testing.T) {
	// The shared exponent comes from math.Frexp of the brightest
	// channel, so that channel's mantissa is its [0.5,1) fraction times
	// 256 and lands in [128,255] regardless of its absolute magnitude.
	cases := []struct {
		name    string
		r, g, b float64
		wantR   byte
		wantE   byte
	}{
		{"small", 0.001, 0.0005, 0.0002, 131, 119},
		{"mid", 1.0, 0.25, 0.1, 128, 129},
		{"large", 1e6, 1e5, 1e4, 244, 148},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			re, _, _, e := encodeRGBE(c.r, c.g, c.b)
			if re != c.wantR || e != c.wantE {
				t.Errorf("brightest channel mantissa/exponent = %d/%d, want %d/%d", re, e, c.wantR, c.wantE)
			}
		})
	}
}

func TestClampByte(t *testing.T) {
	cases := []struct {
		in   float64
		want byte
	}{
		{-10, 0},
		{0, 0},
		{128.4, 128},
		{255, 255},
		{1000, 255},
	}
	for _, c := range cases {
		if got := clampByte(c.in); got != c.want {
			t.Errorf("clampByte(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
