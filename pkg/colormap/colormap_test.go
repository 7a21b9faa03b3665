package colormap

import (
	"image/color"
	"testing"
)

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestLinearEndpoints(t *testing.T) {
	lo := rgba(Viridis.At(0))
	hi := rgba(Viridis.At(1))

	if lo != (color.RGBA{68, 1, 84, 255}) {
		t.Errorf("At(0) = %+v", lo)
	}
	if hi != (color.RGBA{253, 231, 37, 255}) {
		t.Errorf("At(1) = %+v", hi)
	}

	// Out-of-range values clamp to the endpoints.
	if rgba(Viridis.At(-0.5)) != lo {
		t.Error("At(-0.5) did not clamp to At(0)")
	}
	if rgba(Viridis.At(2)) != hi {
		t.Error("At(2) did not clamp to At(1)")
	}
}

func TestLinearInterpolationIsOpaque(t *testing.T) {
	for _, tv := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		c := rgba(Plasma.At(tv))
		if c.A != 255 {
			t.Errorf("At(%v) alpha = %d, want 255", tv, c.A)
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"viridis", "plasma", "inferno", "magma", "categorical"} {
		if ByName(name) == nil {
			t.Errorf("ByName(%q) = nil", name)
		}
	}
	// Unknown names fall back to viridis.
	if rgba(ByName("bogus").At(0)) != rgba(Viridis.At(0)) {
		t.Error("unknown name did not fall back to viridis")
	}
}

func TestCategoricalAtIndex(t *testing.T) {
	a := rgba(Categorical.AtIndex(3))
	b := rgba(Categorical.AtIndex(3 + 20))
	if a != b {
		t.Error("AtIndex does not wrap around the palette")
	}

	// Negative label ids map to a stable color.
	if rgba(Categorical.AtIndex(-3)) != rgba(Categorical.AtIndex(3)) {
		t.Error("negative index not mirrored")
	}
}
