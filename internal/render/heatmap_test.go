package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/dune-vd/framerebin/internal/frame"
)

func decodePNG(t *testing.T, data []byte) (width, height int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRenderFloat(t *testing.T) {
	r := NewHeatmapRenderer(Config{Scale: 3})

	f := frame.New(4, 6)
	for i := range f.Values {
		f.Values[i] = float32(i)
	}

	data, err := r.RenderFloat(f, "viridis")
	if err != nil {
		t.Fatalf("RenderFloat: %v", err)
	}
	w, h := decodePNG(t, data)
	if w != 6*3 || h != 4*3 {
		t.Errorf("image is %dx%d, want %dx%d", w, h, 18, 12)
	}
}

func TestRenderFloatConstantFrame(t *testing.T) {
	r := NewHeatmapRenderer(Config{Scale: 1})

	// Zero dynamic range must not divide by zero.
	f := frame.New(2, 2)
	for i := range f.Values {
		f.Values[i] = 7
	}
	if _, err := r.RenderFloat(f, ""); err != nil {
		t.Fatalf("RenderFloat: %v", err)
	}
}

func TestRenderFloatUnknownColormapFallsBack(t *testing.T) {
	r := NewHeatmapRenderer(Config{Scale: 1})
	f := frame.New(2, 2)
	if _, err := r.RenderFloat(f, "no-such-map"); err != nil {
		t.Fatalf("RenderFloat: %v", err)
	}
}

func TestRenderLabel(t *testing.T) {
	r := NewHeatmapRenderer(Config{Scale: 2})

	f := frame.NewLabel(3, 5)
	f.Set(0, 0, 1)
	f.Set(1, 2, -4)
	f.Set(2, 4, 120)

	data, err := r.RenderLabel(f)
	if err != nil {
		t.Fatalf("RenderLabel: %v", err)
	}
	w, h := decodePNG(t, data)
	if w != 5*2 || h != 3*2 {
		t.Errorf("image is %dx%d, want %dx%d", w, h, 10, 6)
	}
}

func TestRenderEmptyFrame(t *testing.T) {
	r := NewHeatmapRenderer(Config{})
	if _, err := r.RenderFloat(&frame.Frame{}, ""); err == nil {
		t.Error("empty float frame accepted")
	}
	if _, err := r.RenderLabel(&frame.LabelFrame{}); err == nil {
		t.Error("empty label frame accepted")
	}
}

func TestDefaultScale(t *testing.T) {
	r := NewHeatmapRenderer(Config{Scale: 0})

	f := frame.New(2, 3)
	data, err := r.RenderFloat(f, "")
	if err != nil {
		t.Fatalf("RenderFloat: %v", err)
	}
	w, h := decodePNG(t, data)
	if w != 3 || h != 2 {
		t.Errorf("image is %dx%d, want 3x2", w, h)
	}
}
