// Package render draws rebinned frames as PNG heatmaps using fogleman/gg.
// Images put ticks on the x axis and channels on the y axis, one scaled
// cell per array element.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"

	"github.com/dune-vd/framerebin/internal/frame"
	"github.com/dune-vd/framerebin/pkg/colormap"
)

// Config contains renderer configuration.
type Config struct {
	// Scale is the pixel edge length of one cell.
	Scale int
	// DefaultColormap names the colormap used when a request names none.
	DefaultColormap string
}

// HeatmapRenderer renders frames to PNG images.
type HeatmapRenderer struct {
	config     Config
	bufferPool sync.Pool
}

// NewHeatmapRenderer creates a renderer.
func NewHeatmapRenderer(cfg Config) *HeatmapRenderer {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.DefaultColormap == "" {
		cfg.DefaultColormap = "viridis"
	}
	return &HeatmapRenderer{
		config: cfg,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 64*1024))
			},
		},
	}
}

// RenderFloat renders a continuous frame, normalizing values to the
// frame's own min/max range.
func (r *HeatmapRenderer) RenderFloat(f *frame.Frame, colormapName string) ([]byte, error) {
	if f.Channels == 0 || f.Ticks == 0 {
		return nil, fmt.Errorf("cannot render empty frame")
	}
	if colormapName == "" {
		colormapName = r.config.DefaultColormap
	}
	cmap := colormap.ByName(colormapName)

	lo, hi := f.Values[0], f.Values[0]
	for _, v := range f.Values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := float64(hi - lo)
	if span == 0 {
		span = 1
	}

	scale := float64(r.config.Scale)
	dc := gg.NewContext(f.Ticks*r.config.Scale, f.Channels*r.config.Scale)
	dc.SetColor(color.White)
	dc.Clear()

	for ch := 0; ch < f.Channels; ch++ {
		row := f.Row(ch)
		for t := 0; t < f.Ticks; t++ {
			dc.SetColor(cmap.At(float64(row[t]-lo) / span))
			dc.DrawRectangle(float64(t)*scale, float64(ch)*scale, scale, scale)
			dc.Fill()
		}
	}

	return r.encodeContext(dc)
}

// RenderLabel renders a label frame with the categorical palette.
// Label 0 cells stay on the white background.
func (r *HeatmapRenderer) RenderLabel(f *frame.LabelFrame) ([]byte, error) {
	if f.Channels == 0 || f.Ticks == 0 {
		return nil, fmt.Errorf("cannot render empty frame")
	}

	scale := float64(r.config.Scale)
	dc := gg.NewContext(f.Ticks*r.config.Scale, f.Channels*r.config.Scale)
	dc.SetColor(color.White)
	dc.Clear()

	for ch := 0; ch < f.Channels; ch++ {
		row := f.Row(ch)
		for t := 0; t < f.Ticks; t++ {
			lbl := row[t]
			if lbl == 0 {
				continue
			}
			dc.SetColor(colormap.Categorical.AtIndex(int(lbl)))
			dc.DrawRectangle(float64(t)*scale, float64(ch)*scale, scale, scale)
			dc.Fill()
		}
	}

	return r.encodeContext(dc)
}

func (r *HeatmapRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
