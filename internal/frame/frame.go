// Package frame defines the in-memory 2-D frame types shared by the
// rebinning engine: continuous (float32) frames and integer label frames,
// both laid out row-major with one row per readout channel.
package frame

import "fmt"

// Frame is a continuous 2-D array of shape (channels, ticks).
type Frame struct {
	Channels int
	Ticks    int
	Values   []float32
}

// New creates a zero-filled continuous frame.
func New(channels, ticks int) *Frame {
	return &Frame{
		Channels: channels,
		Ticks:    ticks,
		Values:   make([]float32, channels*ticks),
	}
}

// At returns the value at (channel, tick).
func (f *Frame) At(ch, tick int) float32 {
	return f.Values[ch*f.Ticks+tick]
}

// Set stores a value at (channel, tick).
func (f *Frame) Set(ch, tick int, v float32) {
	f.Values[ch*f.Ticks+tick] = v
}

// Row returns the tick slice for one channel. The slice aliases the
// frame's backing array.
func (f *Frame) Row(ch int) []float32 {
	return f.Values[ch*f.Ticks : (ch+1)*f.Ticks]
}

// GatherRows builds a new frame from the given channel rows, in order.
// Row indices outside the frame are a caller bug and panic via the
// underlying slice bounds check.
func (f *Frame) GatherRows(rows []int) *Frame {
	out := New(len(rows), f.Ticks)
	for i, ch := range rows {
		copy(out.Row(i), f.Row(ch))
	}
	return out
}

// Sum returns the total of all cells, accumulated in float64.
func (f *Frame) Sum() float64 {
	var s float64
	for _, v := range f.Values {
		s += float64(v)
	}
	return s
}

// LabelFrame is a 2-D array of integer entity labels with the same layout
// as Frame. Label 0 is the reserved "no entity" sentinel.
type LabelFrame struct {
	Channels int
	Ticks    int
	Values   []int32
}

// NewLabel creates a zero-filled label frame.
func NewLabel(channels, ticks int) *LabelFrame {
	return &LabelFrame{
		Channels: channels,
		Ticks:    ticks,
		Values:   make([]int32, channels*ticks),
	}
}

// At returns the label at (channel, tick).
func (f *LabelFrame) At(ch, tick int) int32 {
	return f.Values[ch*f.Ticks+tick]
}

// Set stores a label at (channel, tick).
func (f *LabelFrame) Set(ch, tick int, v int32) {
	f.Values[ch*f.Ticks+tick] = v
}

// Row returns the tick slice for one channel.
func (f *LabelFrame) Row(ch int) []int32 {
	return f.Values[ch*f.Ticks : (ch+1)*f.Ticks]
}

// GatherRows builds a new label frame from the given channel rows, in order.
func (f *LabelFrame) GatherRows(rows []int) *LabelFrame {
	out := NewLabel(len(rows), f.Ticks)
	for i, ch := range rows {
		copy(out.Row(i), f.Row(ch))
	}
	return out
}

// Shape formats a (channels, ticks) pair for error messages.
func Shape(channels, ticks int) string {
	return fmt.Sprintf("(%d, %d)", channels, ticks)
}
