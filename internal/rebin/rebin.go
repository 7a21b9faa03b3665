// Package rebin implements block reduction of 2-D frames: summation for
// continuous frames and charge-weighted top-2 label ranking for label
// frames. Blocks tile the frame from (0,0) without overlap; when a
// dimension is not an exact multiple of its factor the trailing blocks
// are narrower and sum only the cells they contain. No density
// correction is applied to partial edge blocks.
package rebin

import (
	"fmt"

	"github.com/dune-vd/framerebin/internal/frame"
)

// ReducedDim returns the output length of a dimension of size n reduced
// by the given block factor, counting the trailing partial block.
func ReducedDim(n, factor int) int {
	return (n + factor - 1) / factor
}

func checkFactors(chFactor, tickFactor int) error {
	if chFactor <= 0 || tickFactor <= 0 {
		return fmt.Errorf("rebin factors must be positive, got channel=%d tick=%d", chFactor, tickFactor)
	}
	return nil
}

// SumBlocks reduces a continuous frame by summing each block. Negative
// values pass through unmodified; sums accumulate in float64 before
// narrowing to the output element type.
func SumBlocks(f *frame.Frame, chFactor, tickFactor int) (*frame.Frame, error) {
	if err := checkFactors(chFactor, tickFactor); err != nil {
		return nil, err
	}

	out := frame.New(ReducedDim(f.Channels, chFactor), ReducedDim(f.Ticks, tickFactor))
	for oc := 0; oc < out.Channels; oc++ {
		c0 := oc * chFactor
		c1 := min(c0+chFactor, f.Channels)
		for ot := 0; ot < out.Ticks; ot++ {
			t0 := ot * tickFactor
			t1 := min(t0+tickFactor, f.Ticks)

			var sum float64
			for c := c0; c < c1; c++ {
				row := f.Row(c)
				for t := t0; t < t1; t++ {
					sum += float64(row[t])
				}
			}
			out.Set(oc, ot, float32(sum))
		}
	}
	return out, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
