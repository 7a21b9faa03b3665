package rebin

import (
	"fmt"

	"github.com/dune-vd/framerebin/internal/frame"
)

// Ranked holds the four outputs of one label/weight reduction: the two
// labels with the largest summed weight per block and their weights.
type Ranked struct {
	First        *frame.LabelFrame
	FirstWeight  *frame.Frame
	Second       *frame.LabelFrame
	SecondWeight *frame.Frame
}

// RankBlocks reduces a label frame and its paired weight frame. Inside
// each block, weights of recurring labels are summed per distinct label;
// label 0 is the no-entity sentinel and never participates, and a label
// whose summed weight is not positive is excluded as well, so ranked
// weights are always non-negative. The two labels with the largest
// totals fill the first/second outputs. When totals are exactly equal
// the smaller label id wins, so the result does not depend on cell
// iteration order. Blocks with no rankable label yield (0, 0) in both
// slots; blocks with a single rankable label yield (0, 0) in the second
// slot.
func RankBlocks(labels *frame.LabelFrame, weights *frame.Frame, chFactor, tickFactor int) (*Ranked, error) {
	if err := checkFactors(chFactor, tickFactor); err != nil {
		return nil, err
	}
	if labels.Channels != weights.Channels || labels.Ticks != weights.Ticks {
		return nil, fmt.Errorf("label shape %s does not match weight shape %s",
			frame.Shape(labels.Channels, labels.Ticks), frame.Shape(weights.Channels, weights.Ticks))
	}

	outCh := ReducedDim(labels.Channels, chFactor)
	outTicks := ReducedDim(labels.Ticks, tickFactor)
	r := &Ranked{
		First:        frame.NewLabel(outCh, outTicks),
		FirstWeight:  frame.New(outCh, outTicks),
		Second:       frame.NewLabel(outCh, outTicks),
		SecondWeight: frame.New(outCh, outTicks),
	}

	totals := make(map[int32]float64)
	for oc := 0; oc < outCh; oc++ {
		c0 := oc * chFactor
		c1 := min(c0+chFactor, labels.Channels)
		for ot := 0; ot < outTicks; ot++ {
			t0 := ot * tickFactor
			t1 := min(t0+tickFactor, labels.Ticks)

			clear(totals)
			for c := c0; c < c1; c++ {
				lrow := labels.Row(c)
				wrow := weights.Row(c)
				for t := t0; t < t1; t++ {
					if lbl := lrow[t]; lbl != 0 {
						totals[lbl] += float64(wrow[t])
					}
				}
			}

			l1, w1, l2, w2 := topTwo(totals)
			r.First.Set(oc, ot, l1)
			r.FirstWeight.Set(oc, ot, float32(w1))
			r.Second.Set(oc, ot, l2)
			r.SecondWeight.Set(oc, ot, float32(w2))
		}
	}
	return r, nil
}

// topTwo selects the two entries with the largest positive weight,
// breaking exact ties by the smaller label id. Empty slots are (0, 0).
func topTwo(totals map[int32]float64) (l1 int32, w1 float64, l2 int32, w2 float64) {
	for lbl, w := range totals {
		if w <= 0 {
			continue
		}
		switch {
		case outranks(lbl, w, l1, w1):
			l2, w2 = l1, w1
			l1, w1 = lbl, w
		case outranks(lbl, w, l2, w2):
			l2, w2 = lbl, w
		}
	}
	return l1, w1, l2, w2
}

// outranks reports whether candidate (lbl, w) beats the current holder.
// An empty slot (label 0) is always beaten.
func outranks(lbl int32, w float64, curLbl int32, curW float64) bool {
	if curLbl == 0 {
		return true
	}
	if w != curW {
		return w > curW
	}
	return lbl < curLbl
}
