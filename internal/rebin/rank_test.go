package rebin

import (
	"testing"

	"github.com/dune-vd/framerebin/internal/frame"
)

func TestRankBlocksSumsRecurringLabels(t *testing.T) {
	// One 2x2 block with cells A:5, A:3, B:4 and one empty cell. The two
	// A cells must be summed, not picked individually, so A wins with 8.
	labels := frame.NewLabel(2, 2)
	weights := frame.New(2, 2)
	labels.Set(0, 0, 7)
	weights.Set(0, 0, 5)
	labels.Set(0, 1, 7)
	weights.Set(0, 1, 3)
	labels.Set(1, 0, 9)
	weights.Set(1, 0, 4)
	// (1,1) stays label 0; its weight must not leak into the ranking.
	weights.Set(1, 1, 99)

	r, err := RankBlocks(labels, weights, 2, 2)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}

	if got := r.First.At(0, 0); got != 7 {
		t.Errorf("first label = %d, want 7", got)
	}
	if got := r.FirstWeight.At(0, 0); got != 8 {
		t.Errorf("first weight = %v, want 8", got)
	}
	if got := r.Second.At(0, 0); got != 9 {
		t.Errorf("second label = %d, want 9", got)
	}
	if got := r.SecondWeight.At(0, 0); got != 4 {
		t.Errorf("second weight = %v, want 4", got)
	}
}

func TestRankBlocksAllZeroLabels(t *testing.T) {
	labels := frame.NewLabel(2, 2)
	weights := frame.New(2, 2)
	for i := range weights.Values {
		weights.Values[i] = 5
	}

	r, err := RankBlocks(labels, weights, 2, 2)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}
	if r.First.At(0, 0) != 0 || r.FirstWeight.At(0, 0) != 0 ||
		r.Second.At(0, 0) != 0 || r.SecondWeight.At(0, 0) != 0 {
		t.Errorf("all-zero block must yield (0,0)/(0,0), got (%d,%v)/(%d,%v)",
			r.First.At(0, 0), r.FirstWeight.At(0, 0),
			r.Second.At(0, 0), r.SecondWeight.At(0, 0))
	}
}

func TestRankBlocksSingleLabel(t *testing.T) {
	labels := frame.NewLabel(2, 2)
	weights := frame.New(2, 2)
	labels.Set(1, 1, 3)
	weights.Set(1, 1, 2.5)

	r, err := RankBlocks(labels, weights, 2, 2)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}
	if r.First.At(0, 0) != 3 || r.FirstWeight.At(0, 0) != 2.5 {
		t.Errorf("first = (%d, %v), want (3, 2.5)", r.First.At(0, 0), r.FirstWeight.At(0, 0))
	}
	if r.Second.At(0, 0) != 0 || r.SecondWeight.At(0, 0) != 0 {
		t.Errorf("second = (%d, %v), want (0, 0)", r.Second.At(0, 0), r.SecondWeight.At(0, 0))
	}
}

func TestRankBlocksTieBreak(t *testing.T) {
	// Equal summed weights: the smaller label id wins first place.
	labels := frame.NewLabel(1, 2)
	weights := frame.New(1, 2)
	labels.Set(0, 0, 9)
	weights.Set(0, 0, 3)
	labels.Set(0, 1, 5)
	weights.Set(0, 1, 3)

	r, err := RankBlocks(labels, weights, 1, 2)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}
	if r.First.At(0, 0) != 5 {
		t.Errorf("tie broken wrong: first label = %d, want 5", r.First.At(0, 0))
	}
	if r.Second.At(0, 0) != 9 {
		t.Errorf("tie broken wrong: second label = %d, want 9", r.Second.At(0, 0))
	}
}

func TestRankBlocksNegativeTotalsExcluded(t *testing.T) {
	// Weight frames are continuous data and can go negative. A label
	// whose block total is not positive must not fill a rank slot.
	labels := frame.NewLabel(1, 2)
	weights := frame.New(1, 2)
	labels.Set(0, 0, 7)
	weights.Set(0, 0, -5)
	labels.Set(0, 1, 3)
	weights.Set(0, 1, 4)

	r, err := RankBlocks(labels, weights, 1, 2)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}
	if r.First.At(0, 0) != 3 || r.FirstWeight.At(0, 0) != 4 {
		t.Errorf("first = (%d, %v), want (3, 4)", r.First.At(0, 0), r.FirstWeight.At(0, 0))
	}
	if r.Second.At(0, 0) != 0 || r.SecondWeight.At(0, 0) != 0 {
		t.Errorf("second = (%d, %v), want (0, 0)", r.Second.At(0, 0), r.SecondWeight.At(0, 0))
	}
}

func TestRankBlocksAllNegativeTotals(t *testing.T) {
	labels := frame.NewLabel(2, 2)
	weights := frame.New(2, 2)
	for i := range labels.Values {
		labels.Values[i] = int32(i) + 1
		weights.Values[i] = -1
	}

	r, err := RankBlocks(labels, weights, 2, 2)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}
	if r.First.At(0, 0) != 0 || r.FirstWeight.At(0, 0) != 0 ||
		r.Second.At(0, 0) != 0 || r.SecondWeight.At(0, 0) != 0 {
		t.Errorf("block without positive totals must yield (0,0)/(0,0), got (%d,%v)/(%d,%v)",
			r.First.At(0, 0), r.FirstWeight.At(0, 0),
			r.Second.At(0, 0), r.SecondWeight.At(0, 0))
	}
}

func TestRankBlocksOrderingInvariants(t *testing.T) {
	labels := frame.NewLabel(6, 9)
	weights := frame.New(6, 9)
	for i := range labels.Values {
		labels.Values[i] = int32(i % 5)           // includes label 0
		weights.Values[i] = float32(i%7)*0.5 - 1 // includes negative weights
	}

	r, err := RankBlocks(labels, weights, 4, 4)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}

	for i := range r.First.Values {
		w1 := r.FirstWeight.Values[i]
		w2 := r.SecondWeight.Values[i]
		if w1 < w2 || w2 < 0 {
			t.Fatalf("cell %d: weight ordering violated: w1=%v w2=%v", i, w1, w2)
		}
		if r.First.Values[i] == 0 && (w1 != 0 || r.Second.Values[i] != 0) {
			t.Fatalf("cell %d: empty first slot with non-empty remainder", i)
		}
	}
}

func TestRankBlocksIndependentRuns(t *testing.T) {
	labels := frame.NewLabel(4, 4)
	weights := frame.New(4, 4)
	for i := range labels.Values {
		labels.Values[i] = int32(i%3) + 1
		weights.Values[i] = float32(i)
	}

	a, err := RankBlocks(labels, weights, 2, 2)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}
	b, err := RankBlocks(labels, weights, 2, 2)
	if err != nil {
		t.Fatalf("RankBlocks: %v", err)
	}
	for i := range a.First.Values {
		if a.First.Values[i] != b.First.Values[i] || a.FirstWeight.Values[i] != b.FirstWeight.Values[i] {
			t.Fatalf("repeated runs disagree at cell %d", i)
		}
	}
}

func TestRankBlocksShapeMismatch(t *testing.T) {
	labels := frame.NewLabel(2, 2)
	weights := frame.New(2, 3)
	if _, err := RankBlocks(labels, weights, 1, 1); err == nil {
		t.Fatal("mismatched shapes accepted")
	}
}
