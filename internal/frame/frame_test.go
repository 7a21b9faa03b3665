package frame

import "testing"

func TestGatherRows(t *testing.T) {
	f := New(4, 3)
	for ch := 0; ch < 4; ch++ {
		for tick := 0; tick < 3; tick++ {
			f.Set(ch, tick, float32(ch*10+tick))
		}
	}

	sub := f.GatherRows([]int{3, 1})
	if sub.Channels != 2 || sub.Ticks != 3 {
		t.Fatalf("unexpected shape %s", Shape(sub.Channels, sub.Ticks))
	}
	if sub.At(0, 2) != 32 {
		t.Errorf("sub(0,2) = %v, want 32", sub.At(0, 2))
	}
	if sub.At(1, 0) != 10 {
		t.Errorf("sub(1,0) = %v, want 10", sub.At(1, 0))
	}

	// The gathered frame is a copy, not a view.
	sub.Set(0, 0, -1)
	if f.At(3, 0) != 30 {
		t.Errorf("source frame mutated through gathered copy")
	}
}

func TestLabelGatherRows(t *testing.T) {
	f := NewLabel(3, 2)
	f.Set(2, 1, 42)

	sub := f.GatherRows([]int{2})
	if sub.Channels != 1 || sub.Ticks != 2 {
		t.Fatalf("unexpected shape %s", Shape(sub.Channels, sub.Ticks))
	}
	if sub.At(0, 1) != 42 {
		t.Errorf("sub(0,1) = %v, want 42", sub.At(0, 1))
	}
}

func TestSum(t *testing.T) {
	f := New(2, 2)
	f.Set(0, 0, 1.5)
	f.Set(0, 1, -0.5)
	f.Set(1, 0, 2)
	f.Set(1, 1, 3)

	if got := f.Sum(); got != 6 {
		t.Errorf("Sum() = %v, want 6", got)
	}
}
