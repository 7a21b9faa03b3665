package geometry

import (
	"errors"
	"testing"
)

func TestDefaultLayoutPartition(t *testing.T) {
	layout := DefaultLayout()
	table, err := NewTable(layout)
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}

	total := layout.TotalChannels()
	if total != 4*3072 {
		t.Fatalf("unexpected total channels: %d", total)
	}

	// Every channel resolves to exactly one location, and the cached
	// plane lists tile the channel space without collisions.
	seen := make([]int, total)
	for g := 0; g < table.Groups(); g++ {
		for p := 0; p < table.PlanesPerGroup(); p++ {
			for _, ch := range table.PlaneChannels(g, p) {
				seen[ch]++
			}
		}
	}
	for ch, n := range seen {
		if n != 1 {
			t.Fatalf("channel %d owned by %d plane lists", ch, n)
		}
	}

	for ch := 0; ch < total; ch++ {
		loc, err := table.Locate(ch)
		if err != nil {
			t.Fatalf("Locate(%d): %v", ch, err)
		}
		chans := table.PlaneChannels(loc.Group, loc.Plane)
		if chans[loc.Local] != ch {
			t.Fatalf("channel %d: local offset %d maps back to %d", ch, loc.Local, chans[loc.Local])
		}
	}
}

func TestPlaneWidths(t *testing.T) {
	table, err := NewTable(DefaultLayout())
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}

	// U and V read 476 channels per CRU, W reads 584.
	wantWidths := []int{476, 476, 584}
	for g := 0; g < table.Groups(); g++ {
		for p, want := range wantWidths {
			if got := len(table.PlaneChannels(g, p)); got != want {
				t.Errorf("group %d plane %d: %d channels, want %d", g, p, got, want)
			}
		}
	}
}

func TestLocateKnownChannels(t *testing.T) {
	table, err := NewTable(DefaultLayout())
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}

	tests := []struct {
		ch   int
		want Location
	}{
		{0, Location{Group: 0, Plane: 0, Local: 0}},
		{475, Location{Group: 0, Plane: 0, Local: 475}},
		{476, Location{Group: 1, Plane: 0, Local: 0}},
		{952, Location{Group: 0, Plane: 1, Local: 0}},
		{1904, Location{Group: 0, Plane: 2, Local: 0}},
		{2488, Location{Group: 1, Plane: 2, Local: 0}},
		{3071, Location{Group: 1, Plane: 2, Local: 583}},
		{3072, Location{Group: 2, Plane: 0, Local: 0}},
		{3072*4 - 1, Location{Group: 7, Plane: 2, Local: 583}},
	}
	for _, tc := range tests {
		got, err := table.Locate(tc.ch)
		if err != nil {
			t.Errorf("Locate(%d): %v", tc.ch, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Locate(%d) = %+v, want %+v", tc.ch, got, tc.want)
		}
	}
}

func TestLocateOutOfRange(t *testing.T) {
	table, err := NewTable(DefaultLayout())
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}

	for _, ch := range []int{-1, table.TotalChannels(), table.TotalChannels() + 100} {
		_, err := table.Locate(ch)
		var gerr *GeometryError
		if !errors.As(err, &gerr) {
			t.Errorf("Locate(%d): expected GeometryError, got %v", ch, err)
		}
	}
}

func TestLayoutValidation(t *testing.T) {
	valid := Layout{
		CRPs:           1,
		ChannelsPerCRP: 8,
		CRU0:           []Range{{0, 2}, {4, 6}},
		CRU1:           []Range{{2, 4}, {6, 8}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid layout rejected: %v", err)
	}

	tests := []struct {
		name   string
		layout Layout
	}{
		{
			name: "zero crps",
			layout: Layout{
				CRPs: 0, ChannelsPerCRP: 8,
				CRU0: []Range{{0, 4}}, CRU1: []Range{{4, 8}},
			},
		},
		{
			name: "plane count mismatch",
			layout: Layout{
				CRPs: 1, ChannelsPerCRP: 8,
				CRU0: []Range{{0, 2}, {4, 6}}, CRU1: []Range{{2, 4}},
			},
		},
		{
			name: "reversed range",
			layout: Layout{
				CRPs: 1, ChannelsPerCRP: 8,
				CRU0: []Range{{2, 0}}, CRU1: []Range{{2, 8}},
			},
		},
		{
			name: "overlap",
			layout: Layout{
				CRPs: 1, ChannelsPerCRP: 8,
				CRU0: []Range{{0, 5}}, CRU1: []Range{{4, 8}},
			},
		},
		{
			name: "gap",
			layout: Layout{
				CRPs: 1, ChannelsPerCRP: 8,
				CRU0: []Range{{0, 3}}, CRU1: []Range{{4, 8}},
			},
		},
		{
			name: "not increasing within cru",
			layout: Layout{
				CRPs: 1, ChannelsPerCRP: 8,
				CRU0: []Range{{4, 6}, {0, 2}}, CRU1: []Range{{2, 4}, {6, 8}},
			},
		},
		{
			name: "range outside crp",
			layout: Layout{
				CRPs: 1, ChannelsPerCRP: 8,
				CRU0: []Range{{0, 4}}, CRU1: []Range{{4, 9}},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.layout.Validate()
			var lerr *LayoutError
			if !errors.As(err, &lerr) {
				t.Errorf("expected LayoutError, got %v", err)
			}
			if _, err := NewTable(tc.layout); err == nil {
				t.Errorf("NewTable accepted invalid layout")
			}
		})
	}
}
