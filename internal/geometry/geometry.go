// Package geometry maps global readout channel indices to detector
// locations. The detector is a stack of CRPs (charge readout planes);
// each CRP owns a contiguous block of channels split between two CRUs,
// and each CRU reads three wire planes (U, V, W) through fixed,
// possibly unequal channel sub-ranges. A readout group in the rest of
// the engine is one CRU, numbered crp*2 + cru.
package geometry

import "fmt"

// Range is a half-open channel interval [Start, End) within one CRP.
type Range struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Len returns the number of channels in the range.
func (r Range) Len() int { return r.End - r.Start }

// Layout holds the static channel layout constants.
type Layout struct {
	// CRPs is the number of charge readout planes in the detector.
	CRPs int
	// ChannelsPerCRP is the width of one CRP's contiguous channel block.
	ChannelsPerCRP int
	// CRU0 and CRU1 are the plane sub-ranges of the two CRUs sharing a
	// CRP, indexed by plane. Both must declare the same plane count and
	// together tile [0, ChannelsPerCRP) exactly.
	CRU0 []Range
	CRU1 []Range
}

// DefaultLayout is the ProtoDUNE-VD layout: 4 CRPs of 3072 channels,
// with interleaved CRU0/CRU1 sub-ranges for the U, V and W planes.
func DefaultLayout() Layout {
	return Layout{
		CRPs:           4,
		ChannelsPerCRP: 3072,
		CRU0: []Range{
			{Start: 0, End: 476},
			{Start: 952, End: 1428},
			{Start: 1904, End: 2488},
		},
		CRU1: []Range{
			{Start: 476, End: 952},
			{Start: 1428, End: 1904},
			{Start: 2488, End: 3072},
		},
	}
}

// LayoutError reports an inconsistent channel layout. It is raised at
// table construction time, before any frame is touched.
type LayoutError struct {
	Reason string
}

func (e *LayoutError) Error() string {
	return "invalid channel layout: " + e.Reason
}

func layoutErrorf(format string, args ...interface{}) error {
	return &LayoutError{Reason: fmt.Sprintf(format, args...)}
}

// GeometryError reports a channel index outside every declared range.
// For validly-shaped input this cannot happen, so it signals a
// configuration or logic fault rather than a skippable cell.
type GeometryError struct {
	Channel int
	Total   int
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("channel %d outside declared ranges [0, %d)", e.Channel, e.Total)
}

// Location is the resolved position of one global channel.
type Location struct {
	// Group is the readout group (CRU) index, crp*2 + cru.
	Group int
	// Plane is the wire plane index within the group.
	Plane int
	// Local is the channel offset within the plane's sub-range.
	Local int
}

// Validate checks the layout constants: positive counts, matching plane
// counts per CRU, strictly increasing in-range sub-ranges, and an exact
// non-overlapping tiling of [0, ChannelsPerCRP) by the union of both
// CRUs' sub-ranges.
func (l Layout) Validate() error {
	if l.CRPs <= 0 {
		return layoutErrorf("crps must be positive, got %d", l.CRPs)
	}
	if l.ChannelsPerCRP <= 0 {
		return layoutErrorf("channels_per_crp must be positive, got %d", l.ChannelsPerCRP)
	}
	if len(l.CRU0) == 0 || len(l.CRU1) == 0 {
		return layoutErrorf("both CRUs must declare at least one plane")
	}
	if len(l.CRU0) != len(l.CRU1) {
		return layoutErrorf("plane count mismatch: CRU0 has %d, CRU1 has %d", len(l.CRU0), len(l.CRU1))
	}

	for cru, ranges := range [][]Range{l.CRU0, l.CRU1} {
		prevEnd := -1
		for p, r := range ranges {
			if r.Start < 0 || r.End > l.ChannelsPerCRP || r.Start >= r.End {
				return layoutErrorf("cru%d plane %d range [%d, %d) out of order or outside [0, %d)",
					cru, p, r.Start, r.End, l.ChannelsPerCRP)
			}
			if r.Start <= prevEnd {
				return layoutErrorf("cru%d plane ranges not strictly increasing at plane %d", cru, p)
			}
			prevEnd = r.End - 1
		}
	}

	// The union of all six sub-ranges must cover each CRP channel
	// exactly once.
	covered := make([]int, l.ChannelsPerCRP)
	for _, ranges := range [][]Range{l.CRU0, l.CRU1} {
		for _, r := range ranges {
			for ch := r.Start; ch < r.End; ch++ {
				covered[ch]++
			}
		}
	}
	for ch, n := range covered {
		if n == 0 {
			return layoutErrorf("channel offset %d not covered by any plane range", ch)
		}
		if n > 1 {
			return layoutErrorf("channel offset %d covered by %d plane ranges", ch, n)
		}
	}
	return nil
}

// TotalChannels returns the declared global channel count.
func (l Layout) TotalChannels() int {
	return l.CRPs * l.ChannelsPerCRP
}

// resolve maps a global channel to a location without any cached state.
func (l Layout) resolve(ch int) (Location, error) {
	total := l.TotalChannels()
	if ch < 0 || ch >= total {
		return Location{}, &GeometryError{Channel: ch, Total: total}
	}

	crp := ch / l.ChannelsPerCRP
	off := ch % l.ChannelsPerCRP

	for cru, ranges := range [][]Range{l.CRU0, l.CRU1} {
		for p, r := range ranges {
			if off >= r.Start && off < r.End {
				return Location{
					Group: crp*2 + cru,
					Plane: p,
					Local: off - r.Start,
				}, nil
			}
		}
	}
	// Unreachable for a validated layout.
	return Location{}, &GeometryError{Channel: ch, Total: total}
}

// Table is the immutable resolved channel table: one Location per global
// channel plus the per-(group, plane) channel index lists. It is built
// once per run and shared read-only by every worker.
type Table struct {
	layout   Layout
	total    int
	lookup   []Location
	channels [][][]int // [group][plane] -> global channel indices, ascending
}

// NewTable validates the layout and resolves every channel exactly once.
func NewTable(layout Layout) (*Table, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	total := layout.TotalChannels()
	groups := layout.CRPs * 2
	planes := len(layout.CRU0)

	t := &Table{
		layout:   layout,
		total:    total,
		lookup:   make([]Location, total),
		channels: make([][][]int, groups),
	}
	for g := 0; g < groups; g++ {
		t.channels[g] = make([][]int, planes)
	}

	for ch := 0; ch < total; ch++ {
		loc, err := layout.resolve(ch)
		if err != nil {
			return nil, err
		}
		t.lookup[ch] = loc
		t.channels[loc.Group][loc.Plane] = append(t.channels[loc.Group][loc.Plane], ch)
	}

	return t, nil
}

// Layout returns the layout the table was built from.
func (t *Table) Layout() Layout { return t.layout }

// TotalChannels returns the global channel count.
func (t *Table) TotalChannels() int { return t.total }

// Groups returns the number of readout groups (CRUs).
func (t *Table) Groups() int { return len(t.channels) }

// PlanesPerGroup returns the number of wire planes per group.
func (t *Table) PlanesPerGroup() int { return len(t.layout.CRU0) }

// Locate returns the location of a global channel.
func (t *Table) Locate(ch int) (Location, error) {
	if ch < 0 || ch >= t.total {
		return Location{}, &GeometryError{Channel: ch, Total: t.total}
	}
	return t.lookup[ch], nil
}

// PlaneChannels returns the cached ascending global channel indices owned
// by one (group, plane). Callers must treat the slice as read-only.
func (t *Table) PlaneChannels(group, plane int) []int {
	return t.channels[group][plane]
}
