package frame

import (
	"fmt"
	"strings"
)

// Kind says how a dataset is reduced during rebinning.
type Kind int

const (
	// KindContinuous frames are additive and reduced by block summation.
	KindContinuous Kind = iota
	// KindLabel frames carry integer entity labels and are reduced by
	// ranking the labels by summed weight inside each block.
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindContinuous:
		return "continuous"
	case KindLabel:
		return "label"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Class is the classification of one input dataset.
type Class struct {
	Kind Kind
	// Name is the dataset name with the configured prefix stripped,
	// used to build output dataset names.
	Name string
	// Weight is the stripped name of the paired weight dataset.
	// Set only for KindLabel.
	Weight string
}

// UnknownKindError reports a dataset that carries the frame marker but
// matches none of the classification rules.
type UnknownKindError struct {
	Dataset string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown frame kind for dataset %q", e.Dataset)
}

// Rules is the explicit dataset classification table. Only datasets whose
// name contains Marker participate in a rebinning run; everything else in
// the input store is skipped deterministically. A marker-matching name
// that is neither continuous, a known label, nor ignored is an error, so
// a misnamed frame cannot silently drop out of the output family.
type Rules struct {
	// Marker is the case-insensitive substring that tags reducible frame
	// datasets (the original stores use "frame").
	Marker string
	// Prefix is stripped from dataset names before rule lookup and
	// prepended again to output names.
	Prefix string
	// Continuous lists stripped names reduced by block summation.
	Continuous []string
	// Labels maps a stripped label-frame name to the stripped name of
	// its weight frame.
	Labels map[string]string
	// Ignore lists stripped names that are deliberately skipped even
	// though they carry the marker.
	Ignore []string
}

// DefaultRules covers the datasets written by the labelling pipeline:
// a gauss-filtered signal frame and per-cell charge as continuous data,
// track-id and particle-id labels both weighted by charge.
func DefaultRules() Rules {
	return Rules{
		Marker:     "frame",
		Prefix:     "frame_",
		Continuous: []string{"gauss", "charge"},
		Labels: map[string]string{
			"trackid": "charge",
			"pid":     "charge",
		},
	}
}

// Strip removes the configured prefix from a dataset name.
func (r Rules) Strip(dataset string) string {
	return strings.TrimPrefix(dataset, r.Prefix)
}

// Classify determines how the named dataset participates in a run.
// The second return is false when the dataset is skipped (no marker, or
// explicitly ignored). A marker-matching name that matches no rule
// returns an UnknownKindError.
func (r Rules) Classify(dataset string) (Class, bool, error) {
	if r.Marker != "" && !strings.Contains(strings.ToLower(dataset), strings.ToLower(r.Marker)) {
		return Class{}, false, nil
	}

	name := r.Strip(dataset)
	for _, ig := range r.Ignore {
		if name == ig {
			return Class{}, false, nil
		}
	}
	for _, c := range r.Continuous {
		if name == c {
			return Class{Kind: KindContinuous, Name: name}, true, nil
		}
	}
	if w, ok := r.Labels[name]; ok {
		return Class{Kind: KindLabel, Name: name, Weight: w}, true, nil
	}

	return Class{}, false, &UnknownKindError{Dataset: dataset}
}
