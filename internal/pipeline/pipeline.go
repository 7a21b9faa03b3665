// Package pipeline drives one rebinning run: classify the datasets of a
// source store, slice every frame per (group, plane), reduce the slices
// and write the complete named output collection to a sink. A run either
// produces the whole output family or nothing; no partially reduced
// collection is ever written.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dune-vd/framerebin/internal/frame"
	"github.com/dune-vd/framerebin/internal/geometry"
	"github.com/dune-vd/framerebin/internal/rebin"
)

// Source is a read-only handle on named 2-D frame datasets.
type Source interface {
	Datasets() ([]string, error)
	ReadFloat(name string) (*frame.Frame, error)
	ReadLabel(name string) (*frame.LabelFrame, error)
}

// Sink accepts named 2-D frame datasets.
type Sink interface {
	WriteFloat(name string, f *frame.Frame) error
	WriteLabel(name string, f *frame.LabelFrame) error
}

// ShapeMismatchError reports a participating frame whose shape disagrees
// with the rest of the run. It is raised before any reduction starts.
type ShapeMismatchError struct {
	Dataset                 string
	Channels, Ticks         int
	WantChannels, WantTicks int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("dataset %s has shape %s, expected %s", e.Dataset,
		frame.Shape(e.Channels, e.Ticks), frame.Shape(e.WantChannels, e.WantTicks))
}

// Config holds the per-run reduction settings.
type Config struct {
	// ChannelFactor and TickFactor define the block shape.
	ChannelFactor int
	TickFactor    int
	// Workers bounds the number of (group, plane) units reduced
	// concurrently. Values below 1 mean sequential.
	Workers int
}

// Summary reports what a completed run produced.
type Summary struct {
	Inputs  int `json:"inputs"`
	Outputs int `json:"outputs"`
	Groups  int `json:"groups"`
	Planes  int `json:"planes"`
}

// Runner is a reusable rebinning engine bound to a channel table and a
// classification rule set. It holds no per-run state, so the same Runner
// may be run repeatedly over the same or different stores.
type Runner struct {
	table *geometry.Table
	rules frame.Rules
	cfg   Config
}

// New validates the configuration, builds the channel table and returns
// a ready Runner.
func New(layout geometry.Layout, rules frame.Rules, cfg Config) (*Runner, error) {
	if cfg.ChannelFactor <= 0 || cfg.TickFactor <= 0 {
		return nil, fmt.Errorf("rebin factors must be positive, got channel=%d tick=%d",
			cfg.ChannelFactor, cfg.TickFactor)
	}
	table, err := geometry.NewTable(layout)
	if err != nil {
		return nil, err
	}
	return &Runner{table: table, rules: rules, cfg: cfg}, nil
}

// Table exposes the resolved channel table.
func (r *Runner) Table() *geometry.Table { return r.table }

// namedDataset is one continuous frame: its stripped name used in output
// names and its dataset name in the source.
type namedDataset struct {
	name    string
	dataset string
}

// labelPair is one categorical frame with its resolved weight dataset.
type labelPair struct {
	name          string // stripped label name, used in output names
	dataset       string // label dataset name in the source
	weightName    string // stripped weight name
	weightDataset string // weight dataset name in the source
}

// unitResult collects the reduced datasets of one (group, plane) unit.
type unitResult struct {
	floats map[string]*frame.Frame
	labels map[string]*frame.LabelFrame
}

// Run executes one rebinning pass from src to sink.
func (r *Runner) Run(ctx context.Context, src Source, sink Sink) (*Summary, error) {
	names, err := src.Datasets()
	if err != nil {
		return nil, fmt.Errorf("failed to list source datasets: %w", err)
	}

	continuous, pairs, err := r.classify(names)
	if err != nil {
		return nil, err
	}
	if len(continuous) == 0 && len(pairs) == 0 {
		return nil, fmt.Errorf("no reducible frame datasets in source")
	}

	floats, labels, err := r.load(src, continuous, pairs)
	if err != nil {
		return nil, err
	}
	if err := r.checkShapes(floats, labels); err != nil {
		return nil, err
	}

	groups := r.table.Groups()
	planes := r.table.PlanesPerGroup()
	results, err := r.reduceAll(ctx, continuous, pairs, floats, labels, groups, planes)
	if err != nil {
		return nil, err
	}

	written, err := writeResults(sink, results)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Inputs:  len(floats) + len(labels),
		Outputs: written,
		Groups:  groups,
		Planes:  planes,
	}, nil
}

// classify splits the source dataset names into continuous frames and
// label/weight pairs, resolving each pair's weight dataset.
func (r *Runner) classify(names []string) ([]namedDataset, []labelPair, error) {
	stripped := make(map[string]string, len(names))
	for _, n := range names {
		stripped[r.rules.Strip(n)] = n
	}

	var continuous []namedDataset
	var pairs []labelPair
	for _, n := range names {
		cls, ok, err := r.rules.Classify(n)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		switch cls.Kind {
		case frame.KindContinuous:
			continuous = append(continuous, namedDataset{name: cls.Name, dataset: n})
		case frame.KindLabel:
			wds, ok := stripped[cls.Weight]
			if !ok {
				return nil, nil, fmt.Errorf("label frame %s: weight frame %q not present in source", n, cls.Weight)
			}
			pairs = append(pairs, labelPair{
				name:          cls.Name,
				dataset:       n,
				weightName:    cls.Weight,
				weightDataset: wds,
			})
		}
	}

	sort.Slice(continuous, func(i, j int) bool { return continuous[i].name < continuous[j].name })
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	return continuous, pairs, nil
}

// load fetches every participating dataset once.
func (r *Runner) load(src Source, continuous []namedDataset, pairs []labelPair) (map[string]*frame.Frame, map[string]*frame.LabelFrame, error) {
	floats := make(map[string]*frame.Frame)
	labels := make(map[string]*frame.LabelFrame)

	loadFloat := func(dataset string) error {
		if _, ok := floats[dataset]; ok {
			return nil
		}
		f, err := src.ReadFloat(dataset)
		if err != nil {
			return fmt.Errorf("failed to read dataset %s: %w", dataset, err)
		}
		floats[dataset] = f
		return nil
	}

	for _, c := range continuous {
		if err := loadFloat(c.dataset); err != nil {
			return nil, nil, err
		}
	}
	for _, p := range pairs {
		if err := loadFloat(p.weightDataset); err != nil {
			return nil, nil, err
		}
		if _, ok := labels[p.dataset]; ok {
			continue
		}
		lf, err := src.ReadLabel(p.dataset)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read dataset %s: %w", p.dataset, err)
		}
		labels[p.dataset] = lf
	}
	return floats, labels, nil
}

// checkShapes enforces the single-shape precondition across every
// participating frame and matches the channel count against the table.
func (r *Runner) checkShapes(floats map[string]*frame.Frame, labels map[string]*frame.LabelFrame) error {
	wantCh := -1
	wantTicks := -1

	type shaped struct {
		name     string
		ch, tick int
	}
	all := make([]shaped, 0, len(floats)+len(labels))
	for n, f := range floats {
		all = append(all, shaped{n, f.Channels, f.Ticks})
	}
	for n, f := range labels {
		all = append(all, shaped{n, f.Channels, f.Ticks})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].name < all[j].name })

	for _, s := range all {
		if wantCh < 0 {
			wantCh, wantTicks = s.ch, s.tick
			continue
		}
		if s.ch != wantCh || s.tick != wantTicks {
			return &ShapeMismatchError{
				Dataset:      s.name,
				Channels:     s.ch,
				Ticks:        s.tick,
				WantChannels: wantCh,
				WantTicks:    wantTicks,
			}
		}
	}

	if total := r.table.TotalChannels(); wantCh != total {
		return &ShapeMismatchError{
			Dataset:      all[0].name,
			Channels:     wantCh,
			Ticks:        wantTicks,
			WantChannels: total,
			WantTicks:    wantTicks,
		}
	}
	return nil
}

// reduceAll processes every (group, plane) unit, optionally in parallel.
// Units touch disjoint input slices and write to disjoint result slots,
// so workers share nothing but the read-only inputs.
func (r *Runner) reduceAll(ctx context.Context, continuous []namedDataset, pairs []labelPair,
	floats map[string]*frame.Frame, labels map[string]*frame.LabelFrame,
	groups, planes int) ([]unitResult, error) {

	units := groups * planes
	results := make([]unitResult, units)

	process := func(u int) error {
		g, p := u/planes, u%planes
		rows := r.table.PlaneChannels(g, p)
		res := unitResult{
			floats: make(map[string]*frame.Frame),
			labels: make(map[string]*frame.LabelFrame),
		}

		for _, c := range continuous {
			sub := floats[c.dataset].GatherRows(rows)
			red, err := rebin.SumBlocks(sub, r.cfg.ChannelFactor, r.cfg.TickFactor)
			if err != nil {
				return fmt.Errorf("group %d plane %d: %s: %w", g, p, c.name, err)
			}
			res.floats[r.outputName(g, p, c.name, "")] = red
		}

		for _, pr := range pairs {
			lsub := labels[pr.dataset].GatherRows(rows)
			wsub := floats[pr.weightDataset].GatherRows(rows)
			ranked, err := rebin.RankBlocks(lsub, wsub, r.cfg.ChannelFactor, r.cfg.TickFactor)
			if err != nil {
				return fmt.Errorf("group %d plane %d: %s: %w", g, p, pr.name, err)
			}
			res.labels[r.outputName(g, p, pr.name, "_1st")] = ranked.First
			res.labels[r.outputName(g, p, pr.name, "_2nd")] = ranked.Second
			wname := pr.name + "_" + pr.weightName
			res.floats[r.outputName(g, p, wname, "_1st")] = ranked.FirstWeight
			res.floats[r.outputName(g, p, wname, "_2nd")] = ranked.SecondWeight
		}

		results[u] = res
		return nil
	}

	workers := r.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > units {
		workers = units
	}

	if workers == 1 {
		for u := 0; u < units; u++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := process(u); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	jobs := make(chan int, units)
	for u := 0; u < units; u++ {
		jobs <- u
	}
	close(jobs)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				if ctx.Err() != nil {
					return
				}
				if err := process(u); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// writeResults flushes every reduced dataset to the sink in name order.
func writeResults(sink Sink, results []unitResult) (int, error) {
	type out struct {
		name  string
		float *frame.Frame
		label *frame.LabelFrame
	}
	var outs []out
	for _, res := range results {
		for n, f := range res.floats {
			outs = append(outs, out{name: n, float: f})
		}
		for n, f := range res.labels {
			outs = append(outs, out{name: n, label: f})
		}
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].name < outs[j].name })

	for _, o := range outs {
		var err error
		if o.float != nil {
			err = sink.WriteFloat(o.name, o.float)
		} else {
			err = sink.WriteLabel(o.name, o.label)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to write dataset %s: %w", o.name, err)
		}
	}
	return len(outs), nil
}

// outputName builds the deterministic output dataset name for one
// reduced array: prefix + group{g}_plane{p}_{name}{suffix}.
func (r *Runner) outputName(g, p int, name, suffix string) string {
	return fmt.Sprintf("%sgroup%d_plane%d_%s%s", r.rules.Prefix, g, p, name, suffix)
}
