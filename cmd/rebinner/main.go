// Command rebinner runs one rebinning pass: it reads the raw frame
// store, reduces every frame per readout group and plane, and writes
// the rebinned store.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dune-vd/framerebin/internal/config"
	"github.com/dune-vd/framerebin/internal/data/zarr"
	"github.com/dune-vd/framerebin/internal/pipeline"
	"github.com/dune-vd/framerebin/internal/runlog"
)

func main() {
	log.SetPrefix("rebinner: ")
	log.SetFlags(0)

	var (
		configPath    = flag.String("config", "config/rebinner.yaml", "Path to configuration file")
		inputPath     = flag.String("input", "", "Raw frame store (overrides config)")
		outputPath    = flag.String("output", "", "Rebinned frame store (overrides config)")
		channelFactor = flag.Int("channel-rebin", 0, "Channel rebin factor (overrides config)")
		tickFactor    = flag.Int("tick-rebin", 0, "Tick rebin factor (overrides config)")
		workers       = flag.Int("workers", 0, "Concurrent plane units (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *inputPath != "" {
		cfg.Input.Path = *inputPath
	}
	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}
	if *channelFactor != 0 {
		cfg.Rebin.ChannelFactor = *channelFactor
	}
	if *tickFactor != 0 {
		cfg.Rebin.TickFactor = *tickFactor
	}
	if *workers != 0 {
		cfg.Rebin.Workers = *workers
	}

	runner, err := pipeline.New(cfg.Layout(), cfg.Rules(), pipeline.Config{
		ChannelFactor: cfg.Rebin.ChannelFactor,
		TickFactor:    cfg.Rebin.TickFactor,
		Workers:       cfg.Rebin.Workers,
	})
	if err != nil {
		log.Fatalf("failed to set up rebinning: %v", err)
	}

	src, err := zarr.Open(cfg.Input.Path)
	if err != nil {
		log.Fatalf("failed to open input store: %v", err)
	}
	defer src.Close()

	sink, err := zarr.NewWriter(cfg.Output.Path)
	if err != nil {
		log.Fatalf("failed to open output store: %v", err)
	}
	defer sink.Close()

	var runs *runlog.Store
	if cfg.RunLog.Path != "" {
		runs, err = runlog.NewStore(cfg.RunLog.Path)
		if err != nil {
			log.Fatalf("failed to open run log: %v", err)
		}
		defer runs.Close()
	}

	log.Printf("input:  %s", cfg.Input.Path)
	log.Printf("output: %s", cfg.Output.Path)
	log.Printf("rebin:  channel=%d tick=%d workers=%d",
		cfg.Rebin.ChannelFactor, cfg.Rebin.TickFactor, cfg.Rebin.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	summary, runErr := runner.Run(ctx, src, sink)
	finished := time.Now()

	if runs != nil {
		rec := &runlog.Record{
			InputPath:     cfg.Input.Path,
			OutputPath:    cfg.Output.Path,
			ChannelFactor: cfg.Rebin.ChannelFactor,
			TickFactor:    cfg.Rebin.TickFactor,
			Status:        runlog.StatusCompleted,
			StartedAt:     started,
			FinishedAt:    finished,
		}
		if runErr != nil {
			rec.Status = runlog.StatusFailed
			rec.Error = runErr.Error()
		} else {
			rec.Inputs = summary.Inputs
			rec.Outputs = summary.Outputs
		}
		if err := runs.Insert(rec); err != nil {
			log.Printf("failed to record run: %v", err)
		}
	}

	if runErr != nil {
		log.Fatalf("rebinning failed: %v", runErr)
	}

	log.Printf("done: %d input frames -> %d output datasets across %d groups x %d planes in %s",
		summary.Inputs, summary.Outputs, summary.Groups, summary.Planes,
		finished.Sub(started).Round(time.Millisecond))
}
