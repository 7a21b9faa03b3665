// Command frameview serves a frame store over HTTP: dataset listings,
// PNG heatmaps of raw or rebinned frames, and the run log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dune-vd/framerebin/internal/api"
	"github.com/dune-vd/framerebin/internal/cache"
	"github.com/dune-vd/framerebin/internal/config"
	"github.com/dune-vd/framerebin/internal/data/zarr"
	"github.com/dune-vd/framerebin/internal/render"
	"github.com/dune-vd/framerebin/internal/runlog"
)

func main() {
	configPath := flag.String("config", "config/rebinner.yaml", "Path to configuration file")
	storePath := flag.String("store", "", "Frame store to serve (defaults to the configured output store)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	path := cfg.Output.Path
	if *storePath != "" {
		path = *storePath
	}

	store, err := zarr.Open(path)
	if err != nil {
		log.Fatalf("Failed to open frame store: %v", err)
	}
	defer store.Close()

	names, err := store.Datasets()
	if err != nil {
		log.Fatalf("Failed to list frame store: %v", err)
	}
	log.Printf("Serving %d datasets from %s", len(names), path)

	cacheManager, err := cache.NewManager(cache.Config{
		ImageCacheSizeMB: cfg.Server.CacheSizeMB,
		ImageTTL:         time.Duration(cfg.Server.CacheTTLMinutes) * time.Minute,
		FrameCacheSize:   256,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	renderer := render.NewHeatmapRenderer(render.Config{
		Scale: cfg.Server.RenderScale,
	})

	var runs *runlog.Store
	if cfg.RunLog.Path != "" {
		if _, err := os.Stat(cfg.RunLog.Path); err == nil {
			runs, err = runlog.NewStore(cfg.RunLog.Path)
			if err != nil {
				log.Printf("Run log not available: %v", err)
			} else {
				defer runs.Close()
			}
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Store:       store,
		Cache:       cacheManager,
		Renderer:    renderer,
		RunLog:      runs,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
