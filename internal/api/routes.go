// Package api provides the HTTP surface of the frame preview server:
// dataset listings, per-dataset metadata, PNG heatmaps and the run log.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dune-vd/framerebin/internal/cache"
	"github.com/dune-vd/framerebin/internal/data/zarr"
	"github.com/dune-vd/framerebin/internal/frame"
	"github.com/dune-vd/framerebin/internal/render"
	"github.com/dune-vd/framerebin/internal/runlog"
)

// FrameStore is the read-only dataset surface the server exposes.
// Both the zarr store and the in-memory store satisfy it.
type FrameStore interface {
	Datasets() ([]string, error)
	Info(name string) (zarr.Info, error)
	ReadFloat(name string) (*frame.Frame, error)
	ReadLabel(name string) (*frame.LabelFrame, error)
}

// RouterConfig contains router configuration.
type RouterConfig struct {
	Store       FrameStore
	Cache       *cache.Manager
	Renderer    *render.HeatmapRenderer
	RunLog      *runlog.Store // optional
	CORSOrigins []string
}

// NewRouter creates the preview server router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/api/datasets", datasetsHandler(cfg))
	r.Get("/api/datasets/{name}", datasetInfoHandler(cfg))
	r.Get("/api/runs", runsHandler(cfg))
	r.Get("/api/cache/stats", cacheStatsHandler(cfg))
	// chi treats '.' as a param delimiter in `{name}.png` patterns, so the
	// route captures the whole segment and the handler strips the extension.
	r.Get("/frames/{name}", frameImageHandler(cfg))

	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func datasetsHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := cfg.Store.Datasets()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		infos := make([]zarr.Info, 0, len(names))
		for _, name := range names {
			info, err := cfg.Store.Info(name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			infos = append(infos, info)
		}
		writeJSON(w, infos)
	}
}

func datasetInfoHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		info, err := cfg.Store.Info(name)
		if err != nil {
			http.Error(w, "dataset not found: "+name, http.StatusNotFound)
			return
		}
		writeJSON(w, info)
	}
}

func runsHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.RunLog == nil {
			writeJSON(w, []runlog.Record{})
			return
		}
		recs, err := cfg.RunLog.Recent(50)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []runlog.Record{}
		}
		writeJSON(w, recs)
	}
}

func cacheStatsHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cfg.Cache.Stats())
	}
}

// frameImageHandler serves a dataset as a PNG heatmap. Float datasets
// take an optional ?colormap= query; label datasets always use the
// categorical palette.
func frameImageHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(chi.URLParam(r, "name"), ".png")
		colormapName := r.URL.Query().Get("colormap")

		key := cache.ImageKey(name, colormapName)
		if data, ok := cfg.Cache.GetImage(key); ok {
			serveImage(w, data)
			return
		}

		entry, err := loadEntry(cfg, name)
		if err != nil {
			http.Error(w, "dataset not found: "+name, http.StatusNotFound)
			return
		}

		var data []byte
		if entry.Float != nil {
			data, err = cfg.Renderer.RenderFloat(entry.Float, colormapName)
		} else {
			data, err = cfg.Renderer.RenderLabel(entry.Label)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := cfg.Cache.SetImage(key, data); err != nil {
			log.Printf("failed to cache image %s: %v", key, err)
		}
		serveImage(w, data)
	}
}

func loadEntry(cfg RouterConfig, name string) (*cache.Entry, error) {
	if entry, ok := cfg.Cache.GetFrame(name); ok {
		return entry, nil
	}

	info, err := cfg.Store.Info(name)
	if err != nil {
		return nil, err
	}

	entry := &cache.Entry{}
	if info.DataType == "int32" {
		entry.Label, err = cfg.Store.ReadLabel(name)
	} else {
		entry.Float, err = cfg.Store.ReadFloat(name)
	}
	if err != nil {
		return nil, err
	}

	cfg.Cache.SetFrame(name, entry)
	return entry, nil
}

func serveImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(data)
}
