// Package cache provides caching for rendered heatmap images and
// decoded frames served by the preview server.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dune-vd/framerebin/internal/frame"
)

// Config contains cache configuration.
type Config struct {
	ImageCacheSizeMB int
	ImageTTL         time.Duration
	FrameCacheSize   int
}

// Entry is one decoded dataset: exactly one of Float or Label is set.
type Entry struct {
	Float *frame.Frame
	Label *frame.LabelFrame
}

// Manager manages the image and frame caches.
type Manager struct {
	imageCache *bigcache.BigCache
	frameCache *lru.Cache[string, *Entry]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	imageCacheConfig := bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.ImageTTL,
		CleanWindow:        cfg.ImageTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       512 * 1024, // rendered PNG of one plane
		HardMaxCacheSize:   cfg.ImageCacheSizeMB,
		Verbose:            false,
	}

	imageCache, err := bigcache.New(context.Background(), imageCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	frameCache, err := lru.New[string, *Entry](cfg.FrameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame cache: %w", err)
	}

	return &Manager{
		imageCache: imageCache,
		frameCache: frameCache,
	}, nil
}

// GetImage retrieves a rendered image from cache.
func (m *Manager) GetImage(key string) ([]byte, bool) {
	data, err := m.imageCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetImage stores a rendered image in cache.
func (m *Manager) SetImage(key string, data []byte) error {
	return m.imageCache.Set(key, data)
}

// GetFrame retrieves a decoded frame from cache.
func (m *Manager) GetFrame(name string) (*Entry, bool) {
	return m.frameCache.Get(name)
}

// SetFrame stores a decoded frame in cache.
func (m *Manager) SetFrame(name string, e *Entry) {
	m.frameCache.Add(name, e)
}

// ImageKey builds the cache key for a rendered dataset image.
func ImageKey(dataset, colormap string) string {
	return fmt.Sprintf("img:%s:%s", dataset, colormap)
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"image_cache_len": m.imageCache.Len(),
		"image_cache_cap": m.imageCache.Capacity(),
		"frame_cache_len": m.frameCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.imageCache.Close()
}
