package cache

import (
	"testing"
	"time"

	"github.com/dune-vd/framerebin/internal/frame"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		ImageCacheSizeMB: 8,
		ImageTTL:         time.Minute,
		FrameCacheSize:   4,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestImageCache(t *testing.T) {
	m := newTestManager(t)

	key := ImageKey("frame_group0_plane0_gauss", "viridis")
	if _, ok := m.GetImage(key); ok {
		t.Fatal("hit on empty cache")
	}

	payload := []byte("png-bytes")
	if err := m.SetImage(key, payload); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	got, ok := m.GetImage(key)
	if !ok || string(got) != "png-bytes" {
		t.Errorf("GetImage = (%q, %v)", got, ok)
	}

	// Same dataset under another colormap is a distinct entry.
	if _, ok := m.GetImage(ImageKey("frame_group0_plane0_gauss", "plasma")); ok {
		t.Error("colormap not part of the key")
	}
}

func TestFrameCacheEviction(t *testing.T) {
	m := newTestManager(t)

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		m.SetFrame(name, &Entry{Float: frame.New(1, 1)})
	}

	// Capacity is 4, so the oldest entry is gone.
	if _, ok := m.GetFrame("a"); ok {
		t.Error("oldest frame survived past capacity")
	}
	e, ok := m.GetFrame("e")
	if !ok || e.Float == nil {
		t.Errorf("GetFrame(e) = (%v, %v)", e, ok)
	}
}

func TestStats(t *testing.T) {
	m := newTestManager(t)
	m.SetFrame("x", &Entry{Label: frame.NewLabel(1, 1)})

	stats := m.Stats()
	if stats["frame_cache_len"] != 1 {
		t.Errorf("frame_cache_len = %v, want 1", stats["frame_cache_len"])
	}
	if _, ok := stats["image_cache_len"]; !ok {
		t.Error("missing image_cache_len")
	}
}
