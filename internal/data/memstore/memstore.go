// Package memstore provides an in-memory frame store implementing the
// same read/write surface as the zarr store. It backs tests and lets
// callers compose pipelines without touching disk.
package memstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dune-vd/framerebin/internal/data/zarr"
	"github.com/dune-vd/framerebin/internal/frame"
)

// Store holds named frames in memory.
type Store struct {
	mu     sync.RWMutex
	floats map[string]*frame.Frame
	labels map[string]*frame.LabelFrame
}

// New creates an empty store.
func New() *Store {
	return &Store{
		floats: make(map[string]*frame.Frame),
		labels: make(map[string]*frame.LabelFrame),
	}
}

// Datasets lists stored dataset names, sorted.
func (s *Store) Datasets() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.floats)+len(s.labels))
	for name := range s.floats {
		names = append(names, name)
	}
	for name := range s.labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Info returns shape and element type of a dataset.
func (s *Store) Info(name string) (zarr.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.floats[name]; ok {
		return zarr.Info{Name: name, Channels: f.Channels, Ticks: f.Ticks, DataType: "float32"}, nil
	}
	if f, ok := s.labels[name]; ok {
		return zarr.Info{Name: name, Channels: f.Channels, Ticks: f.Ticks, DataType: "int32"}, nil
	}
	return zarr.Info{}, fmt.Errorf("dataset not found: %s", name)
}

// ReadFloat returns a stored continuous frame.
func (s *Store) ReadFloat(name string) (*frame.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.floats[name]
	if !ok {
		return nil, fmt.Errorf("float dataset not found: %s", name)
	}
	return f, nil
}

// ReadLabel returns a stored label frame.
func (s *Store) ReadLabel(name string) (*frame.LabelFrame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.labels[name]
	if !ok {
		return nil, fmt.Errorf("label dataset not found: %s", name)
	}
	return f, nil
}

// WriteFloat stores a continuous frame under the given name.
func (s *Store) WriteFloat(name string, f *frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.labels, name)
	s.floats[name] = f
	return nil
}

// WriteLabel stores a label frame under the given name.
func (s *Store) WriteLabel(name string, f *frame.LabelFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.floats, name)
	s.labels[name] = f
	return nil
}

// Len returns the number of stored datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.floats) + len(s.labels)
}
