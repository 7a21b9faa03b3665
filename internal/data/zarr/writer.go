package zarr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/dune-vd/framerebin/internal/frame"
)

// Writer creates datasets in a store directory. Each dataset is written
// as a single zstd-compressed chunk; the chunk grid matches the array
// shape so any Zarr v3 reader can assemble it.
type Writer struct {
	basePath string
	encoder  *zstd.Encoder
}

// NewWriter creates (or reuses) a store directory for writing.
func NewWriter(basePath string) (*Writer, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store %s: %w", basePath, err)
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Writer{basePath: basePath, encoder: encoder}, nil
}

// Path returns the store's base directory.
func (w *Writer) Path() string { return w.basePath }

// WriteFloat stores a continuous frame as a float32 dataset.
func (w *Writer) WriteFloat(name string, f *frame.Frame) error {
	data := make([]byte, len(f.Values)*4)
	for i, v := range f.Values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return w.writeDataset(name, "float32", f.Channels, f.Ticks, data)
}

// WriteLabel stores a label frame as an int32 dataset.
func (w *Writer) WriteLabel(name string, f *frame.LabelFrame) error {
	data := make([]byte, len(f.Values)*4)
	for i, v := range f.Values {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
	}
	return w.writeDataset(name, "int32", f.Channels, f.Ticks, data)
}

// Close releases the encoder.
func (w *Writer) Close() {
	if w.encoder != nil {
		w.encoder.Close()
	}
}

func (w *Writer) writeDataset(name, dataType string, rows, cols int, raw []byte) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("dataset %s: invalid shape %s", name, frame.Shape(rows, cols))
	}

	dir := filepath.Join(w.basePath, name)
	if err := os.MkdirAll(filepath.Join(dir, "c", "0"), 0o755); err != nil {
		return fmt.Errorf("dataset %s: failed to create directories: %w", name, err)
	}

	meta := ArrayMeta{
		Shape:      []int{rows, cols},
		DataType:   dataType,
		FillValue:  0,
		ZarrFormat: 3,
		NodeType:   "array",
	}
	meta.ChunkGrid.Name = "regular"
	meta.ChunkGrid.Configuration.ChunkShape = []int{rows, cols}
	meta.ChunkKeyEncoding.Name = "default"
	meta.ChunkKeyEncoding.Configuration.Separator = "/"
	meta.Codecs = []struct {
		Name          string                 `json:"name"`
		Configuration map[string]interface{} `json:"configuration"`
	}{
		{Name: "bytes", Configuration: map[string]interface{}{"endian": "little"}},
		{Name: "zstd", Configuration: map[string]interface{}{"level": 3}},
	}

	metaJSON, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset %s: failed to marshal metadata: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "zarr.json"), metaJSON, 0o644); err != nil {
		return fmt.Errorf("dataset %s: failed to write metadata: %w", name, err)
	}

	compressed := w.encoder.EncodeAll(raw, nil)
	if err := os.WriteFile(filepath.Join(dir, "c", "0", "0"), compressed, 0o644); err != nil {
		return fmt.Errorf("dataset %s: failed to write chunk: %w", name, err)
	}
	return nil
}
