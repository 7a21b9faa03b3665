// Package zarr reads and writes directory stores of named 2-D arrays in
// Zarr v3 layout: one directory per dataset holding a zarr.json array
// descriptor and zstd-compressed little-endian chunks under c/. It is
// the persistent form of the raw and rebinned frame collections.
package zarr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/dune-vd/framerebin/internal/frame"
)

// ArrayMeta is the Zarr v3 array descriptor (zarr.json).
type ArrayMeta struct {
	Shape     []int  `json:"shape"`
	DataType  string `json:"data_type"`
	ChunkGrid struct {
		Name          string `json:"name"`
		Configuration struct {
			ChunkShape []int `json:"chunk_shape"`
		} `json:"configuration"`
	} `json:"chunk_grid"`
	ChunkKeyEncoding struct {
		Name          string `json:"name"`
		Configuration struct {
			Separator string `json:"separator"`
		} `json:"configuration"`
	} `json:"chunk_key_encoding"`
	FillValue interface{} `json:"fill_value"`
	Codecs    []struct {
		Name          string                 `json:"name"`
		Configuration map[string]interface{} `json:"configuration"`
	} `json:"codecs"`
	ZarrFormat int    `json:"zarr_format"`
	NodeType   string `json:"node_type"`
}

// Info summarizes one stored dataset.
type Info struct {
	Name     string `json:"name"`
	Channels int    `json:"channels"`
	Ticks    int    `json:"ticks"`
	DataType string `json:"data_type"`
}

// Store is a read-only handle on a frame store directory.
type Store struct {
	basePath string
	decoder  *zstd.Decoder
}

// Open opens an existing store directory.
func Open(basePath string) (*Store, error) {
	st, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", basePath, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("store path %s is not a directory", basePath)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Store{basePath: basePath, decoder: decoder}, nil
}

// Path returns the store's base directory.
func (s *Store) Path() string { return s.basePath }

// Datasets lists the dataset names in the store, sorted.
func (s *Store) Datasets() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list store %s: %w", s.basePath, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.basePath, e.Name(), "zarr.json")); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Info returns shape and element type of a dataset.
func (s *Store) Info(name string) (Info, error) {
	meta, err := s.loadMeta(name)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:     name,
		Channels: meta.Shape[0],
		Ticks:    meta.Shape[1],
		DataType: meta.DataType,
	}, nil
}

// ReadFloat loads a float32 dataset as a continuous frame.
func (s *Store) ReadFloat(name string) (*frame.Frame, error) {
	meta, err := s.loadMeta(name)
	if err != nil {
		return nil, err
	}
	if meta.DataType != "float32" {
		return nil, fmt.Errorf("dataset %s: expected float32, got %s", name, meta.DataType)
	}

	words, err := s.readWords(name, meta)
	if err != nil {
		return nil, err
	}
	f := frame.New(meta.Shape[0], meta.Shape[1])
	for i, w := range words {
		f.Values[i] = math.Float32frombits(w)
	}
	return f, nil
}

// ReadLabel loads an int32 dataset as a label frame.
func (s *Store) ReadLabel(name string) (*frame.LabelFrame, error) {
	meta, err := s.loadMeta(name)
	if err != nil {
		return nil, err
	}
	if meta.DataType != "int32" {
		return nil, fmt.Errorf("dataset %s: expected int32, got %s", name, meta.DataType)
	}

	words, err := s.readWords(name, meta)
	if err != nil {
		return nil, err
	}
	f := frame.NewLabel(meta.Shape[0], meta.Shape[1])
	for i, w := range words {
		f.Values[i] = int32(w)
	}
	return f, nil
}

// Close releases the decoder.
func (s *Store) Close() {
	if s.decoder != nil {
		s.decoder.Close()
	}
}

func (s *Store) loadMeta(name string) (*ArrayMeta, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, name, "zarr.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata for dataset %s: %w", name, err)
	}

	var meta ArrayMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for dataset %s: %w", name, err)
	}
	if len(meta.Shape) != 2 {
		return nil, fmt.Errorf("dataset %s: expected 2-D shape, got %v", name, meta.Shape)
	}
	if len(meta.ChunkGrid.Configuration.ChunkShape) != 2 {
		return nil, fmt.Errorf("dataset %s: unexpected chunk shape %v", name, meta.ChunkGrid.Configuration.ChunkShape)
	}
	return &meta, nil
}

// readWords assembles a full 2-D array of 4-byte elements across chunks
// and returns it as row-major little-endian words. Every chunk is stored
// at the full declared chunk shape; edge chunks overhanging the array
// are fill-padded on disk, so decoding always strides by the chunk
// shape and only the in-bounds cells are copied out.
func (s *Store) readWords(name string, meta *ArrayMeta) ([]uint32, error) {
	rows, cols := meta.Shape[0], meta.Shape[1]
	rowChunk := meta.ChunkGrid.Configuration.ChunkShape[0]
	colChunk := meta.ChunkGrid.Configuration.ChunkShape[1]
	if rowChunk <= 0 || colChunk <= 0 {
		return nil, fmt.Errorf("dataset %s: invalid chunk shape %v", name, meta.ChunkGrid.Configuration.ChunkShape)
	}

	words := make([]uint32, rows*cols)
	nRowChunks := ceilDiv(rows, rowChunk)
	nColChunks := ceilDiv(cols, colChunk)

	for rc := 0; rc < nRowChunks; rc++ {
		rowStart := rc * rowChunk
		rowLen := min(rowChunk, rows-rowStart)
		for cc := 0; cc < nColChunks; cc++ {
			colStart := cc * colChunk
			colLen := min(colChunk, cols-colStart)

			data, err := s.readChunk(name, meta, rc, cc, rowChunk*colChunk)
			if err != nil {
				return nil, fmt.Errorf("dataset %s: chunk %d/%d: %w", name, rc, cc, err)
			}

			for i := 0; i < rowLen; i++ {
				for j := 0; j < colLen; j++ {
					off := (i*colChunk + j) * 4
					words[(rowStart+i)*cols+colStart+j] = binary.LittleEndian.Uint32(data[off:])
				}
			}
		}
	}
	return words, nil
}

// readChunk reads and decompresses one chunk of the given full element
// count. A chunk absent on disk stands for an all-fill-value chunk.
func (s *Store) readChunk(name string, meta *ArrayMeta, rc, cc, elements int) ([]byte, error) {
	sep := meta.ChunkKeyEncoding.Configuration.Separator
	if sep == "" {
		sep = "/"
	}
	key := strings.Join([]string{strconv.Itoa(rc), strconv.Itoa(cc)}, sep)

	compressed, err := os.ReadFile(filepath.Join(s.basePath, name, "c", key))
	if os.IsNotExist(err) {
		return fillChunk(meta, elements)
	}
	if err != nil {
		return nil, err
	}

	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %w", err)
	}
	if len(data) < elements*4 {
		return nil, fmt.Errorf("chunk too short: got %d bytes, expected %d", len(data), elements*4)
	}
	return data, nil
}

// fillChunk materializes a missing chunk from the declared fill value.
func fillChunk(meta *ArrayMeta, elements int) ([]byte, error) {
	out := make([]byte, elements*4)
	if meta.FillValue == nil {
		return out, nil
	}

	var word uint32
	switch meta.DataType {
	case "float32":
		v, ok := meta.FillValue.(float64)
		if !ok {
			return nil, fmt.Errorf("unsupported fill_value type for float32: %T", meta.FillValue)
		}
		word = math.Float32bits(float32(v))
	case "int32":
		v, ok := meta.FillValue.(float64)
		if !ok {
			return nil, fmt.Errorf("unsupported fill_value type for int32: %T", meta.FillValue)
		}
		word = uint32(int32(v))
	default:
		return nil, fmt.Errorf("unsupported zarr data_type: %s", meta.DataType)
	}

	for i := 0; i < elements; i++ {
		binary.LittleEndian.PutUint32(out[i*4:], word)
	}
	return out, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
