// Package vector provides an immutable passage vector index with similarity
// search and an atomically swappable snapshot store.
package vector

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Result is a single vector search hit (ID is the passage ID).
type Result struct {
	ID    string
	Score float64 // inner product; equals cosine similarity for normalized vectors
}

// Index is an immutable vector index built once from passage embeddings.
// All reads are lock-free; rebuilding produces a new Index that replaces the
// old one via Store.Swap.
type Index struct {
	dimensions int
	ids        []string
	vectors    [][]float32
}

// Build creates an index from parallel id and vector slices. Every vector must
// have the configured dimension; a mismatch is a hard error.
func Build(dimensions int, ids []string, vectors [][]float32) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	idx := &Index{
		dimensions: dimensions,
		ids:        make([]string, len(ids)),
		vectors:    make([][]float32, len(vectors)),
	}
	copy(idx.ids, ids)
	for i, v := range vectors {
		if len(v) != dimensions {
			return nil, fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(v), dimensions)
		}
		vec := make([]float32, dimensions)
		copy(vec, v)
		idx.vectors[i] = vec
	}
	return idx, nil
}

// Search returns the top-k entries by inner product, score descending with ties
// broken by ascending ID so repeated queries return identical orderings.
// k <= 0 returns an empty result, not an error.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), idx.dimensions)
	}
	if k <= 0 || len(idx.ids) == 0 {
		return nil, nil
	}
	scores := make([]Result, len(idx.ids))
	for i, vec := range idx.vectors {
		var dot float64
		for j := 0; j < idx.dimensions; j++ {
			dot += float64(query[j] * vec[j])
		}
		scores[i] = Result{ID: idx.ids[i], Score: dot}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Size returns the number of vectors in the index.
func (idx *Index) Size() int {
	return len(idx.ids)
}

// Dimensions returns the embedding width the index was built with.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// Save persists the index to path. Directory is created if needed. Format:
// dimension (4), n (4), then per entry: idLen (4), id bytes, vector (dimension*4 bytes).
func (idx *Index) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(idx.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(idx.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range idx.ids {
		idBytes := []byte(id)
		if err := binary.Write(f, binary.LittleEndian, uint32(len(idBytes))); err != nil {
			return fmt.Errorf("write id len: %w", err)
		}
		if _, err := f.Write(idBytes); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(idx.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads an index from path. Dimensions must match the stored file; a
// loaded index answers queries identically to the index that was saved.
func Load(path string, dimensions int) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != dimensions {
		return nil, fmt.Errorf("dimension mismatch: file has %d, expected %d", dim, dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	idx := &Index{
		dimensions: dimensions,
		ids:        make([]string, 0, n),
		vectors:    make([][]float32, 0, n),
	}
	buf := make([]byte, dimensions*4)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(f, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("read id len: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(f, idBytes); err != nil {
			return nil, fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		idx.ids = append(idx.ids, string(idBytes))
		idx.vectors = append(idx.vectors, bytesToFloat32Slice(buf))
	}
	return idx, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
