// Package flat provides an exact, in-process vector index.
//
// Every search scans all vectors. Documents hold hundreds to low thousands
// of chunks, so an exact scan is fast and results are fully deterministic.
package flat

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragextract/internal/core/domain"
	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Ensure Factory implements the interface.
var _ driven.VectorIndexFactory = (*Factory)(nil)

var (
	errClosed            = errors.New("flat: index is closed")
	errDimensionMismatch = errors.New("flat: embedding dimension mismatch")
)

type entry struct {
	chunkID string
	vector  []float32
	norm    float64
	seq     int
}

// Index provides exact similarity search over a set of vectors.
// Ties are broken by insertion order.
type Index struct {
	mu        sync.RWMutex
	dimension int
	metric    domain.SimilarityMetric
	entries   map[string]*entry
	nextSeq   int
	closed    bool
}

// New creates an empty index. A non-positive dimension is fixed by the first Add.
func New(dimension int, metric domain.SimilarityMetric) *Index {
	if !metric.IsValid() {
		metric = domain.SimilarityCosine
	}
	return &Index{
		dimension: dimension,
		metric:    metric,
		entries:   make(map[string]*entry),
	}
}

// Add inserts a vector for the given chunk ID, replacing any existing vector
// while keeping its original insertion order.
func (idx *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errClosed
	}
	if idx.dimension <= 0 {
		idx.dimension = len(embedding)
	}
	if len(embedding) != idx.dimension || len(embedding) == 0 {
		return errDimensionMismatch
	}

	vec := append([]float32(nil), embedding...)
	if existing, ok := idx.entries[chunkID]; ok {
		existing.vector = vec
		existing.norm = norm(vec)
		return nil
	}

	idx.entries[chunkID] = &entry{
		chunkID: chunkID,
		vector:  vec,
		norm:    norm(vec),
		seq:     idx.nextSeq,
	}
	idx.nextSeq++
	return nil
}

// Delete removes a vector from the index.
func (idx *Index) Delete(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errClosed
	}
	delete(idx.entries, chunkID)
	return nil
}

// Search finds the k nearest neighbours to the query vector.
// Returns min(k, Len()) hits ordered by descending similarity.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errClosed
	}
	if k <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, errDimensionMismatch
	}

	type scored struct {
		hit driven.VectorHit
		seq int
	}

	qnorm := norm(query)
	all := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		all = append(all, scored{
			hit: driven.VectorHit{ChunkID: e.chunkID, Similarity: idx.score(query, qnorm, e)},
			seq: e.seq,
		})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].hit.Similarity != all[j].hit.Similarity {
			return all[i].hit.Similarity > all[j].hit.Similarity
		}
		return all[i].seq < all[j].seq
	})

	if k > len(all) {
		k = len(all)
	}
	hits := make([]driven.VectorHit, k)
	for i := range hits {
		hits[i] = all[i].hit
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Dimension returns the vector size accepted by the index.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.entries = nil
	return nil
}

func (idx *Index) score(query []float32, qnorm float64, e *entry) float64 {
	d := dot(query, e.vector)
	if idx.metric == domain.SimilarityDot {
		return d
	}
	if qnorm == 0 || e.norm == 0 {
		return 0
	}
	return d / (qnorm * e.norm)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

// Factory builds flat indexes with a fixed metric.
type Factory struct {
	metric domain.SimilarityMetric
}

// NewFactory creates a factory for the given metric.
func NewFactory(metric domain.SimilarityMetric) *Factory {
	return &Factory{metric: metric}
}

// New returns an empty index.
func (f *Factory) New(dimensions int) (driven.VectorIndex, error) {
	return New(dimensions, f.metric), nil
}
