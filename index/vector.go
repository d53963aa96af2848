package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wizenheimer/comet"
	"github.com/worklore/worklore/core"
)

const (
	defaultGraphDegree   = 16
	defaultBuildBreadth  = 200
	defaultSearchBreadth = 200
)

// VectorIndex is an HNSW approximate-nearest-neighbor index over record
// embeddings. Node IDs are assigned by comet, so the index keeps a
// bidirectional mapping to record IDs. Removed records are unmapped
// rather than deleted from the graph; orphaned nodes disappear on the
// next rebuild. Safe for concurrent use.
type VectorIndex struct {
	mu   sync.RWMutex
	hnsw *comet.HNSWIndex

	dimensions    int
	graphDegree   int
	buildBreadth  int
	searchBreadth int

	toRecord map[uint32]core.ID
	toNode   map[core.ID]uint32
	updated  map[core.ID]time.Time
}

// VectorIndexOption is a functional option for configuring a VectorIndex.
type VectorIndexOption func(*VectorIndex)

// WithGraphDegree sets the number of graph connections per layer.
// Higher values improve recall at the cost of memory.
func WithGraphDegree(m int) VectorIndexOption {
	return func(v *VectorIndex) {
		v.graphDegree = m
	}
}

// WithBuildBreadth sets the candidate list size used while inserting
// nodes. Higher values build a better graph more slowly.
func WithBuildBreadth(ef int) VectorIndexOption {
	return func(v *VectorIndex) {
		v.buildBreadth = ef
	}
}

// WithSearchBreadth sets the candidate list size explored per query.
// Higher values trade latency for recall.
func WithSearchBreadth(ef int) VectorIndexOption {
	return func(v *VectorIndex) {
		v.searchBreadth = ef
	}
}

// NewVectorIndex creates an empty vector index for embeddings of the
// given dimensionality. Cosine distance is used throughout since text
// embeddings are direction, not magnitude.
func NewVectorIndex(dimensions int, opts ...VectorIndexOption) (*VectorIndex, error) {
	v := &VectorIndex{
		dimensions:    dimensions,
		graphDegree:   defaultGraphDegree,
		buildBreadth:  defaultBuildBreadth,
		searchBreadth: defaultSearchBreadth,
		toRecord:      make(map[uint32]core.ID),
		toNode:        make(map[core.ID]uint32),
		updated:       make(map[core.ID]time.Time),
	}
	for _, opt := range opts {
		opt(v)
	}

	hnsw, err := comet.NewHNSWIndex(dimensions, comet.Cosine, v.graphDegree, v.buildBreadth, v.searchBreadth)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	v.hnsw = hnsw
	return v, nil
}

// Index adds or replaces a record's embedding. Replacing points the
// record at a fresh graph node; the previous node is orphaned until the
// next rebuild.
func (v *VectorIndex) Index(id core.ID, vector []float32, updatedAt time.Time) error {
	if len(vector) != v.dimensions {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d", ErrIndexUnavailable, len(vector), v.dimensions)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	node := comet.NewVectorNode(vector)
	if err := v.hnsw.Add(*node); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	if oldNode, exists := v.toNode[id]; exists {
		delete(v.toRecord, oldNode)
	}
	v.toNode[id] = node.ID()
	v.toRecord[node.ID()] = id
	v.updated[id] = updatedAt
	return nil
}

// Remove unmaps a record. Unknown IDs are a no-op.
func (v *VectorIndex) Remove(id core.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if node, exists := v.toNode[id]; exists {
		delete(v.toRecord, node)
		delete(v.toNode, id)
		delete(v.updated, id)
	}
	return nil
}

// Has reports whether a record currently has an indexed embedding.
func (v *VectorIndex) Has(id core.ID) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.toNode[id]
	return ok
}

// Search returns up to limit candidates ranked by similarity to the
// query vector. A nil or zero vector yields an empty result.
func (v *VectorIndex) Search(ctx context.Context, vector []float32, limit int) ([]Candidate, error) {
	if len(vector) == 0 || limit <= 0 || isZeroVector(vector) {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	// Over-fetch so orphaned nodes don't shrink the result set
	results, err := v.hnsw.NewSearch().
		WithQuery(vector).
		WithK(limit * 2).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, result := range results {
		id, ok := v.toRecord[result.GetId()]
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:        id,
			Score:     float64(result.GetScore()),
			UpdatedAt: v.updated[id],
		})
	}

	// The graph walk does not order equal distances consistently, so
	// repeated identical queries could rank ties differently. Sort into
	// the same total order the lexical side uses before truncating.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Dimensions returns the embedding size this index accepts.
func (v *VectorIndex) Dimensions() int {
	return v.dimensions
}

// Len returns the number of mapped records.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.toNode)
}

// Reset drops the graph and every mapping, leaving an empty index ready
// for a rebuild.
func (v *VectorIndex) Reset() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	hnsw, err := comet.NewHNSWIndex(v.dimensions, comet.Cosine, v.graphDegree, v.buildBreadth, v.searchBreadth)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	v.hnsw = hnsw
	v.toRecord = make(map[uint32]core.ID)
	v.toNode = make(map[core.ID]uint32)
	v.updated = make(map[core.ID]time.Time)
	return nil
}

func isZeroVector(vector []float32) bool {
	for _, x := range vector {
		if x != 0 {
			return false
		}
	}
	return true
}
