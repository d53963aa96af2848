package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wizenheimer/comet"
	"github.com/worklore/worklore/core"
)

// lexicalEntry holds per-record metadata the BM25 index itself doesn't carry.
type lexicalEntry struct {
	doc       uint32
	weight    float64
	updatedAt time.Time
}

// LexicalIndex is a BM25 full-text index over record search text.
// BM25 document IDs are uint32, so the index assigns its own doc ids
// and keeps a bidirectional mapping to record IDs. Safe for concurrent
// use.
type LexicalIndex struct {
	mu       sync.RWMutex
	bm25     *comet.BM25SearchIndex
	entries  map[core.ID]lexicalEntry
	toRecord map[uint32]core.ID
	nextDoc  uint32
}

// NewLexicalIndex creates an empty lexical index.
func NewLexicalIndex() *LexicalIndex {
	return &LexicalIndex{
		bm25:     comet.NewBM25SearchIndex(),
		entries:  make(map[core.ID]lexicalEntry),
		toRecord: make(map[uint32]core.ID),
	}
}

// Index adds or replaces a record in the index. The record's lexical
// weight scales its BM25 scores so very long records don't dominate.
func (l *LexicalIndex) Index(record *core.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := l.nextDoc
	if old, exists := l.entries[record.Id]; exists {
		if err := l.bm25.Remove(old.doc); err != nil {
			return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
		}
		delete(l.toRecord, old.doc)
		doc = old.doc
	} else {
		l.nextDoc++
	}
	if err := l.bm25.Add(doc, record.SearchText()); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	l.entries[record.Id] = lexicalEntry{
		doc:       doc,
		weight:    float64(record.LexicalWeight),
		updatedAt: record.UpdatedAt,
	}
	l.toRecord[doc] = record.Id
	return nil
}

// Remove deletes a record from the index. Removing an unknown ID is a no-op.
func (l *LexicalIndex) Remove(id core.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[id]
	if !exists {
		return nil
	}
	if err := l.bm25.Remove(entry.doc); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	delete(l.toRecord, entry.doc)
	delete(l.entries, id)
	return nil
}

// Search returns up to limit candidates ranked by weighted BM25 score.
// A blank query yields an empty result, not an error.
func (l *LexicalIndex) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	results, err := l.bm25.NewSearch().
		WithQuery(query).
		WithK(limit).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, result := range results {
		id, ok := l.toRecord[result.GetId()]
		if !ok {
			// Stale hit for a removed record
			continue
		}
		entry := l.entries[id]
		weight := entry.weight
		if weight <= 0 {
			weight = 1.0
		}
		candidates = append(candidates, Candidate{
			ID:        id,
			Score:     float64(result.GetScore()) * weight,
			UpdatedAt: entry.updatedAt,
		})
	}

	// Weighting can reorder raw BM25 results
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	return candidates, nil
}

// Len returns the number of indexed records.
func (l *LexicalIndex) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset drops every entry, leaving an empty index ready for a rebuild.
func (l *LexicalIndex) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bm25 = comet.NewBM25SearchIndex()
	l.entries = make(map[core.ID]lexicalEntry)
	l.toRecord = make(map[uint32]core.ID)
	l.nextDoc = 0
}
