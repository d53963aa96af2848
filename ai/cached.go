package ai

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/go-crypt/x/blake2b"
	"github.com/worklore/worklore/storage"
)

// CachedEmbedder wraps an Embedder with a persistent content-addressed
// cache. Cache entries are keyed by a BLAKE2b hash of the model name and
// text, so a model change never serves stale vectors. Cache failures are
// logged and ignored; the wrapped embedder is always the fallback.
type CachedEmbedder struct {
	inner  Embedder
	cache  storage.VectorCache
	model  string
	logger *slog.Logger
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps embedder with the given cache.
func NewCachedEmbedder(embedder Embedder, cache storage.VectorCache, model string) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  embedder,
		cache:  cache,
		model:  model,
		logger: slog.Default().With("component", "cached-embedder"),
	}
}

// ContentKey returns the cache key for a model and text pair.
func ContentKey(model, text string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// EmbedText returns a cached vector when available, otherwise computes one
// and stores it.
func (e *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := ContentKey(e.model, text)

	vector, err := e.cache.GetVector(ctx, key)
	if err == nil {
		return vector, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		e.logger.Warn("embedding cache read failed", "err", err)
	}

	vector, err = e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.PutVector(ctx, key, vector); err != nil {
		e.logger.Warn("embedding cache write failed", "err", err)
	}
	return vector, nil
}

// EmbedTexts embeds a batch, serving cached entries and computing only
// the misses.
func (e *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		vector, err := e.cache.GetVector(ctx, ContentKey(e.model, text))
		if err == nil {
			results[i] = vector
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("embedding cache read failed", "err", err)
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return results, nil
	}

	computed, err := e.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}

	for j, vector := range computed {
		i := missingIdx[j]
		results[i] = vector
		if err := e.cache.PutVector(ctx, ContentKey(e.model, texts[i]), vector); err != nil {
			e.logger.Warn("embedding cache write failed", "err", err)
		}
	}
	return results, nil
}
