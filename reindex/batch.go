package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/worklore/worklore/ai"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/index"
	"github.com/worklore/worklore/storage"
)

// BatchProcessor embeds batches of records and lands the vectors in both
// storage and the vector index.
type BatchProcessor struct {
	repo           storage.RecordRepository
	vector         *index.VectorIndex
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.RecordRepository, vector *index.VectorIndex, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		vector:         vector,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds a batch of records, persists the vectors, and adds them
// to the vector index. Vectors are normalized for cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.SearchText()
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(embeddings))
	}

	for i, record := range records {
		vector := ai.NormalizeVector(embeddings[i])
		if err := bp.repo.SetVector(ctx, record.Id, vector); err != nil {
			return fmt.Errorf("failed to persist embedding for record %d: %w", record.Id, err)
		}
		if err := bp.vector.Index(record.Id, vector, record.UpdatedAt); err != nil {
			return fmt.Errorf("failed to index embedding for record %d: %w", record.Id, err)
		}
	}

	return nil
}
