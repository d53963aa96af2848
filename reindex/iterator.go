package reindex

import (
	"context"

	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/storage"
)

const (
	// DefaultBatchSize is the default number of records to fetch in each batch
	DefaultBatchSize = 100
)

// RecordIterator walks every stored record in ascending ID order, one
// batch at a time, so a rebuild never loads the full store into memory.
type RecordIterator struct {
	repo      storage.RecordRepository
	batchSize int
}

// NewRecordIterator creates a new record iterator.
// batchSize: number of records to fetch in each batch (must be > 0)
func NewRecordIterator(repo storage.RecordRepository, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RecordIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all records, calling fn for each batch. Deleted
// records are included; callers decide whether to skip them.
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *RecordIterator) ForEach(ctx context.Context, fn func([]*core.Record) error) error {
	var lastID core.ID

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.repo.GetRecordsAfterID(ctx, lastID, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		lastID = batch[len(batch)-1].Id
	}
}
