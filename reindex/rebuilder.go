// Copyright 2025 Worklore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/worklore/worklore/ai"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/index"
	"github.com/worklore/worklore/storage"
)

// Config holds configuration for a rebuild.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Rebuilder reconstructs both search indexes from the record store.
type Rebuilder struct {
	repo      storage.RecordRepository
	lexical   *index.LexicalIndex
	vector    *index.VectorIndex
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *RecordIterator
}

// NewRebuilder creates a new rebuilder.
// progress: where to write progress output (typically os.Stderr)
func NewRebuilder(repo storage.RecordRepository, lexical *index.LexicalIndex, vector *index.VectorIndex, embedder ai.Embedder, config *Config, progress io.Writer) *Rebuilder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Rebuilder{
		repo:      repo,
		lexical:   lexical,
		vector:    vector,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, vector, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewRecordIterator(repo, config.BatchSize),
	}
}

// Run rebuilds both indexes from scratch. Stored embeddings of the right
// size are reused; records without one are embedded in batches, so a
// rebuild also backfills records written while the embedder was down.
func (r *Rebuilder) Run(ctx context.Context) error {
	total, err := r.repo.CountRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	if total == 0 {
		r.lexical.Reset()
		if err := r.vector.Reset(); err != nil {
			return err
		}
		fmt.Fprintf(r.progress, "No records found in store (0 records)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Rebuilding indexes for %d records (batch size: %d)\n",
		total, r.config.BatchSize)

	r.lexical.Reset()
	if err := r.vector.Reset(); err != nil {
		return err
	}

	tracker := newRateTracker(r.progress, total, r.config.ReportInterval)

	dims := r.vector.Dimensions()
	embedded := 0

	err = r.iterator.ForEach(ctx, func(batch []*core.Record) error {
		var needEmbedding []*core.Record

		for _, record := range batch {
			if record.IsDeleted() {
				continue
			}

			if err := r.lexical.Index(record); err != nil {
				return fmt.Errorf("failed to index record %d: %w", record.Id, err)
			}

			if len(record.Vector) == dims {
				if err := r.vector.Index(record.Id, record.Vector, record.UpdatedAt); err != nil {
					return fmt.Errorf("failed to index embedding for record %d: %w", record.Id, err)
				}
			} else {
				needEmbedding = append(needEmbedding, record)
			}

			tracker.Add(1)
		}

		if len(needEmbedding) > 0 {
			if err := r.processor.Process(ctx, needEmbedding); err != nil {
				return err
			}
			embedded += len(needEmbedding)
		}
		return nil
	})

	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Rebuild complete. Indexed %d records (%d freshly embedded) in %v\n",
		r.lexical.Len(), embedded, elapsed.Round(time.Second))

	return nil
}
