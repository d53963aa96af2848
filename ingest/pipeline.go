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

package ingest

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/worklore/worklore/ai"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/index"
	"github.com/worklore/worklore/storage"
)

// Pipeline propagates record writes and deletes to the search indexes.
// Lexical updates happen inline; embedding work runs on a worker pool.
type Pipeline struct {
	records  storage.RecordRepository
	lexical  *index.LexicalIndex
	vector   *index.VectorIndex
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for embedding work.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingest pipeline.
func NewPipeline(
	records storage.RecordRepository,
	lexical *index.LexicalIndex,
	vector *index.VectorIndex,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if lexical == nil {
		return nil, ErrLexicalIndexRequired
	}
	if vector == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		records:  records,
		lexical:  lexical,
		vector:   vector,
		embedder: embedder,
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// RecordWritten indexes a freshly added or updated record. The lexical
// index is current when this returns; the embedding is computed in the
// background. Embedding errors are logged, never returned.
func (p *Pipeline) RecordWritten(ctx context.Context, record *core.Record) error {
	if err := p.lexical.Index(record); err != nil {
		return err
	}

	id := record.Id
	text := record.SearchText()
	updatedAt := record.UpdatedAt

	return p.pool.Submit(func() {
		p.embed(context.Background(), id, text, updatedAt)
	})
}

// RecordDeleted drops a record from both indexes. Candidate lists built
// before this call may still name the record; searches filter those
// against storage.
func (p *Pipeline) RecordDeleted(ctx context.Context, id core.ID) error {
	if err := p.lexical.Remove(id); err != nil {
		return err
	}
	return p.vector.Remove(id)
}

// embed computes, persists, and indexes one record's embedding.
func (p *Pipeline) embed(ctx context.Context, id core.ID, text string, updatedAt time.Time) {
	vector, err := p.embedder.EmbedText(ctx, text)
	if err != nil {
		p.logger.Warn("embedding failed, record stays lexical-only", "id", id, "err", err)
		return
	}
	vector = ai.NormalizeVector(vector)

	if err := p.records.SetVector(ctx, id, vector); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted before the embedding landed
			p.logger.Debug("record gone before embedding landed", "id", id)
			return
		}
		p.logger.Error("failed to persist embedding", "id", id, "err", err)
		return
	}

	if err := p.vector.Index(id, vector, updatedAt); err != nil {
		p.logger.Error("failed to index embedding", "id", id, "err", err)
	}
}

// Release stops the worker pool. Queued embedding jobs are dropped; a
// rebuild picks up any records they would have covered.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
