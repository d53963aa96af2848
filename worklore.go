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

// Package worklore is a searchable archive for engineering work records:
// devlog entries, decisions, incidents, and work items. Records are
// stored durably in BadgerDB and served through a hybrid lexical/vector
// search with tunable rank fusion.
package worklore

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/worklore/worklore/ai"
	"github.com/worklore/worklore/ai/openai"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/fusion"
	"github.com/worklore/worklore/index"
	"github.com/worklore/worklore/ingest"
	"github.com/worklore/worklore/reindex"
	"github.com/worklore/worklore/storage"
	"github.com/worklore/worklore/storage/badger"
	"github.com/worklore/worklore/tuning"
)

// Engine assembles storage, indexes, the ingest pipeline, and the fusion
// search into one unit. Indexes live in memory and are rebuilt from the
// record store on Open.
type Engine struct {
	backend     *badger.Backend
	records     storage.RecordRepository
	profileRepo storage.ProfileRepository
	embedder    ai.Embedder
	lexical     *index.LexicalIndex
	vector      *index.VectorIndex
	pipeline    *ingest.Pipeline
	profiles    *tuning.Store
	fusion      *fusion.Engine
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	embedder      ai.Embedder
	inMemory      bool
	searchBreadth int
	poolSize      int
	rebuildOutput io.Writer
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects an embedder directly, bypassing the OpenAI
// provider. Used by tests and offline tooling.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithInMemory opens the store in memory, discarding it on Close.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithSearchBreadth sets the vector index's per-query exploration
// breadth. Higher values trade latency for recall.
func WithSearchBreadth(ef int) EngineOption {
	return func(o *engineOptions) {
		if ef > 0 {
			o.searchBreadth = ef
		}
	}
}

// WithPoolSize sets the embedding worker pool size.
func WithPoolSize(size int) EngineOption {
	return func(o *engineOptions) {
		o.poolSize = size
	}
}

// WithRebuildOutput directs index rebuild progress to w.
// Default is to discard it.
func WithRebuildOutput(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.rebuildOutput = w
	}
}

// Open opens or creates an archive at filePath, wires every component,
// and rebuilds the in-memory indexes from the record store.
func Open(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:      ai.DefaultConfig(),
		rebuildOutput: io.Discard,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	records, err := badger.NewRecordRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	profileRepo := badger.NewProfileRepository(backend)
	cache := badger.NewVectorCache(backend)

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			records.Close()
			backend.Close()
			return nil, err
		}
	}
	embedder = ai.NewCachedEmbedder(embedder, cache, options.aiConfig.EmbeddingModel)

	lexical := index.NewLexicalIndex()

	var vectorOpts []index.VectorIndexOption
	if options.searchBreadth > 0 {
		vectorOpts = append(vectorOpts, index.WithSearchBreadth(options.searchBreadth))
	}
	vector, err := index.NewVectorIndex(options.aiConfig.EmbeddingDimensions, vectorOpts...)
	if err != nil {
		records.Close()
		backend.Close()
		return nil, err
	}

	var pipelineOpts []ingest.Option
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(options.poolSize))
	}
	pipeline, err := ingest.NewPipeline(records, lexical, vector, embedder, pipelineOpts...)
	if err != nil {
		records.Close()
		backend.Close()
		return nil, err
	}

	profiles := tuning.NewStore(profileRepo)

	engine, err := fusion.NewEngine(lexical, vector, embedder, records, profiles)
	if err != nil {
		pipeline.Release()
		records.Close()
		backend.Close()
		return nil, err
	}

	e := &Engine{
		backend:     backend,
		records:     records,
		profileRepo: profileRepo,
		embedder:    embedder,
		lexical:     lexical,
		vector:      vector,
		pipeline:    pipeline,
		profiles:    profiles,
		fusion:      engine,
		logger:      slog.Default(),
	}

	if err := e.Rebuild(context.Background(), options.rebuildOutput); err != nil {
		e.logger.Warn("index rebuild incomplete, search may miss embeddings until the next rebuild", "err", err)
	}

	return e, nil
}

// AddRecord validates and stores a new record, then indexes it. The
// record is lexically findable when this returns; the embedding follows
// in the background.
func (e *Engine) AddRecord(ctx context.Context, record *core.Record) (*core.Record, error) {
	if err := core.ValidateRecord(record); err != nil {
		return nil, err
	}
	record.LexicalWeight = core.LexicalWeightOf(record.SearchText())
	record.Vector = nil

	added, err := e.records.AddRecords(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := e.pipeline.RecordWritten(ctx, added[0]); err != nil {
		return nil, err
	}
	return added[0], nil
}

// UpdateRecord validates and stores new content for an existing record,
// then reindexes it. The stale embedding keeps serving vector queries
// until the fresh one lands.
func (e *Engine) UpdateRecord(ctx context.Context, record *core.Record) (*core.Record, error) {
	if err := core.ValidateRecord(record); err != nil {
		return nil, err
	}

	old, err := e.records.GetRecord(ctx, record.Id)
	if err != nil {
		return nil, err
	}
	if old.IsDeleted() {
		return nil, storage.ErrNotFound
	}

	record.LexicalWeight = core.LexicalWeightOf(record.SearchText())
	record.Vector = old.Vector

	updated, err := e.records.UpdateRecords(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := e.pipeline.RecordWritten(ctx, updated[0]); err != nil {
		return nil, err
	}
	return updated[0], nil
}

// DeleteRecord soft-deletes a record and removes it from both indexes.
func (e *Engine) DeleteRecord(ctx context.Context, id core.ID) error {
	if err := e.records.SoftDeleteRecords(ctx, time.Now().UTC(), id); err != nil {
		return err
	}
	return e.pipeline.RecordDeleted(ctx, id)
}

// GetRecord returns a live record by ID. Soft-deleted records report
// storage.ErrNotFound.
func (e *Engine) GetRecord(ctx context.Context, id core.ID) (*core.Record, error) {
	record, err := e.records.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.IsDeleted() {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// Search runs a fused search with the named tuning profile.
func (e *Engine) Search(ctx context.Context, query string, profileName string, limit int) (*fusion.Response, error) {
	return e.fusion.Search(ctx, query, profileName, limit)
}

// SearchWithOptions runs a fused search with full options.
func (e *Engine) SearchWithOptions(ctx context.Context, query string, opts *fusion.SearchOptions) (*fusion.Response, error) {
	return e.fusion.SearchWithOptions(ctx, query, opts)
}

// Profiles returns the tuning profile store.
func (e *Engine) Profiles() *tuning.Store {
	return e.profiles
}

// Records returns the record repository for direct access (seeding, export).
func (e *Engine) Records() storage.RecordRepository {
	return e.records
}

// Rebuild reconstructs both indexes from the record store, writing
// progress to w. Pass nil to discard progress output.
func (e *Engine) Rebuild(ctx context.Context, w io.Writer) error {
	rebuilder := reindex.NewRebuilder(e.records, e.lexical, e.vector, e.embedder, nil, w)
	return rebuilder.Run(ctx)
}

// Close releases the pipeline and closes storage. The engine must not
// be used afterwards.
func (e *Engine) Close() error {
	e.pipeline.Release()

	if err := e.records.Close(); err != nil {
		e.logger.Error("error closing record repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
