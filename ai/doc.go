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

// Package ai provides abstractions for the embedding services used in
// Worklore.
//
// The package defines the Embedder interface that the ingestion pipeline
// and reindexer depend on, so business logic never couples to a concrete
// embedding provider.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external services
//
// Public constructors (openai.NewEmbedder) return the ai.Embedder
// interface to enforce abstraction. Test constructors (mock.NewMockEmbedder)
// return concrete types so tests can inject behavior and assert call counts.
//
// # Caching
//
// NewCachedEmbedder wraps any Embedder with a persistent content-addressed
// cache, so identical text is never embedded twice across process restarts:
//
//	embedder, err := openai.NewEmbedder(cfg)
//	cached := ai.NewCachedEmbedder(embedder, cache, cfg.EmbeddingModel)
//
// # Error Handling
//
// All provider failures are reported as errors wrapping
// ErrEmbeddingUnavailable, so callers can detect the condition with
// errors.Is and degrade to lexical-only operation.
package ai
