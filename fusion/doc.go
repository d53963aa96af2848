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

// Package fusion combines lexical and vector search results into a
// single ranked list.
//
// The engine runs both sub-queries in parallel, merges the candidate
// lists with reciprocal rank fusion, then applies recency and category
// multipliers from the active tuning profile:
//
//	contribution = 1 / (dampening_k + rank)
//	base         = lexical_weight*lexical_contribution + vector_weight*vector_contribution
//	final        = base * (1 + recency_term) * category_multiplier
//
// Rank fusion works on positions rather than raw scores, so BM25 scores
// and cosine similarities never need to share a scale.
//
// A failing source degrades the search instead of failing it: if the
// embedding service or one index is down, results come from the healthy
// source and the response is marked degraded. Only when every attempted
// source fails does Search return ErrSearchUnavailable.
//
// Results are ordered by score descending, update time descending, then
// ID ascending, so equal inputs always produce identical output.
package fusion
