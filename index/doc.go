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

// Package index provides the in-process search indexes over work records.
//
// Two indexes exist side by side: a BM25 lexical index and an HNSW
// approximate-nearest-neighbor vector index, both backed by the comet
// library. They are derived structures: the record store remains the
// source of truth and either index can be rebuilt from it at any time.
//
// Both indexes serve ranked candidate lists. Candidates may be slightly
// stale relative to storage; callers filter deleted records after
// retrieval rather than expecting the indexes to be exact.
package index
