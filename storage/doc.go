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


// Package storage defines the persistence interfaces for records, tuning
// profiles, and cached embedding vectors.
//
// The record store is the single source of truth: both search indexes are
// derived state and can be rebuilt from it at any time. Implementations must
// be thread-safe and serialize concurrent writes to the same record id so
// that the last write wins.
package storage
