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


package core

import (
	"fmt"
	"slices"
	"time"
)

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Category must be one of Categories
//   - CreatedAt must not be in the future
//
// NOT validated (populated by the pipeline):
//   - Vector (can be empty until the embedding processor runs)
//   - LexicalWeight (derived at index time)
//   - ID (0 is valid from database sequences)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyTitle)
	}

	if err := ValidateCategory(record.Category); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if !IsValidTimestamp(record.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateCategory validates that a category label has a known value.
func ValidateCategory(category string) error {
	if !slices.Contains(Categories, category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (zero or not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
