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

package storage

import "errors"

var (
	// ErrNotFound reports a lookup for an id or name that is not stored.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed reports use of a backend after Close.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed wraps encode and decode failures of stored values.
	ErrSerializationFailed = errors.New("serialization failed")
)
