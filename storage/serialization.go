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

import (
	"fmt"

	"github.com/worklore/worklore/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalRecord serializes a Record to bytes.
func MarshalRecord(record *core.Record) []byte {
	buf := make([]byte, core.RecordMUS.Size(*record))
	core.RecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (*core.Record, error) {
	record, _, err := core.RecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: record: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalProfile serializes a Profile to bytes.
func MarshalProfile(profile *core.Profile) []byte {
	buf := make([]byte, core.ProfileMUS.Size(*profile))
	core.ProfileMUS.Marshal(*profile, buf)
	return buf
}

// UnmarshalProfile deserializes a Profile from bytes.
func UnmarshalProfile(data []byte) (*core.Profile, error) {
	profile, _, err := core.ProfileMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: profile: %w", ErrSerializationFailed, err)
	}
	return &profile, nil
}

// MarshalVector serializes an embedding vector to bytes.
func MarshalVector(vector []float32) []byte {
	buf := make([]byte, core.VectorMUS.Size(vector))
	core.VectorMUS.Marshal(vector, buf)
	return buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	vector, _, err := core.VectorMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, err)
	}
	return vector, nil
}
