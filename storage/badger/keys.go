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

package badger

import (
	"encoding/binary"
	"time"

	"github.com/worklore/worklore/core"
)

// Key prefixes for different data types.
const (
	recordPrefix     = "rec"
	recordDatePrefix = "recd"
	profilePrefix    = "prof"
	vectorPrefix     = "vec"

	recordSequenceName = "rec_seq"
)

// makeRecordKey creates a primary key for a record.
// The ID is big-endian encoded so prefix iteration yields ascending ID order.
func makeRecordKey(id core.ID) []byte {
	key := make([]byte, len(recordPrefix)+1+8)
	copy(key, recordPrefix)
	key[len(recordPrefix)] = ':'
	binary.BigEndian.PutUint64(key[len(recordPrefix)+1:], uint64(id))
	return key
}

// makeRecordDateKey creates a date index key: prefix + timestamp + id.
// Keys sort chronologically, ties broken by ID.
func makeRecordDateKey(ts time.Time, id core.ID) []byte {
	key := make([]byte, len(recordDatePrefix)+1+8+8)
	copy(key, recordDatePrefix)
	key[len(recordDatePrefix)] = ':'
	binary.BigEndian.PutUint64(key[len(recordDatePrefix)+1:], uint64(ts.UnixMicro()))
	binary.BigEndian.PutUint64(key[len(recordDatePrefix)+9:], uint64(id))
	return key
}

// makeRecordDateBound creates a partial date index key for range scans.
func makeRecordDateBound(ts time.Time) []byte {
	key := make([]byte, len(recordDatePrefix)+1+8)
	copy(key, recordDatePrefix)
	key[len(recordDatePrefix)] = ':'
	binary.BigEndian.PutUint64(key[len(recordDatePrefix)+1:], uint64(ts.UnixMicro()))
	return key
}

// makeProfileKey creates a key for a tuning profile.
func makeProfileKey(name string) []byte {
	return []byte(profilePrefix + ":" + name)
}

// makeVectorKey creates a key for a cached embedding vector.
func makeVectorKey(contentKey string) []byte {
	return []byte(vectorPrefix + ":" + contentKey)
}

// recordIDFromDateKey extracts the record ID from a date index key.
func recordIDFromDateKey(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}
