package storage

import (
	"context"
	"time"

	"github.com/worklore/worklore/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// RecordRepository provides operations for managing records.
type RecordRepository interface {
	Repository

	// AddRecords adds one or more records to storage.
	// Generates new IDs from sequence and sets CreatedAt/UpdatedAt if unset.
	// Returns the records with generated IDs and timestamps populated.
	AddRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error)

	// UpdateRecords updates existing records, advancing UpdatedAt.
	// Concurrent updates to the same id serialize; the last write wins.
	// Returns ErrNotFound if any record doesn't exist.
	UpdateRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error)

	// SetVector stores the embedding vector for a record without touching any
	// other field. The embedding pipeline is the only caller.
	// Returns ErrNotFound if the record doesn't exist.
	SetVector(ctx context.Context, id core.ID, vector []float32) error

	// SoftDeleteRecords marks records as deleted at the given time.
	// Deleted records are retained so the delete can replay into the indexes.
	// Returns ErrNotFound if any record doesn't exist.
	SoftDeleteRecords(ctx context.Context, at time.Time, ids ...core.ID) error

	// GetRecord retrieves a single record by ID, including soft-deleted ones.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id core.ID) (*core.Record, error)

	// GetRecords retrieves multiple records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetRecords(ctx context.Context, ids ...core.ID) ([]*core.Record, error)

	// GetRecordsByDateRange retrieves live records within a time range.
	// Returns records where start <= UpdatedAt < end, ordered by timestamp.
	GetRecordsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Record, error)

	// GetRecordsAfterID retrieves up to limit records with id > afterID,
	// ordered by id ascending. Includes soft-deleted records so callers can
	// observe the full store; used for batched iteration during rebuilds.
	GetRecordsAfterID(ctx context.Context, afterID core.ID, limit int) ([]*core.Record, error)

	// CountRecords returns the number of live records in the store.
	// Soft-deleted records are excluded.
	CountRecords(ctx context.Context) (int, error)
}

// ProfileRepository provides operations for managing tuning profiles.
// Reads must observe the latest successfully committed write.
type ProfileRepository interface {
	Repository

	// PutProfile stores a profile under its name, overwriting any prior value.
	PutProfile(ctx context.Context, profile *core.Profile) error

	// GetProfile retrieves a profile by name.
	// Returns ErrNotFound if no profile with that name exists.
	GetProfile(ctx context.Context, name string) (*core.Profile, error)

	// ListProfiles retrieves all stored profiles, ordered by name.
	ListProfiles(ctx context.Context) ([]*core.Profile, error)

	// DeleteProfile removes a profile by name.
	// Returns ErrNotFound if no profile with that name exists.
	DeleteProfile(ctx context.Context, name string) error
}

// VectorCache stores computed embedding vectors keyed by content hash, so
// re-embedding unchanged text is a lookup instead of a model call.
type VectorCache interface {
	// GetVector retrieves a cached vector. Returns ErrNotFound on miss.
	GetVector(ctx context.Context, key string) ([]float32, error)

	// PutVector stores a vector under the given key.
	PutVector(ctx context.Context, key string, vector []float32) error
}
