package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/storage"
)

// RecordRepository implements storage.RecordRepository for BadgerDB.
type RecordRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(backend *Backend) (*RecordRepository, error) {
	idSeq, err := backend.GetSequence(recordSequenceName)
	if err != nil {
		return nil, err
	}

	return &RecordRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *RecordRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *RecordRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddRecords adds one or more records to storage.
func (r *RecordRepository) AddRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			record.Id = core.ID(nextID)

			now := time.Now().UTC()
			if record.CreatedAt.IsZero() {
				record.CreatedAt = now
			}
			if record.UpdatedAt.IsZero() {
				record.UpdatedAt = record.CreatedAt
			}

			// Store primary record
			key := makeRecordKey(record.Id)
			value := storage.MarshalRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update date index
			dateKey := makeRecordDateKey(record.UpdatedAt, record.Id)
			if err := tx.Set(dateKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// UpdateRecords updates existing records.
func (r *RecordRepository) UpdateRecords(ctx context.Context, records ...*core.Record) ([]*core.Record, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeRecordKey(record.Id)

			// Read old record to detect changes
			old, err := r.readRecord(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if record.CreatedAt.IsZero() {
				record.CreatedAt = old.CreatedAt
			}
			record.UpdatedAt = time.Now().UTC()

			// Store updated record
			value := storage.MarshalRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update date index
			if !old.UpdatedAt.Equal(record.UpdatedAt) {
				oldDateKey := makeRecordDateKey(old.UpdatedAt, old.Id)
				if err := tx.Delete(oldDateKey); err != nil {
					return err
				}
				newDateKey := makeRecordDateKey(record.UpdatedAt, record.Id)
				if err := tx.Set(newDateKey, storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// SetVector stores a computed embedding on a record without touching
// its content fields or update time.
func (r *RecordRepository) SetVector(ctx context.Context, id core.ID, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(id)
		record, err := r.readRecord(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}

		record.Vector = vector
		value := storage.MarshalRecord(record)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SoftDeleteRecords marks records as deleted without removing them.
// Deleted records stay in storage and remain reachable by ID iteration.
func (r *RecordRepository) SoftDeleteRecords(ctx context.Context, at time.Time, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRecordKey(id)
			record, err := r.readRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			record.DeletedAt = at.UTC()
			value := storage.MarshalRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetRecord retrieves a single record by ID.
func (r *RecordRepository) GetRecord(ctx context.Context, id core.ID) (*core.Record, error) {
	var result *core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(id)
		var err error
		result, err = r.readRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecords retrieves multiple records by their IDs. Missing IDs are skipped.
func (r *RecordRepository) GetRecords(ctx context.Context, ids ...core.ID) ([]*core.Record, error) {
	var result []*core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRecordKey(id)
			record, err := r.readRecord(tx, key)
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetRecordsByDateRange retrieves live records whose update time falls
// within the range.
func (r *RecordRepository) GetRecordsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Record, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makeRecordDateBound(start)
		endKey := makeRecordDateBound(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			recordID := recordIDFromDateKey(key)
			recordKey := makeRecordKey(recordID)
			record, err := r.readRecord(tx, recordKey)
			if err != nil {
				return err
			}
			if record != nil && !record.IsDeleted() {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetRecordsAfterID retrieves up to limit records with IDs strictly greater
// than afterID, in ascending ID order. Deleted records are included so
// callers iterating the full store see every row.
func (r *RecordRepository) GetRecordsAfterID(ctx context.Context, afterID core.ID, limit int) ([]*core.Record, error) {
	var results []*core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(recordPrefix + ":")
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		startKey := makeRecordKey(afterID + 1)
		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var record *core.Record
			if err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				record, unmarshalErr = storage.UnmarshalRecord(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)

	return results, err
}

// CountRecords returns the number of live records in storage.
func (r *RecordRepository) CountRecords(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(recordPrefix + ":")
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var record *core.Record
			if err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				record, unmarshalErr = storage.UnmarshalRecord(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			if !record.IsDeleted() {
				count++
			}
		}
		return nil
	}, false)

	return count, err
}

// readRecord reads a record from the transaction.
func (r *RecordRepository) readRecord(tx *badger.Txn, key []byte) (*core.Record, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.Record
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(val)
		return unmarshalErr
	})
	return record, err
}
