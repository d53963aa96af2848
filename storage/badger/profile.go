package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
type ProfileRepository struct {
	backend *Backend
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend) *ProfileRepository {
	return &ProfileRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ProfileRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ProfileRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutProfile stores a tuning profile, replacing any existing profile
// with the same name.
func (r *ProfileRepository) PutProfile(ctx context.Context, profile *core.Profile) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		profile.UpdatedAt = time.Now().UTC()
		key := makeProfileKey(profile.Name)
		value := storage.MarshalProfile(profile)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetProfile retrieves a tuning profile by name.
func (r *ProfileRepository) GetProfile(ctx context.Context, name string) (*core.Profile, error) {
	var result *core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeProfileKey(name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalProfile(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ListProfiles returns all stored profiles ordered by name.
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]*core.Profile, error) {
	var results []*core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(profilePrefix + ":")
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var profile *core.Profile
			if err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				profile, unmarshalErr = storage.UnmarshalProfile(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			results = append(results, profile)
		}
		return nil
	}, false)
	return results, err
}

// DeleteProfile removes a tuning profile by name.
func (r *ProfileRepository) DeleteProfile(ctx context.Context, name string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProfileKey(name)
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
