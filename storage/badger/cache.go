package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/worklore/worklore/storage"
)

// VectorCache implements storage.VectorCache for BadgerDB. Entries are
// keyed by a content hash so identical text never hits the embedding
// service twice.
type VectorCache struct {
	backend *Backend
}

var _ storage.VectorCache = (*VectorCache)(nil)

// NewVectorCache creates a new VectorCache.
func NewVectorCache(backend *Backend) *VectorCache {
	return &VectorCache{backend: backend}
}

// GetVector retrieves a cached embedding by content key.
// Returns storage.ErrNotFound on a cache miss.
func (c *VectorCache) GetVector(ctx context.Context, key string) ([]float32, error) {
	var result []float32
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalVector(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// PutVector stores an embedding under the given content key.
func (c *VectorCache) PutVector(ctx context.Context, key string, vector []float32) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeVectorKey(key), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
