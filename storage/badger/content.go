package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/storage"
)

// ContentRepository implements storage.ContentRepository for BadgerDB.
type ContentRepository struct {
	backend *Backend
}

var (
	_ storage.ContentRepository = (*ContentRepository)(nil)
	_ storage.ContentScanner    = (*ContentRepository)(nil)
)

// DefaultScanBatchSize is used by ScanContents for non-positive batch sizes.
const DefaultScanBatchSize = 100

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(backend *Backend) *ContentRepository {
	return &ContentRepository{backend: backend}
}

// UpsertContents writes content records by ID.
func (r *ContentRepository) UpsertContents(ctx context.Context, records ...*core.ContentRecord) error {
	for _, record := range records {
		if err := core.ValidateContentRecord(record); err != nil {
			return err
		}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := tx.Set(makeContentKey(record.Id), storage.MarshalContentRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetContent retrieves a single content record by ID.
func (r *ContentRepository) GetContent(ctx context.Context, id core.ID) (*core.ContentRecord, error) {
	var result *core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readContentRecord(tx, id)
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

// GetContents retrieves the content records that exist among ids, in order.
func (r *ContentRepository) GetContents(ctx context.Context, ids ...core.ID) ([]*core.ContentRecord, error) {
	results := make([]*core.ContentRecord, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := readContentRecord(tx, id)
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// readContentRecord returns nil, nil when the record does not exist.
func readContentRecord(tx *badger.Txn, id core.ID) (*core.ContentRecord, error) {
	item, err := tx.Get(makeContentKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	var record *core.ContentRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalContentRecord(val)
		return unmarshalErr
	})
	return record, err
}

// CountContents counts content records without reading their values.
func (r *ContentRepository) CountContents(ctx context.Context) (int, error) {
	prefix := []byte(contentPrefix + ":")
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ScanContents reads records in key order. Each batch is read in its own
// transaction, so fn may run for a long time without pinning old versions.
func (r *ContentRepository) ScanContents(ctx context.Context, batchSize int, fn func([]*core.ContentRecord) error) error {
	if batchSize <= 0 {
		batchSize = DefaultScanBatchSize
	}
	prefix := []byte(contentPrefix + ":")
	seek := prefix
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := make([]*core.ContentRecord, 0, batchSize)
		var lastKey []byte
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)
			defer iter.Close()
			for iter.Seek(seek); iter.ValidForPrefix(prefix) && len(batch) < batchSize; iter.Next() {
				item := iter.Item()
				err := item.Value(func(val []byte) error {
					record, err := storage.UnmarshalContentRecord(val)
					if err != nil {
						return err
					}
					batch = append(batch, record)
					return nil
				})
				if err != nil {
					return err
				}
				lastKey = item.KeyCopy(nil)
			}
			return nil
		}, false)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		// Smallest key after lastKey.
		seek = append(slices.Clone(lastKey), 0)
	}
}
