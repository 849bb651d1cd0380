package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/storage"
)

// PageRepository implements storage.PageRepository for BadgerDB.
type PageRepository struct {
	backend *Backend
}

var _ storage.PageRepository = (*PageRepository)(nil)

// NewPageRepository creates a new PageRepository.
func NewPageRepository(backend *Backend) *PageRepository {
	return &PageRepository{backend: backend}
}

// UpsertPages writes pages by ID.
func (r *PageRepository) UpsertPages(ctx context.Context, pages ...*core.Page) error {
	for _, page := range pages {
		if err := core.ValidatePage(page); err != nil {
			return err
		}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, page := range pages {
			if err := tx.Set(makePageKey(page.Id), storage.MarshalPage(page)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPage retrieves a single page by ID.
func (r *PageRepository) GetPage(ctx context.Context, id core.ID) (*core.Page, error) {
	var page *core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePageKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			page, unmarshalErr = storage.UnmarshalPage(val)
			return unmarshalErr
		})
	}, false)
	return page, err
}
