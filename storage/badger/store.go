package badger

import (
	"github.com/poiesic/crawlvec/storage"
)

// Store bundles the BadgerDB repositories behind one storage.Store handle.
type Store struct {
	*PageRepository
	*ContentRepository
	*LedgerRepository
	backend *Backend
}

var _ storage.Store = (*Store)(nil)

// NewStore builds a Store over an open backend. Closing the store closes the backend.
func NewStore(backend *Backend) *Store {
	return &Store{
		PageRepository:    NewPageRepository(backend),
		ContentRepository: NewContentRepository(backend),
		LedgerRepository:  NewLedgerRepository(backend),
		backend:           backend,
	}
}

// OpenStore opens (creating if needed) a BadgerDB store at path.
func OpenStore(path string) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return NewStore(backend), nil
}

// Backend returns the underlying backend.
func (s *Store) Backend() *Backend {
	return s.backend
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.Close()
}
