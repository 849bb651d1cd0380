// Copyright 2025 Poiesic Systems
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
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/storage"
)

// LedgerRepository implements storage.LedgerRepository for BadgerDB.
type LedgerRepository struct {
	backend *Backend
}

var _ storage.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(backend *Backend) *LedgerRepository {
	return &LedgerRepository{
		backend: backend,
	}
}

// HasEntry reports whether an archive object has been fully processed.
func (r *LedgerRepository) HasEntry(ctx context.Context, id core.ID) (bool, error) {
	var found bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		found, err = exists(tx, makeLedgerKey(id))
		return err
	}, false)
	return found, err
}

// PutEntry marks an archive object as processed.
func (r *LedgerRepository) PutEntry(ctx context.Context, entry *core.LedgerEntry) error {
	if err := core.ValidateLedgerEntry(entry); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeLedgerKey(entry.Id), storage.MarshalLedgerEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a ledger entry.
// Returns nil, nil if no entry exists.
func (r *LedgerRepository) GetEntry(ctx context.Context, id core.ID) (*core.LedgerEntry, error) {
	var entry *core.LedgerEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLedgerKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			entry, unmarshalErr = storage.UnmarshalLedgerEntry(val)
			return unmarshalErr
		})
	}, false)

	return entry, err
}
