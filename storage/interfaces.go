package storage

import (
	"context"

	"github.com/poiesic/crawlvec/core"
)

// PageRepository provides operations for crawled pages.
type PageRepository interface {
	// UpsertPages writes pages by ID, replacing any existing page with the same ID.
	UpsertPages(ctx context.Context, pages ...*core.Page) error

	// GetPage retrieves a single page by ID.
	// Returns ErrNotFound if the page doesn't exist.
	GetPage(ctx context.Context, id core.ID) (*core.Page, error)
}

// ContentRepository provides operations for content line records.
type ContentRepository interface {
	// UpsertContents writes records by ID, replacing any existing record with the same ID.
	UpsertContents(ctx context.Context, records ...*core.ContentRecord) error

	// GetContent retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetContent(ctx context.Context, id core.ID) (*core.ContentRecord, error)

	// GetContents retrieves multiple records by their IDs.
	// Returns only the records that exist (no error for missing records),
	// in the order of ids.
	GetContents(ctx context.Context, ids ...core.ID) ([]*core.ContentRecord, error)
}

// ContentScanner walks every stored content record.
type ContentScanner interface {
	// CountContents returns the number of stored content records.
	CountContents(ctx context.Context) (int, error)

	// ScanContents calls fn with successive batches of at most batchSize
	// records. Iteration stops at the first error from fn or when ctx ends.
	ScanContents(ctx context.Context, batchSize int, fn func([]*core.ContentRecord) error) error
}

// LedgerRepository records which archive objects have been fully processed.
type LedgerRepository interface {
	// HasEntry reports whether an entry with the given ID exists.
	HasEntry(ctx context.Context, id core.ID) (bool, error)

	// PutEntry writes an entry. Writing an existing entry is a no-op.
	PutEntry(ctx context.Context, entry *core.LedgerEntry) error
}

// Store aggregates the document store repositories behind one handle.
// Implementations must be safe for concurrent use.
type Store interface {
	PageRepository
	ContentRepository
	ContentScanner
	LedgerRepository

	// Close releases the underlying connection or database.
	Close() error
}
