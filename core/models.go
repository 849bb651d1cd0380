package core

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// idSize is the digest width used for content-addressed identifiers.
const idSize = 20

// ID is a content-addressed identifier: the lowercase hex of a BLAKE2b digest.
type ID string

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(idSize, nil)
	h.Write([]byte(text))
	return ID(hex.EncodeToString(h.Sum(nil)))
}

// String returns the hex form of the ID.
func (id ID) String() string {
	return string(id)
}

// Snapshot identifies one crawl release, e.g. "CC-MAIN-2023-50".
type Snapshot string

// ObjectRef is the remote path of one compressed archive object within a snapshot.
type ObjectRef string

// ID returns the ledger identifier of the object.
func (r ObjectRef) ID() ID {
	return IDFromContent(string(r))
}

// Page is one crawled page, keyed by the hash of its URL.
type Page struct {
	Id  ID
	URL string
}

// NewPage builds a Page with its content-addressed ID.
func NewPage(url string) *Page {
	return &Page{Id: PageID(url), URL: url}
}

// ContentRecord is one qualifying line of page text.
// TextGzip holds the gzip-compressed original line.
type ContentRecord struct {
	Id       ID
	PageId   ID
	TextGzip []byte
}

// LedgerEntry marks an archive object as fully processed.
type LedgerEntry struct {
	Id  ID
	Ref ObjectRef
}

// NewLedgerEntry builds the ledger entry for an object reference.
func NewLedgerEntry(ref ObjectRef) *LedgerEntry {
	return &LedgerEntry{Id: ref.ID(), Ref: ref}
}

// VectorPoint is one embedded chunk of a content record.
type VectorPoint struct {
	Id       string // UUID string, as required by the vector index
	Vector   []float32
	SourceId ID
}

// PageID returns the identifier for a page URL.
func PageID(url string) ID {
	return IDFromContent(url)
}

// ContentID returns the identifier for a content line on a page.
// The normalized form is used so that lines differing only in punctuation
// on the same page collapse into one record.
func ContentID(url, normalized string) ID {
	return IDFromContent(url + normalized)
}
